// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for TaskFlow.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_key, etc.
//   - Environment variables: TASKFLOW_MONGO_URI, TASKFLOW_SESSION_KEY, etc.
//   - Command-line flags: --mongo_uri, --session_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "taskflow", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "", Desc: "Session signing key (must be strong in production; blank generates an ephemeral key)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables reminder email)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@taskflow.local", Desc: "From email address"},

	{Name: "site_name", Default: "TaskFlow", Desc: "Site name used in reminder emails"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for links in emails and OAuth callbacks"},

	// Workspace invites
	{Name: "invite_ttl", Default: "168h", Desc: "Workspace invite lifetime (e.g., 72h, 168h)"},

	// Due-soon reminder worker
	{Name: "reminder_interval", Default: "1m", Desc: "How often the reminder worker scans"},
	{Name: "reminder_lead_window", Default: "1h", Desc: "How far ahead of the deadline a reminder fires"},
	{Name: "reminder_max_attempts", Default: 5, Desc: "Email delivery attempts before giving up"},
	{Name: "reminder_backoff", Default: "15m", Desc: "Wait between failed email attempts"},

	// Microsoft To Do OAuth configuration
	{Name: "ms_client_id", Default: "", Desc: "Microsoft OAuth2 client ID"},
	{Name: "ms_client_secret", Default: "", Desc: "Microsoft OAuth2 client secret"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TASKFLOW", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionDomain: appValues.String("session_domain"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),

		SiteName: appValues.String("site_name"),
		BaseURL:  appValues.String("base_url"),

		InviteTTL: appValues.Duration("invite_ttl", 7*24*time.Hour),

		ReminderInterval:    appValues.Duration("reminder_interval", time.Minute),
		ReminderLeadWindow:  appValues.Duration("reminder_lead_window", time.Hour),
		ReminderMaxAttempts: appValues.Int("reminder_max_attempts"),
		ReminderBackoff:     appValues.Duration("reminder_backoff", 15*time.Minute),

		MSClientID:     appValues.String("ms_client_id"),
		MSClientSecret: appValues.String("ms_client_secret"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// TaskFlow validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect, and sanity-checks the
// reminder worker knobs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.ReminderInterval <= 0 {
		return fmt.Errorf("reminder_interval must be positive")
	}
	if appCfg.ReminderLeadWindow <= 0 {
		return fmt.Errorf("reminder_lead_window must be positive")
	}
	if appCfg.ReminderMaxAttempts < 1 {
		return fmt.Errorf("reminder_max_attempts must be at least 1")
	}
	if appCfg.InviteTTL <= 0 {
		return fmt.Errorf("invite_ttl must be positive")
	}
	if (appCfg.MSClientID == "") != (appCfg.MSClientSecret == "") {
		return fmt.Errorf("ms_client_id and ms_client_secret must be set together")
	}
	return nil
}
