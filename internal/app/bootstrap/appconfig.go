// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers framework-level settings (ports, TLS,
// logging, CORS). AppConfig is everything specific to TaskFlow:
// database connection, session cookies, mail relay, reminder tuning,
// and the Microsoft To Do integration credentials.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // secret for signing session cookies (must be strong in production)
	SessionDomain string // cookie domain (blank means current host)

	// Email/SMTP configuration
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string

	// SiteName appears in reminder emails; BaseURL builds links in them.
	SiteName string
	BaseURL  string

	// Workspace invites
	InviteTTL time.Duration

	// Due-soon reminder worker tuning
	ReminderInterval    time.Duration
	ReminderLeadWindow  time.Duration
	ReminderMaxAttempts int
	ReminderBackoff     time.Duration

	// Microsoft To Do OAuth credentials (blank disables the integration)
	MSClientID     string
	MSClientSecret string
}
