// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	notificationstore "github.com/dalemusser/taskflow/internal/app/store/notifications"
	taskstore "github.com/dalemusser/taskflow/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	"github.com/dalemusser/taskflow/internal/app/system/auth"
	"github.com/dalemusser/taskflow/internal/app/system/mailer"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/app/system/workers"
)

// Long-lived components created at startup and torn down in Shutdown.
// BuildHandler wires them into the feature handlers.
var (
	hub            *realtime.Hub
	reminderWorker *workers.ReminderWorker
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// It initializes the session store, starts the realtime hub, and starts
// the due-soon reminder worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		return err
	}

	hub = realtime.NewHub(logger)

	var sender mailer.Sender
	if appCfg.MailSMTPHost != "" {
		sender = mailer.NewSMTPSender(
			appCfg.MailSMTPHost, appCfg.MailSMTPPort,
			appCfg.MailSMTPUser, appCfg.MailSMTPPass,
			appCfg.MailFrom, logger)
	} else {
		logger.Warn("no SMTP host configured; reminder email disabled")
	}

	reminderWorker = workers.NewReminderWorker(
		taskstore.New(deps.MongoDatabase),
		notificationstore.New(deps.MongoDatabase),
		userstore.New(deps.MongoDatabase),
		sender,
		hub,
		logger,
		workers.ReminderConfig{
			Interval:    appCfg.ReminderInterval,
			LeadWindow:  appCfg.ReminderLeadWindow,
			MaxAttempts: appCfg.ReminderMaxAttempts,
			Backoff:     appCfg.ReminderBackoff,
			SiteName:    appCfg.SiteName,
		})
	reminderWorker.Start()

	return nil
}
