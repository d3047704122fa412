// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	accountsfeature "github.com/dalemusser/taskflow/internal/app/features/accounts"
	analyticsfeature "github.com/dalemusser/taskflow/internal/app/features/analytics"
	eventsfeature "github.com/dalemusser/taskflow/internal/app/features/events"
	healthfeature "github.com/dalemusser/taskflow/internal/app/features/health"
	integrationsfeature "github.com/dalemusser/taskflow/internal/app/features/integrations"
	notificationsfeature "github.com/dalemusser/taskflow/internal/app/features/notifications"
	projectsfeature "github.com/dalemusser/taskflow/internal/app/features/projects"
	tasksfeature "github.com/dalemusser/taskflow/internal/app/features/tasks"
	workspacesfeature "github.com/dalemusser/taskflow/internal/app/features/workspaces"
	activitystore "github.com/dalemusser/taskflow/internal/app/store/activity"
	notificationstore "github.com/dalemusser/taskflow/internal/app/store/notifications"
	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	"github.com/dalemusser/taskflow/internal/app/system/activitylog"
	"github.com/dalemusser/taskflow/internal/app/system/auth"
)

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed, so the session store, realtime
// hub, and reminder worker already exist. This function wires the
// feature routers together around them.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	activity := activitylog.New(activitystore.New(db), logger)

	r := chi.NewRouter()

	// Global auth middleware: loads the session user into context so
	// handlers can read it via authz.UserCtx.
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Accounts and sessions.
	accountsHandler := accountsfeature.NewHandler(db, userstore.New(db), logger)
	r.Mount("/auth", accountsfeature.Routes(accountsHandler))

	// Containers.
	workspacesHandler := workspacesfeature.NewHandler(db, activity, logger, appCfg.InviteTTL)
	r.Mount("/workspaces", workspacesfeature.Routes(workspacesHandler))

	projectsHandler := projectsfeature.NewHandler(db, activity, logger)
	r.Mount("/projects", projectsfeature.Routes(projectsHandler))

	// Tasks and everything hanging off them.
	tasksHandler := tasksfeature.NewHandler(db, activity, hub, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler))

	// Notifications and preferences.
	notificationsHandler := notificationsfeature.NewHandler(
		notificationstore.New(db), userstore.New(db), hub, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))

	// Analytics over the requester's visible tasks.
	analyticsHandler := analyticsfeature.NewHandler(db, logger)
	r.Mount("/analytics", analyticsfeature.Routes(analyticsHandler))

	// Microsoft To Do import.
	integrationsHandler := integrationsfeature.NewHandler(
		db, hub, appCfg.MSClientID, appCfg.MSClientSecret, appCfg.BaseURL, logger)
	r.Mount("/integrations", integrationsfeature.Routes(integrationsHandler))

	// Realtime event stream.
	eventsHandler := eventsfeature.NewHandler(hub, logger)
	r.Mount("/events", eventsfeature.Routes(eventsHandler))

	return r, nil
}
