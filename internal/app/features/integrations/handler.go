// internal/app/features/integrations/handler.go
package integrations

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	integrationstore "github.com/dalemusser/taskflow/internal/app/store/integrations"
	taskstore "github.com/dalemusser/taskflow/internal/app/store/tasks"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

const stateTTL = 10 * time.Minute

// Handler links user accounts to Microsoft To Do and imports tasks
// from it.
type Handler struct {
	DB           *mongo.Database
	Integrations *integrationstore.Store
	Tasks        *taskstore.Store
	Broadcaster  realtime.Broadcaster
	Log          *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewHandler(db *mongo.Database, broadcaster realtime.Broadcaster, clientID, clientSecret, baseURL string, logger *zap.Logger) *Handler {
	if broadcaster == nil {
		broadcaster = realtime.NopBroadcaster{}
	}
	return &Handler{
		DB:           db,
		Integrations: integrationstore.New(db),
		Tasks:        taskstore.New(db),
		Broadcaster:  broadcaster,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/integrations/microsoft/callback",
	}
}

// IsConfigured reports whether the Microsoft OAuth credentials are set.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"Tasks.Read",
			"offline_access",
		},
		Endpoint: microsoft.AzureADEndpoint("common"),
	}
}

// Connect handles POST /integrations/microsoft/connect. It returns the
// consent URL instead of redirecting, so API clients can open it
// themselves.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !h.IsConfigured() {
		apiutil.Error(w, http.StatusServiceUnavailable, "Microsoft To Do integration is not configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("state generation failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to start connection")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(stateTTL)
	if err := h.Integrations.SaveState(ctx, state, userID, expiresAt); err != nil {
		h.Log.Error("state save failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to start connection")
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"authUrl": url})
}

// Callback handles GET /integrations/microsoft/callback: the redirect
// back from the Microsoft consent screen. The state ties the callback
// to the user who initiated it, so this endpoint needs no session.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Microsoft OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		apiutil.Error(w, http.StatusBadRequest, "Microsoft authorization was denied")
		return
	}
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		apiutil.Error(w, http.StatusBadRequest, "missing state or code parameter")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID, valid, err := h.Integrations.ConsumeState(ctx, state)
	if err != nil {
		h.Log.Error("state validation failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to complete connection")
		return
	}
	if !valid {
		apiutil.Error(w, http.StatusBadRequest, "invalid or expired state")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("code exchange failed", zap.Error(err))
		apiutil.Error(w, http.StatusBadGateway, "token exchange with Microsoft failed")
		return
	}

	if err := h.Integrations.SaveConnection(ctx, userID, models.SourceMicrosoftTodo, token); err != nil {
		h.Log.Error("connection save failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to save connection")
		return
	}

	h.Log.Info("Microsoft To Do connected", zap.String("user_id", userID.Hex()))
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

// Status handles GET /integrations/microsoft.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	conn, err := h.Integrations.Connection(ctx, userID, models.SourceMicrosoftTodo)
	if err != nil {
		if err == integrationstore.ErrNotFound {
			apiutil.WriteJSON(w, http.StatusOK, map[string]any{"connected": false})
			return
		}
		h.Log.Error("connection lookup failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to load connection")
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"connected":   true,
		"connectedAt": conn.CreatedAt,
	})
}

// Disconnect handles DELETE /integrations/microsoft. Imported tasks
// stay; only the token link is removed.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Integrations.DeleteConnection(ctx, userID, models.SourceMicrosoftTodo); err != nil {
		if err == integrationstore.ErrNotFound {
			apiutil.Error(w, http.StatusNotFound, "Microsoft To Do is not connected")
			return
		}
		h.Log.Error("connection delete failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to disconnect")
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

// connectionClient builds an HTTP client for the user's stored token,
// refreshing it as needed and persisting the refreshed token.
func (h *Handler) connectionClient(ctx context.Context, userID primitive.ObjectID) (*http.Client, bool, error) {
	conn, err := h.Integrations.Connection(ctx, userID, models.SourceMicrosoftTodo)
	if err != nil {
		if err == integrationstore.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	ts := h.oauth2Config().TokenSource(ctx, conn.Token())
	tok, err := ts.Token()
	if err != nil {
		return nil, false, err
	}
	if tok.AccessToken != conn.AccessToken {
		if err := h.Integrations.SaveConnection(ctx, userID, models.SourceMicrosoftTodo, tok); err != nil {
			h.Log.Warn("refreshed token save failed", zap.Error(err))
		}
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok)), true, nil
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
