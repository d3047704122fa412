// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/waffle/pantry/query"

	notificationstore "github.com/dalemusser/taskflow/internal/app/store/notifications"
	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

const defaultListLimit = 50

// Handler serves the notification endpoints: listing, read receipts,
// and per-user delivery preferences.
type Handler struct {
	Notifications *notificationstore.Store
	Users         *userstore.Store
	Broadcaster   realtime.Broadcaster
	Log           *zap.Logger
}

func NewHandler(notifications *notificationstore.Store, users *userstore.Store, broadcaster realtime.Broadcaster, logger *zap.Logger) *Handler {
	if broadcaster == nil {
		broadcaster = realtime.NopBroadcaster{}
	}
	return &Handler{
		Notifications: notifications,
		Users:         users,
		Broadcaster:   broadcaster,
		Log:           logger,
	}
}

// List handles GET /notifications?unread_only=true&limit=N.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	unreadOnly := query.Get(r, "unread_only") == "true"
	limit := defaultListLimit
	if raw := query.Get(r, "limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Notifications.List(ctx, userID, unreadOnly, limit)
	if err != nil {
		h.Log.Error("notification list failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

// UnreadCount handles GET /notifications/unread_count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	count, err := h.Notifications.CountUnread(ctx, userID)
	if err != nil {
		h.Log.Error("unread count failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to count notifications")
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// MarkRead handles POST /notifications/{notificationID}/read. Marking
// a notification that belongs to someone else reports not found, same
// as one that does not exist.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "notificationID"))
	if err != nil {
		apiutil.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Notifications.MarkRead(ctx, id, userID)
	if err != nil {
		if err == notificationstore.ErrNotFound {
			apiutil.Error(w, http.StatusNotFound, "notification not found")
			return
		}
		h.Log.Error("mark read failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}

	h.Broadcaster.NotifyUser(userID, realtime.NotificationEvent{
		Type:           realtime.EventNotificationRead,
		UserID:         userID,
		NotificationID: &n.ID,
	})
	apiutil.WriteJSON(w, http.StatusOK, n)
}

// MarkAllRead handles POST /notifications/read_all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	updated, err := h.Notifications.MarkAllRead(ctx, userID)
	if err != nil {
		h.Log.Error("mark all read failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to mark notifications read")
		return
	}

	h.Broadcaster.NotifyUser(userID, realtime.NotificationEvent{
		Type:   realtime.EventNotificationReadAll,
		UserID: userID,
	})
	apiutil.WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// GetPreferences handles GET /notifications/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.ByID(ctx, userID)
	if err != nil {
		h.Log.Error("preferences fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, u.NotificationPreferences)
}

// UpdatePreferences handles PUT /notifications/preferences. The body
// replaces the whole preference document.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var prefs models.NotificationPreferences
	if err := apiutil.Decode(r, &prefs); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.UpdatePreferences(ctx, userID, prefs); err != nil {
		h.Log.Error("preferences update failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to update preferences")
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, prefs)
}

// Unsubscribe handles POST /notifications/unsubscribe: the one-click
// opt-out linked from reminder emails. It flips UnsubscribedAll and
// leaves the individual channel flags alone so a later resubscribe
// restores them.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.ByID(ctx, userID)
	if err != nil {
		h.Log.Error("unsubscribe fetch failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}
	prefs := u.NotificationPreferences
	prefs.UnsubscribedAll = true
	if err := h.Users.UpdatePreferences(ctx, userID, prefs); err != nil {
		h.Log.Error("unsubscribe update failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, prefs)
}
