// internal/app/features/events/handler.go
package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/waffle/pantry/query"

	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/authz"
	"github.com/dalemusser/taskflow/internal/app/system/realtime"
)

const heartbeatInterval = 25 * time.Second

// Handler serves the server-sent event stream and its subscription
// endpoints.
type Handler struct {
	Hub *realtime.Hub
	Log *zap.Logger
}

func NewHandler(hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{Hub: hub, Log: logger}
}

// Stream handles GET /events/stream. The first frame is a "connected"
// event carrying the connection id; subscription changes reference it.
// Heartbeat comments keep intermediaries from closing the idle stream.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		apiutil.Error(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	conn := h.Hub.Register(userID)
	defer h.Hub.Unregister(conn)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Initial subscriptions can come in on the query string so a
	// client narrowing to one task needs no second request.
	if raw := query.Get(r, "tasks"); raw != "" {
		for _, hex := range strings.Split(raw, ",") {
			if id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex)); err == nil {
				conn.Subscribe(id)
			}
		}
	}

	writeFrame(w, "connected", map[string]any{"connectionId": conn.ID()})
	flusher.Flush()

	h.Log.Debug("event stream opened",
		zap.String("user_id", userID.Hex()),
		zap.Uint64("conn_id", conn.ID()))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case env, open := <-conn.Events():
			if !open {
				return
			}
			writeFrame(w, env.Event, env.Data)
			flusher.Flush()
		}
	}
}

// Subscribe handles POST /events/subscriptions/{taskID}?conn=N.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, taskID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	conn.Subscribe(taskID)
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "subscribed"})
}

// Unsubscribe handles DELETE /events/subscriptions/{taskID}?conn=N.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	conn, taskID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	conn.Unsubscribe(taskID)
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// resolve locates the caller's connection and the task parameter,
// writing the error response on failure.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*realtime.Conn, primitive.ObjectID, bool) {
	userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return nil, primitive.NilObjectID, false
	}
	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		apiutil.Error(w, http.StatusBadRequest, "invalid task id")
		return nil, primitive.NilObjectID, false
	}
	connID, err := strconv.ParseUint(query.Get(r, "conn"), 10, 64)
	if err != nil {
		apiutil.Error(w, http.StatusBadRequest, "conn query parameter is required")
		return nil, primitive.NilObjectID, false
	}
	conn, ok := h.Hub.ConnFor(userID, connID)
	if !ok {
		apiutil.Error(w, http.StatusNotFound, "connection not found")
		return nil, primitive.NilObjectID, false
	}
	return conn, taskID, true
}

func writeFrame(w http.ResponseWriter, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}
