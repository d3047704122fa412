// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
	"github.com/dalemusser/taskflow/internal/app/system/auth"
	"github.com/dalemusser/taskflow/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskflow/internal/app/system/inputval"
	"github.com/dalemusser/taskflow/internal/app/system/ratelimit"
	"github.com/dalemusser/taskflow/internal/app/system/timeouts"
	"github.com/dalemusser/taskflow/internal/domain/models"
)

// Handler serves registration, login and session endpoints.
type Handler struct {
	DB      *mongo.Database
	Users   *userstore.Store
	Limiter *ratelimit.LoginLimiter
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Users: users, Limiter: ratelimit.NewLoginLimiter(), Log: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(htmlsanitize.StripTags(req.Name))
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || !inputval.IsValidEmail(req.Email) {
		apiutil.Error(w, http.StatusBadRequest, "name and a valid email are required")
		return
	}
	if len(req.Password) < 8 {
		apiutil.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u := &models.User{
		Name:                    req.Name,
		Email:                   req.Email,
		PasswordHash:            string(hash),
		NotificationPreferences: models.DefaultNotificationPreferences(),
	}
	if err := h.Users.Create(ctx, u); err != nil {
		if err == userstore.ErrDuplicateEmail {
			apiutil.Error(w, http.StatusConflict, "email is already registered")
			return
		}
		h.Log.Error("user create failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	if err := auth.SignIn(w, r, &auth.SessionUser{ID: u.ID, Name: u.Name, Email: u.Email}); err != nil {
		h.Log.Error("session create failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}
	apiutil.WriteJSON(w, http.StatusCreated, userResponse{ID: u.ID.Hex(), Name: u.Name, Email: u.Email})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apiutil.Decode(r, &req); err != nil {
		apiutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if ok, reason := h.Limiter.Check(r, req.Email); !ok {
		apiutil.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.ByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if err == userstore.ErrNotFound {
			// Same response as a bad password; do not reveal which one it was.
			apiutil.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("login lookup failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		apiutil.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := auth.SignIn(w, r, &auth.SessionUser{ID: u.ID, Name: u.Name, Email: u.Email}); err != nil {
		h.Log.Error("session create failed", zap.Error(err))
		apiutil.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	h.Limiter.ResetEmail(req.Email)
	apiutil.WriteJSON(w, http.StatusOK, userResponse{ID: u.ID.Hex(), Name: u.Name, Email: u.Email})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := auth.SignOut(w, r); err != nil {
		h.Log.Error("session clear failed", zap.Error(err))
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, userResponse{ID: u.ID.Hex(), Name: u.Name, Email: u.Email})
}
