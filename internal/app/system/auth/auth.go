package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/system/apiutil"
)

const (
	SessionName = "taskflow-session"

	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
	userEmail = "user_email"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

// SessionUser is what we cache in the session & inject into r.Context().
// Workspace and project roles are not cached here; they live in the
// membership collections and are resolved per request.
type SessionUser struct {
	ID    primitive.ObjectID
	Name  string
	Email string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadSessionUser injects the user into context if they are logged in.
// If the session store has not been initialized yet, it is a no-op.
func LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Store == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, _ := Store.Get(r, SessionName)

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			id, err := primitive.ObjectIDFromHex(getString(sess, userIDKey))
			if err == nil {
				r = withUser(r, &SessionUser{
					ID:    id,
					Name:  getString(sess, userName),
					Email: getString(sess, userEmail),
				})
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by
// LoadSessionUser). All callers are API clients, so the failure mode
// is a JSON 401 rather than a login redirect.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		apiutil.Error(w, http.StatusUnauthorized, "authentication required")
	})
}

// SignIn establishes the session cookie for the user.
func SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID.Hex()
	sess.Values[userName] = u.Name
	sess.Values[userEmail] = u.Email
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func SignOut(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// InitSessionStore initializes the global session Store using the provided
// session key and domain. An empty key gets an ephemeral random key, which
// invalidates all sessions on restart; set a real key in production. The
// `secure` flag controls whether cookies are marked Secure and which
// SameSite mode is used.
func InitSessionStore(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	key := []byte(sessionKey)
	if sessionKey == "" {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return fmt.Errorf("generate session key: no randomness available")
		}
		logger.Warn("session key is empty; using an ephemeral key, sessions will not survive restarts")
	} else if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore(key)
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}

	store.Options = opts
	Store = store

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return nil
}

// WithTestUser returns a copy of r whose context carries the given
// user, bypassing the cookie store. Handler tests use it instead of
// running the full sign-in flow.
func WithTestUser(r *http.Request, id primitive.ObjectID, name, email string) *http.Request {
	return withUser(r, &SessionUser{ID: id, Name: name, Email: email})
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
