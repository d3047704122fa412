package accounts_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/features/accounts"
	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	"github.com/dalemusser/taskflow/internal/app/system/auth"
	"github.com/dalemusser/taskflow/internal/app/system/indexes"
	"github.com/dalemusser/taskflow/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func newHandler(t *testing.T) (*accounts.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll error: %v", err)
	}
	if err := auth.InitSessionStore("", "", false, zap.NewNop()); err != nil {
		t.Fatalf("InitSessionStore error: %v", err)
	}
	return accounts.NewHandler(db, userstore.New(db), zap.NewNop()), db
}

func postJSON(path, body string) (*httptest.ResponseRecorder, *http.Request) {
	r := httptest.NewRequest("POST", path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return httptest.NewRecorder(), r
}

func TestRegister(t *testing.T) {
	h, _ := newHandler(t)

	rec, req := postJSON("/auth/register", `{"name":"Alice","email":"alice@example.com","password":"secret-pass"}`)
	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.ID == "" || resp.Name != "Alice" {
		t.Errorf("response = %+v", resp)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("registration did not set a session cookie")
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"a@example.com","password":"secret-pass"}`},
		{"bad email", `{"name":"A","email":"not-an-email","password":"secret-pass"}`},
		{"doubled dots in email", `{"name":"A","email":"a..b@example.com","password":"secret-pass"}`},
		{"short password", `{"name":"A","email":"a@example.com","password":"short"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, req := postJSON("/auth/register", tt.body)
			h.Register(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := newHandler(t)

	rec, req := postJSON("/auth/register", `{"name":"First","email":"dup@example.com","password":"secret-pass"}`)
	h.Register(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}

	rec, req = postJSON("/auth/register", `{"name":"Second","email":"DUP@example.com","password":"secret-pass"}`)
	h.Register(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	h, _ := newHandler(t)

	rec, req := postJSON("/auth/register", `{"name":"Bob","email":"bob@example.com","password":"secret-pass"}`)
	h.Register(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	t.Run("correct password", func(t *testing.T) {
		rec, req := postJSON("/auth/login", `{"email":"BOB@example.com","password":"secret-pass"}`)
		h.Login(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec, req := postJSON("/auth/login", `{"email":"bob@example.com","password":"wrong-pass"}`)
		h.Login(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("unknown email looks the same as wrong password", func(t *testing.T) {
		rec, req := postJSON("/auth/login", `{"email":"nobody@example.com","password":"secret-pass"}`)
		h.Login(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestLoginRateLimited(t *testing.T) {
	h, _ := newHandler(t)

	// The per-email window allows 5 attempts per 5 minutes; the sixth
	// is rejected before the password is even checked.
	var last int
	for i := 0; i < 6; i++ {
		rec, req := postJSON("/auth/login", `{"email":"target@example.com","password":"wrong"}`)
		h.Login(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("sixth attempt status = %d, want 429", last)
	}
}
