package notifications_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/features/notifications"
	notificationstore "github.com/dalemusser/taskflow/internal/app/store/notifications"
	userstore "github.com/dalemusser/taskflow/internal/app/store/users"
	"github.com/dalemusser/taskflow/internal/domain/models"
	"github.com/dalemusser/taskflow/internal/testutil"
)

func setup(t *testing.T) (*notifications.Handler, *notificationstore.Store, *userstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ns := notificationstore.New(db)
	us := userstore.New(db)
	h := notifications.NewHandler(ns, us, nil, zap.NewNop())
	return h, ns, us, testutil.NewFixtures(t, db)
}

func seedNotification(t *testing.T, ns *notificationstore.Store, u models.User, title string) *models.Notification {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n := &models.Notification{
		UserID:  u.ID,
		Type:    models.NotificationDueSoon,
		Title:   title,
		Message: "due soon",
	}
	if err := ns.Insert(ctx, n); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	return n
}

func TestListAndMarkRead(t *testing.T) {
	h, ns, _, f := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := f.CreateUser(ctx, "Alice", "alice@example.com")
	n := seedNotification(t, ns, u, "first")
	seedNotification(t, ns, u, "second")

	req := testutil.AsUser(httptest.NewRequest("GET", "/notifications", nil), u)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", rec.Code, rec.Body.String())
	}
	var list struct {
		Notifications []json.RawMessage `json:"notifications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad list body: %v", err)
	}
	if len(list.Notifications) != 2 {
		t.Errorf("list size = %d, want 2", len(list.Notifications))
	}

	req = testutil.AsUser(httptest.NewRequest("POST", "/notifications/"+n.ID.Hex()+"/read", nil), u)
	req = testutil.WithChiURLParam(req, "notificationID", n.ID.Hex())
	rec = httptest.NewRecorder()
	h.MarkRead(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read status = %d: %s", rec.Code, rec.Body.String())
	}

	req = testutil.AsUser(httptest.NewRequest("GET", "/notifications?unread_only=true", nil), u)
	rec = httptest.NewRecorder()
	h.List(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad list body: %v", err)
	}
	if len(list.Notifications) != 1 {
		t.Errorf("unread list size = %d, want 1", len(list.Notifications))
	}
}

func TestMarkReadOtherUsers(t *testing.T) {
	h, ns, _, f := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	intruder := f.CreateUser(ctx, "Intruder", "intruder@example.com")
	n := seedNotification(t, ns, owner, "mine")

	req := testutil.AsUser(httptest.NewRequest("POST", "/notifications/"+n.ID.Hex()+"/read", nil), intruder)
	req = testutil.WithChiURLParam(req, "notificationID", n.ID.Hex())
	rec := httptest.NewRecorder()
	h.MarkRead(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUnreadCount(t *testing.T) {
	h, ns, _, f := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := f.CreateUser(ctx, "Alice", "alice@example.com")
	seedNotification(t, ns, u, "a")
	seedNotification(t, ns, u, "b")

	req := testutil.AsUser(httptest.NewRequest("GET", "/notifications/unread_count", nil), u)
	rec := httptest.NewRecorder()
	h.UnreadCount(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
}

func TestPreferences(t *testing.T) {
	h, _, us, f := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := f.CreateUser(ctx, "Alice", "alice@example.com")

	req := testutil.AsUser(httptest.NewRequest("PUT", "/notifications/preferences",
		strings.NewReader(`{"inAppDueSoon":true,"emailDueSoon":false,"unsubscribedAll":false}`)), u)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.UpdatePreferences(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	stored, err := us.ByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("ByID error: %v", err)
	}
	if stored.NotificationPreferences.EmailDueSoon {
		t.Error("emailDueSoon should be off after update")
	}

	// Unsubscribe flips the master switch without touching the
	// individual channel flags.
	req = testutil.AsUser(httptest.NewRequest("POST", "/notifications/unsubscribe", nil), u)
	rec = httptest.NewRecorder()
	h.Unsubscribe(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unsubscribe status = %d", rec.Code)
	}
	stored, err = us.ByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("ByID error: %v", err)
	}
	if !stored.NotificationPreferences.UnsubscribedAll {
		t.Error("unsubscribedAll should be set")
	}
	if !stored.NotificationPreferences.InAppDueSoon {
		t.Error("unsubscribe should not rewrite the channel flags")
	}
}
