package workspaces_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/taskflow/internal/app/features/workspaces"
	"github.com/dalemusser/taskflow/internal/app/system/activitylog"
	"github.com/dalemusser/taskflow/internal/domain/models"
	"github.com/dalemusser/taskflow/internal/testutil"
)

func newHandler(t *testing.T) (*workspaces.Handler, *mongo.Database, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := workspaces.NewHandler(db, activitylog.NewNop(), zap.NewNop(), 168*time.Hour)
	return h, db, testutil.NewFixtures(t, db)
}

func jsonRequest(method, path, body string) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestCreateWorkspace(t *testing.T) {
	h, db, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := f.CreateUser(ctx, "Alice", "alice@example.com")

	req := testutil.AsUser(jsonRequest("POST", "/workspaces", `{"name":"  <b>Team</b>  "}`), u)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Name != "Team" {
		t.Errorf("name = %q, markup and padding should be stripped", body.Name)
	}
	if body.Role != string(models.RoleOwner) {
		t.Errorf("role = %q, creator should be owner", body.Role)
	}

	// Creation also wrote the owner membership row.
	n, err := db.Collection("workspace_members").CountDocuments(ctx, bson.M{"user_id": u.ID})
	if err != nil {
		t.Fatalf("count error: %v", err)
	}
	if n != 1 {
		t.Errorf("membership rows = %d, want 1", n)
	}
}

func TestCreateInviteRequiresAdmin(t *testing.T) {
	h, _, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	member := f.CreateUser(ctx, "Member", "member@example.com")
	ws := f.CreateWorkspace(ctx, "Team", owner.ID)
	f.AddWorkspaceMember(ctx, ws.ID, member.ID, models.RoleMember)

	invite := func(u models.User) *httptest.ResponseRecorder {
		req := testutil.AsUser(jsonRequest("POST", "/workspaces/"+ws.ID.Hex()+"/invites",
			`{"email":"new@example.com","role":"member"}`), u)
		req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
		rec := httptest.NewRecorder()
		h.CreateInvite(rec, req)
		return rec
	}

	if rec := invite(member); rec.Code != http.StatusForbidden {
		t.Errorf("member invite status = %d, want 403", rec.Code)
	}
	if rec := invite(owner); rec.Code != http.StatusCreated {
		t.Errorf("owner invite status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateInviteValidation(t *testing.T) {
	h, _, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	ws := f.CreateWorkspace(ctx, "Team", owner.ID)

	tests := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"not-an-email","role":"member"}`},
		{"owner role not grantable", `{"email":"a@example.com","role":"owner"}`},
		{"unknown role", `{"email":"a@example.com","role":"boss"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AsUser(jsonRequest("POST", "/workspaces/"+ws.ID.Hex()+"/invites", tt.body), owner)
			req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
			rec := httptest.NewRecorder()
			h.CreateInvite(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAcceptInvite(t *testing.T) {
	h, _, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	invitee := f.CreateUser(ctx, "Invitee", "invitee@example.com")
	ws := f.CreateWorkspace(ctx, "Team", owner.ID)

	inv, err := h.Invites.UpsertPending(ctx, ws.ID, "invitee@example.com", models.RoleMember, owner.ID, time.Hour)
	if err != nil {
		t.Fatalf("UpsertPending error: %v", err)
	}

	req := testutil.AsUser(jsonRequest("POST", "/workspaces/invites/accept",
		fmt.Sprintf(`{"token":%q}`, inv.Token)), invitee)
	rec := httptest.NewRecorder()
	h.AcceptInvite(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Role != string(models.RoleMember) {
		t.Errorf("role = %q, want member", body.Role)
	}

	// The invite is spent; accepting again reports it gone.
	rec = httptest.NewRecorder()
	req = testutil.AsUser(jsonRequest("POST", "/workspaces/invites/accept",
		fmt.Sprintf(`{"token":%q}`, inv.Token)), invitee)
	h.AcceptInvite(rec, req)
	if rec.Code != http.StatusGone {
		t.Errorf("second accept status = %d, want 410", rec.Code)
	}
}

func TestAcceptInviteWrongEmail(t *testing.T) {
	h, _, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	other := f.CreateUser(ctx, "Other", "other@example.com")
	ws := f.CreateWorkspace(ctx, "Team", owner.ID)

	inv, err := h.Invites.UpsertPending(ctx, ws.ID, "invitee@example.com", models.RoleMember, owner.ID, time.Hour)
	if err != nil {
		t.Fatalf("UpsertPending error: %v", err)
	}

	req := testutil.AsUser(jsonRequest("POST", "/workspaces/invites/accept",
		fmt.Sprintf(`{"token":%q}`, inv.Token)), other)
	rec := httptest.NewRecorder()
	h.AcceptInvite(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestAcceptInviteExpired(t *testing.T) {
	h, _, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	invitee := f.CreateUser(ctx, "Invitee", "invitee@example.com")
	ws := f.CreateWorkspace(ctx, "Team", owner.ID)

	inv, err := h.Invites.UpsertPending(ctx, ws.ID, "invitee@example.com", models.RoleMember, owner.ID, -time.Minute)
	if err != nil {
		t.Fatalf("UpsertPending error: %v", err)
	}

	req := testutil.AsUser(jsonRequest("POST", "/workspaces/invites/accept",
		fmt.Sprintf(`{"token":%q}`, inv.Token)), invitee)
	rec := httptest.NewRecorder()
	h.AcceptInvite(rec, req)
	if rec.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", rec.Code)
	}

	// The lazy expiry pass also flipped the stored status.
	got, err := h.Invites.ByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("ByID error: %v", err)
	}
	if got.Status != models.InviteExpired {
		t.Errorf("stored status = %q, want expired", got.Status)
	}
}

func TestUpdateMemberRole(t *testing.T) {
	h, _, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Owner", "owner@example.com")
	member := f.CreateUser(ctx, "Member", "member@example.com")
	ws := f.CreateWorkspace(ctx, "Team", owner.ID)
	f.AddWorkspaceMember(ctx, ws.ID, member.ID, models.RoleMember)

	req := testutil.AsUser(jsonRequest("PATCH",
		"/workspaces/"+ws.ID.Hex()+"/members/"+member.ID.Hex(), `{"role":"admin"}`), owner)
	req = testutil.WithChiURLParam(req, "workspaceID", ws.ID.Hex())
	req = testutil.WithChiURLParam(req, "userID", member.ID.Hex())
	rec := httptest.NewRecorder()
	h.UpdateMemberRole(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	m, err := h.Members.Get(ctx, ws.ID, member.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if m.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", m.Role)
	}
}
