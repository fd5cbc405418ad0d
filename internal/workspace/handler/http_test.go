package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	membershiprepo "teamhub/backend/internal/membership/repository"
	roledomain "teamhub/backend/internal/role/domain"
	rolerepo "teamhub/backend/internal/role/repository"
	"teamhub/backend/internal/testenv"
	userrepo "teamhub/backend/internal/user/repository"
	workspacerepo "teamhub/backend/internal/workspace/repository"
	"teamhub/backend/internal/workspace/service"
)

func newRouter(env *testenv.Env) http.Handler {
	sess := env.Session()
	svc := service.NewService(service.Deps{
		Creator:    env.Workflow,
		Runner:     env.Coordinator,
		Authz:      env.Authz,
		Workspaces: workspacerepo.New(sess),
		Members:    membershiprepo.New(sess),
		Roles:      rolerepo.New(sess),
		Users:      userrepo.New(sess),
	})
	r := chi.NewRouter()
	r.Use(testenv.Identity)
	New(svc).Register(r)
	return r
}

func call(t *testing.T, h http.Handler, userID, method, target, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(testenv.UserHeader, userID)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestCreateListGet(t *testing.T) {
	env := testenv.New(t)
	r := newRouter(env)
	ana, _ := env.Register(t, "Ana", "ana@x.com")

	code, body := call(t, r, ana, http.MethodPost, "/workspaces", `{"name":"Acme","description":"team"}`)
	require.Equal(t, http.StatusCreated, code)
	ws := body["workspace"].(map[string]any)
	assert.Equal(t, "Acme", ws["name"])
	wsID := ws["id"].(string)

	code, body = call(t, r, ana, http.MethodGet, "/workspaces", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["workspaces"], 2)

	code, body = call(t, r, ana, http.MethodGet, "/workspaces/"+wsID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, wsID, body["workspace"].(map[string]any)["id"])

	code, body = call(t, r, ana, http.MethodPost, "/workspaces", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "BAD_REQUEST", body["errorCode"])
}

func TestGet_NonMemberForbidden(t *testing.T) {
	env := testenv.New(t)
	r := newRouter(env)
	_, wsID := env.Register(t, "Ana", "ana@x.com")
	bob, _ := env.Register(t, "Bob", "bob@x.com")

	code, body := call(t, r, bob, http.MethodGet, "/workspaces/"+wsID, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "You are not a member of this workspace", body["message"])
}

func TestJoinAndMembers(t *testing.T) {
	env := testenv.New(t)
	r := newRouter(env)
	ana, wsID := env.Register(t, "Ana", "ana@x.com")
	bob, _ := env.Register(t, "Bob", "bob@x.com")
	ws, err := workspacerepo.New(env.Session()).GetByID(testenv.As(ana), wsID)
	require.NoError(t, err)

	code, body := call(t, r, bob, http.MethodPost, "/workspaces/join/"+ws.InviteCode, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, wsID, body["workspaceId"])
	assert.Equal(t, string(roledomain.Member), body["role"])

	code, _ = call(t, r, bob, http.MethodPost, "/workspaces/join/"+ws.InviteCode, "")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = call(t, r, bob, http.MethodPost, "/workspaces/join/bogus", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = call(t, r, bob, http.MethodGet, "/workspaces/"+wsID+"/members", "")
	require.Equal(t, http.StatusOK, code)
	members := body["members"].([]any)
	require.Len(t, members, 2)
	for _, m := range members {
		user := m.(map[string]any)["user"].(map[string]any)
		assert.NotContains(t, user, "password_hash")
	}
}

func TestChangeRole(t *testing.T) {
	env := testenv.New(t)
	r := newRouter(env)
	ana, wsID := env.Register(t, "Ana", "ana@x.com")
	bob, _ := env.Register(t, "Bob", "bob@x.com")
	env.AddMember(t, bob, wsID, roledomain.Member)
	admin := env.Role(t, roledomain.Admin)
	owner := env.Role(t, roledomain.Owner)

	code, _ := call(t, r, bob, http.MethodPut, "/workspaces/"+wsID+"/members/"+ana+"/role", `{"roleId":"`+admin.ID+`"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, r, ana, http.MethodPut, "/workspaces/"+wsID+"/members/"+bob+"/role", `{"roleId":"`+owner.ID+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := call(t, r, ana, http.MethodPut, "/workspaces/"+wsID+"/members/"+bob+"/role", `{"roleId":"`+admin.ID+`"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, admin.ID, body["member"].(map[string]any)["role_id"])
}

func TestDelete(t *testing.T) {
	env := testenv.New(t)
	r := newRouter(env)
	ana, wsID := env.Register(t, "Ana", "ana@x.com")

	code, body := call(t, r, ana, http.MethodDelete, "/workspaces/"+wsID, "")
	require.Equal(t, http.StatusOK, code, body)
	code, _ = call(t, r, ana, http.MethodGet, "/workspaces/"+wsID, "")
	assert.Equal(t, http.StatusForbidden, code)
}
