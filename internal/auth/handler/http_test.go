package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountdomain "teamhub/backend/internal/account/domain"
	"teamhub/backend/internal/apperror"
	"teamhub/backend/internal/auth/service"
	"teamhub/backend/internal/oauth"
	"teamhub/backend/internal/provisioning"
	"teamhub/backend/internal/security"
	"teamhub/backend/internal/server/middleware"
	userdomain "teamhub/backend/internal/user/domain"
)

type fakeAuth struct {
	registerErr error
	registered  provisioning.RegisterInput
	loginErr    error
	social      provisioning.SocialProfile
	socialErr   error
	loggedOut   *security.AccessClaims
}

func (f *fakeAuth) Register(_ context.Context, in provisioning.RegisterInput) (*provisioning.RegisterResult, error) {
	f.registered = in
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &provisioning.RegisterResult{UserID: "u1", WorkspaceID: "ws1"}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (*service.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &service.Session{
		User:        &userdomain.User{ID: "u1", Email: email, CurrentWorkspace: "ws1"},
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuth) SocialLogin(_ context.Context, p provisioning.SocialProfile) (*service.Session, error) {
	f.social = p
	if f.socialErr != nil {
		return nil, f.socialErr
	}
	return &service.Session{
		User:        &userdomain.User{ID: "u2", CurrentWorkspace: "ws 2"},
		AccessToken: "social-tok",
		ExpiresAt:   time.Now().Add(time.Hour),
		IsNew:       true,
	}, nil
}

func (f *fakeAuth) Logout(_ context.Context, claims *security.AccessClaims) error {
	f.loggedOut = claims
	return nil
}

func (f *fakeAuth) CurrentUser(_ context.Context, userID string) (*userdomain.User, error) {
	if userID != "u1" {
		return nil, service.ErrUserNotFound
	}
	return &userdomain.User{ID: "u1", Name: "Ana"}, nil
}

type fakeGoogle struct {
	exchangeErr error
}

func (fakeGoogle) AuthURL(context.Context) (string, error) {
	return "https://accounts.example.com/auth?state=s1", nil
}

func (g fakeGoogle) Exchange(_ context.Context, state, _ string) (*oauth.Profile, error) {
	if g.exchangeErr != nil {
		return nil, g.exchangeErr
	}
	if state != "s1" {
		return nil, oauth.ErrInvalidState
	}
	return &oauth.Profile{Subject: "g-1", Name: "Gia", Email: "gia@x.com"}, nil
}

var testOpts = Options{
	CookieName:     "session",
	FrontendOrigin: "http://app.local/",
	FailureURL:     "http://app.local/google/oauth/callback",
}

func newRouter(h *Handler, claims *security.AccessClaims) http.Handler {
	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if claims != nil {
					req = req.WithContext(middleware.WithClaims(req.Context(), claims))
				}
				next.ServeHTTP(w, req)
			})
		})
		h.RegisterProtected(r)
	})
	return r
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegister(t *testing.T) {
	svc := &fakeAuth{}
	r := newRouter(New(svc, nil, testOpts), nil)

	rec := do(r, http.MethodPost, "/auth/register", `{"name":"Ana","email":"ana@x.com","password":"password123"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User created successfully", decode(t, rec)["message"])
	assert.Equal(t, "ana@x.com", svc.registered.Email)

	svc.registerErr = provisioning.ErrEmailExists
	rec = do(r, http.MethodPost, "/auth/register", `{"name":"Ana","email":"ana@x.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(apperror.KindConflict), decode(t, rec)["errorCode"])

	rec = do(r, http.MethodPost, "/auth/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	svc := &fakeAuth{}
	r := newRouter(New(svc, nil, testOpts), nil)

	rec := do(r, http.MethodPost, "/auth/login", `{"email":"ana@x.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "tok", body["access_token"])
	assert.NotNil(t, body["user"])
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	svc.loginErr = service.ErrInvalidCredentials
	rec = do(r, http.MethodPost, "/auth/login", `{"email":"ana@x.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decode(t, rec)["message"])
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogout_ClearsCookie(t *testing.T) {
	svc := &fakeAuth{}
	claims := &security.AccessClaims{}
	claims.Subject = "u1"
	claims.ID = "jti-1"
	r := newRouter(New(svc, nil, testOpts), claims)

	rec := do(r, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.loggedOut)
	assert.Equal(t, "jti-1", svc.loggedOut.ID)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestCurrentUser(t *testing.T) {
	claims := &security.AccessClaims{}
	claims.Subject = "u1"
	rec := do(newRouter(New(&fakeAuth{}, nil, testOpts), claims), http.MethodGet, "/user/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "Ana", user["name"])

	claims.Subject = "ghost"
	rec = do(newRouter(New(&fakeAuth{}, nil, testOpts), claims), http.MethodGet, "/user/current", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoogleRoutes_DisabledWithoutProvider(t *testing.T) {
	rec := do(newRouter(New(&fakeAuth{}, nil, testOpts), nil), http.MethodGet, "/auth/google", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoogleStart_Redirects(t *testing.T) {
	rec := do(newRouter(New(&fakeAuth{}, fakeGoogle{}, testOpts), nil), http.MethodGet, "/auth/google", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://accounts.example.com/auth?state=s1", rec.Header().Get("Location"))
}

func TestGoogleCallback_Success(t *testing.T) {
	svc := &fakeAuth{}
	rec := do(newRouter(New(svc, fakeGoogle{}, testOpts), nil), http.MethodGet, "/auth/google/callback?state=s1&code=c", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://app.local/workspace/ws%202", rec.Header().Get("Location"))
	assert.Equal(t, accountdomain.ProviderGoogle, svc.social.Provider)
	assert.Equal(t, "g-1", svc.social.ProviderID)
	assert.Equal(t, "Gia", svc.social.DisplayName)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "social-tok", cookies[0].Value)
}

func TestGoogleCallback_Failures(t *testing.T) {
	tests := []struct {
		name   string
		google fakeGoogle
		svcErr error
		query  string
	}{
		{"provider error", fakeGoogle{}, nil, "?error=access_denied"},
		{"bad state", fakeGoogle{}, nil, "?state=other&code=c"},
		{"exchange failure", fakeGoogle{exchangeErr: errors.New("boom")}, nil, "?state=s1&code=c"},
		{"provisioning failure", fakeGoogle{}, provisioning.ErrEmailExists, "?state=s1&code=c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuth{socialErr: tt.svcErr}
			rec := do(newRouter(New(svc, tt.google, testOpts), nil), http.MethodGet, "/auth/google/callback"+tt.query, "")
			require.Equal(t, http.StatusFound, rec.Code)
			loc, err := url.Parse(rec.Header().Get("Location"))
			require.NoError(t, err)
			assert.Equal(t, "/google/oauth/callback", loc.Path)
			assert.Equal(t, "failure", loc.Query().Get("status"))
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}
