// Package handler exposes sign-up, sign-in and session endpoints over HTTP.
package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	accountdomain "teamhub/backend/internal/account/domain"
	"teamhub/backend/internal/auth/service"
	"teamhub/backend/internal/logger"
	"teamhub/backend/internal/oauth"
	"teamhub/backend/internal/platform/httpx"
	"teamhub/backend/internal/provisioning"
	"teamhub/backend/internal/security"
	"teamhub/backend/internal/server/middleware"
	userdomain "teamhub/backend/internal/user/domain"
)

// AuthService is the subset of *service.Service used by the handler.
type AuthService interface {
	Register(ctx context.Context, in provisioning.RegisterInput) (*provisioning.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	SocialLogin(ctx context.Context, p provisioning.SocialProfile) (*service.Session, error)
	Logout(ctx context.Context, claims *security.AccessClaims) error
	CurrentUser(ctx context.Context, userID string) (*userdomain.User, error)
}

// OAuthProvider starts and completes an external sign-in. Implemented by *oauth.Google.
type OAuthProvider interface {
	AuthURL(ctx context.Context) (string, error)
	Exchange(ctx context.Context, state, code string) (*oauth.Profile, error)
}

// Options configures cookies and social-login redirects.
type Options struct {
	CookieName     string
	SecureCookie   bool
	FrontendOrigin string
	// FailureURL receives ?status=failure when social login fails.
	FailureURL string
}

// Handler serves the auth and current-user routes.
type Handler struct {
	svc    AuthService
	google OAuthProvider
	opts   Options
}

// New returns a Handler. google may be nil, in which case the Google routes are not registered.
func New(svc AuthService, google OAuthProvider, opts Options) *Handler {
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	return &Handler{svc: svc, google: google, opts: opts}
}

// RegisterPublic mounts the routes reachable without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	if h.google != nil {
		r.Get("/auth/google", h.googleStart)
		r.Get("/auth/google/callback", h.googleCallback)
	}
}

// RegisterProtected mounts the routes that require middleware.RequireAuth.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/auth/logout", h.logout)
	r.Get("/user/current", h.currentUser)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message     string           `json:"message"`
	User        *userdomain.User `json:"user"`
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if _, err := h.svc.Register(r.Context(), provisioning.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Message(w, http.StatusCreated, "User created successfully")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	h.setCookie(w, sess.AccessToken, sess.ExpiresAt)
	httpx.JSON(w, http.StatusOK, loginResponse{
		Message:     "Logged in successfully",
		User:        sess.User,
		AccessToken: sess.AccessToken,
		ExpiresAt:   sess.ExpiresAt,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), middleware.ClaimsFrom(r.Context())); err != nil {
		httpx.Error(w, r, err)
		return
	}
	h.clearCookie(w)
	httpx.Message(w, http.StatusOK, "Logged out successfully")
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	u, err := h.svc.CurrentUser(r.Context(), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "User fetch successfully",
		"user":    u,
	})
}

func (h *Handler) googleStart(w http.ResponseWriter, r *http.Request) {
	target, err := h.google.AuthURL(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("google auth url", zap.Error(err))
		h.failureRedirect(w, r)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) googleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	if q.Get("error") != "" {
		h.failureRedirect(w, r)
		return
	}
	p, err := h.google.Exchange(ctx, q.Get("state"), q.Get("code"))
	if err != nil {
		logger.From(ctx).Warn("google exchange failed", zap.Error(err))
		h.failureRedirect(w, r)
		return
	}
	sess, err := h.svc.SocialLogin(ctx, provisioning.SocialProfile{
		Provider:     accountdomain.ProviderGoogle,
		ProviderID:   p.Subject,
		DisplayName:  p.Name,
		Email:        p.Email,
		Picture:      p.Picture,
		RefreshToken: p.RefreshToken,
		TokenExpiry:  p.TokenExpiry,
	})
	if err != nil {
		logger.From(ctx).Warn("social login failed", zap.Error(err))
		h.failureRedirect(w, r)
		return
	}
	h.setCookie(w, sess.AccessToken, sess.ExpiresAt)
	target := strings.TrimRight(h.opts.FrontendOrigin, "/") + "/workspace/" + url.PathEscape(sess.User.CurrentWorkspace)
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) failureRedirect(w http.ResponseWriter, r *http.Request) {
	target := h.opts.FailureURL
	if target == "" {
		target = strings.TrimRight(h.opts.FrontendOrigin, "/") + "/google/oauth/callback"
	}
	u, err := url.Parse(target)
	if err != nil {
		httpx.Message(w, http.StatusBadGateway, "Social login failed")
		return
	}
	q := u.Query()
	q.Set("status", "failure")
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

func (h *Handler) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
