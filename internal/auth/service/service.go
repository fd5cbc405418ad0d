// Package service implements credential verification, login, logout and access-token checks.
// Account creation is delegated to the provisioning workflow.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	accountdomain "teamhub/backend/internal/account/domain"
	"teamhub/backend/internal/apperror"
	"teamhub/backend/internal/cache"
	"teamhub/backend/internal/logger"
	"teamhub/backend/internal/provisioning"
	"teamhub/backend/internal/security"
	"teamhub/backend/internal/telemetry"
	telemetrydomain "teamhub/backend/internal/telemetry/domain"
	userdomain "teamhub/backend/internal/user/domain"
)

const revokedKeyPrefix = "revoked_jti:"

// Errors returned by the auth service. Both verification failures carry the same message.
var (
	ErrInvalidCredentials = apperror.Unauthorized("Invalid email or password")
	ErrUnknownAccount     = apperror.NotFound("Invalid email or password")
	ErrUnauthenticated    = apperror.Unauthorized("Unauthorized. Please log in.")
	ErrUserNotFound       = apperror.NotFound("User not found")
)

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByProvider(ctx context.Context, provider accountdomain.Provider, providerID string) (*accountdomain.Account, error)
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	Update(ctx context.Context, u *userdomain.User) error
}

// Provisioner creates accounts. Implemented by *provisioning.Workflow.
type Provisioner interface {
	SocialLogin(ctx context.Context, p provisioning.SocialProfile) (*provisioning.SocialResult, error)
	Register(ctx context.Context, in provisioning.RegisterInput) (*provisioning.RegisterResult, error)
}

// Session is an issued access token and the user it belongs to. User never carries a password hash.
type Session struct {
	User        *userdomain.User
	AccessToken string
	ExpiresAt   time.Time
	IsNew       bool
}

// Service implements local and social sign-in on top of the provisioning workflow.
type Service struct {
	accounts    AccountRepo
	users       UserRepo
	provisioner Provisioner
	hasher      *security.Hasher
	tokens      *security.TokenProvider
	revoked     cache.Client
	emitter     telemetry.EventEmitter
}

// NewService returns a Service. emitter may be nil.
func NewService(
	accounts AccountRepo,
	users UserRepo,
	provisioner Provisioner,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	revoked cache.Client,
	emitter telemetry.EventEmitter,
) *Service {
	return &Service{
		accounts:    accounts,
		users:       users,
		provisioner: provisioner,
		hasher:      hasher,
		tokens:      tokens,
		revoked:     revoked,
		emitter:     emitter,
	}
}

// VerifyCredentials checks an email and password against the EMAIL account. An unknown email and
// a wrong password fail with the same message.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*userdomain.User, error) {
	email = userdomain.NormalizeEmail(email)
	acct, err := s.accounts.GetByProvider(ctx, accountdomain.ProviderEmail, email)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if acct == nil {
		return nil, ErrUnknownAccount
	}
	u, err := s.users.GetByID(ctx, acct.UserID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if u == nil {
		return nil, ErrUnknownAccount
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	ok, err := s.hasher.Matches(u.PasswordHash, []byte(password))
	if err != nil {
		logger.From(ctx).Warn("auth: stored password hash is unreadable", zap.String("user_id", u.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u.WithoutPassword(), nil
}

// Register provisions a local account and its default workspace.
func (s *Service) Register(ctx context.Context, in provisioning.RegisterInput) (*provisioning.RegisterResult, error) {
	res, err := s.provisioner.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, telemetrydomain.EventUserRegistered, res.WorkspaceID, res.UserID, map[string]string{"mode": string(res.Mode)})
	return res, nil
}

// Login verifies credentials, records the login time and issues an access token scoped to the
// user's current workspace.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		if apperror.KindOf(err) != apperror.KindInternal {
			s.emit(ctx, telemetrydomain.EventUserLoginFailed, "", "", map[string]string{"email": userdomain.NormalizeEmail(email)})
		}
		return nil, err
	}
	s.touchLastLogin(ctx, u.ID)
	sess, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, telemetrydomain.EventUserLogin, u.CurrentWorkspace, u.ID, map[string]string{"provider": string(accountdomain.ProviderEmail)})
	return sess, nil
}

// SocialLogin resolves or provisions the user behind an external profile and issues an access token.
func (s *Service) SocialLogin(ctx context.Context, p provisioning.SocialProfile) (*Session, error) {
	res, err := s.provisioner.SocialLogin(ctx, p)
	if err != nil {
		return nil, err
	}
	s.touchLastLogin(ctx, res.User.ID)
	sess, err := s.issue(res.User)
	if err != nil {
		return nil, err
	}
	sess.IsNew = res.IsNew
	eventType := telemetrydomain.EventUserLogin
	if res.IsNew {
		eventType = telemetrydomain.EventUserProvisioned
	}
	s.emit(ctx, eventType, res.User.CurrentWorkspace, res.User.ID, map[string]string{
		"provider": string(p.Provider),
		"mode":     string(res.Mode),
	})
	return sess, nil
}

// Logout revokes the token ID until the token would have expired anyway.
func (s *Service) Logout(ctx context.Context, claims *security.AccessClaims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if d := time.Until(claims.ExpiresAt.Time); d > 0 {
			ttl = d
		}
	}
	if err := s.revoked.Set(ctx, revokedKeyPrefix+claims.ID, "1", ttl); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// Authenticate validates an access token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, token string) (*security.AccessClaims, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.ValidateAccess(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	revoked, err := s.revoked.Exists(ctx, revokedKeyPrefix+claims.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if revoked {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// CurrentUser returns the user without its password hash.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*userdomain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u.WithoutPassword(), nil
}

func (s *Service) issue(u *userdomain.User) (*Session, error) {
	token, _, exp, err := s.tokens.IssueAccess(u.ID, u.CurrentWorkspace)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &Session{User: u.WithoutPassword(), AccessToken: token, ExpiresAt: exp}, nil
}

// touchLastLogin is best-effort; a failure is logged and does not fail the login.
func (s *Service) touchLastLogin(ctx context.Context, userID string) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u == nil {
		return
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	if err := s.users.Update(ctx, u); err != nil {
		logger.From(ctx).Warn("auth: update last_login", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *Service) emit(ctx context.Context, eventType, workspaceID, userID string, metadata map[string]string) {
	if s.emitter == nil {
		return
	}
	telemetry.EmitAsync(s.emitter, ctx, telemetrydomain.NewEvent(eventType, workspaceID, userID, metadata))
}
