package provisioning

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	accountdomain "teamhub/backend/internal/account/domain"
	accountrepo "teamhub/backend/internal/account/repository"
	"teamhub/backend/internal/apperror"
	"teamhub/backend/internal/docstore"
	membershipdomain "teamhub/backend/internal/membership/domain"
	membershiprepo "teamhub/backend/internal/membership/repository"
	roledomain "teamhub/backend/internal/role/domain"
	rolerepo "teamhub/backend/internal/role/repository"
	userdomain "teamhub/backend/internal/user/domain"
	userrepo "teamhub/backend/internal/user/repository"
	workspacedomain "teamhub/backend/internal/workspace/domain"
	workspacerepo "teamhub/backend/internal/workspace/repository"
)

// Errors returned by the provisioning steps.
var (
	ErrEmailExists       = apperror.Conflict("Email already exists")
	ErrAccountExists     = apperror.Conflict("Account already linked to another user")
	ErrOwnerRoleNotFound = apperror.NotFound("Owner role not found").WithStatus(http.StatusInternalServerError)
	ErrUserNotFound      = apperror.NotFound("User not found")
)

// run carries state from one step to the next within a single Run.
type run struct {
	now time.Time

	email          string
	name           string
	picture        string
	passwordHash   string
	rejectExisting bool

	provider     accountdomain.Provider
	providerID   string
	refreshToken string
	tokenExpiry  *time.Time

	workspaceName        string
	workspaceDescription string

	user      *userdomain.User
	isNew     bool
	skip      bool // existing user found; remaining steps are no-ops
	workspace *workspacedomain.Workspace
}

// resolveOrCreateUser looks the email up inside the session. An existing user is kept as is and
// marks the run as not new, so the remaining steps do nothing.
func (r *run) resolveOrCreateUser(ctx context.Context, sess docstore.Session) error {
	users := userrepo.New(sess)
	existing, err := users.GetByEmail(ctx, r.email)
	if err != nil {
		return err
	}
	if existing != nil {
		if r.rejectExisting {
			return ErrEmailExists
		}
		r.user, r.isNew, r.skip = existing, false, true
		return nil
	}
	u := &userdomain.User{
		ID:             uuid.NewString(),
		Name:           r.name,
		Email:          r.email,
		PasswordHash:   r.passwordHash,
		ProfilePicture: r.picture,
		IsActive:       true,
		CreatedAt:      r.now,
		UpdatedAt:      r.now,
	}
	if err := users.Create(ctx, u); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return ErrEmailExists
		}
		return err
	}
	r.user, r.isNew = u, true
	return nil
}

// bindAccount links the new user to its sign-in provider.
func (r *run) bindAccount(ctx context.Context, sess docstore.Session) error {
	if r.skip {
		return nil
	}
	a := &accountdomain.Account{
		ID:           uuid.NewString(),
		UserID:       r.user.ID,
		Provider:     r.provider,
		ProviderID:   r.providerID,
		RefreshToken: r.refreshToken,
		TokenExpiry:  r.tokenExpiry,
		CreatedAt:    r.now,
	}
	if err := accountrepo.New(sess).Create(ctx, a); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return ErrAccountExists
		}
		return err
	}
	return nil
}

// createDefaultWorkspace creates the workspace the new user owns.
func (r *run) createDefaultWorkspace(ctx context.Context, sess docstore.Session) error {
	if r.skip {
		return nil
	}
	name, desc := r.workspaceName, r.workspaceDescription
	if name == "" {
		name, desc = workspacedomain.DefaultName, workspacedomain.DefaultDescription(r.user.Name)
	}
	w := &workspacedomain.Workspace{
		ID:          uuid.NewString(),
		Name:        name,
		Description: desc,
		Owner:       r.user.ID,
		InviteCode:  workspacedomain.NewInviteCode(),
		CreatedAt:   r.now,
		UpdatedAt:   r.now,
	}
	if err := workspacerepo.New(sess).Create(ctx, w); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	r.workspace = w
	return nil
}

// assignOwnerRole makes the user owner of the workspace and then points current_workspace at it.
func (r *run) assignOwnerRole(ctx context.Context, sess docstore.Session) error {
	if r.skip {
		return nil
	}
	owner, err := rolerepo.New(sess).GetByName(ctx, roledomain.Owner)
	if err != nil {
		return err
	}
	if owner == nil {
		return ErrOwnerRoleNotFound
	}
	m := &membershipdomain.Member{
		ID:          uuid.NewString(),
		UserID:      r.user.ID,
		WorkspaceID: r.workspace.ID,
		RoleID:      owner.ID,
		JoinedAt:    r.now,
		CreatedAt:   r.now,
	}
	if err := membershiprepo.New(sess).Create(ctx, m); err != nil {
		return fmt.Errorf("create membership: %w", err)
	}
	r.user.CurrentWorkspace = r.workspace.ID
	r.user.UpdatedAt = r.now
	if err := userrepo.New(sess).Update(ctx, r.user); err != nil {
		return fmt.Errorf("set current workspace: %w", err)
	}
	return nil
}

// loadUser resolves an existing user for workspace creation. Missing users are not created.
func (r *run) loadUser(userID string) Step {
	return func(ctx context.Context, sess docstore.Session) error {
		u, err := userrepo.New(sess).GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrUserNotFound
		}
		r.user = u
		return nil
	}
}
