package provisioning

import (
	"context"
	"regexp"
	"strings"
	"time"

	accountdomain "teamhub/backend/internal/account/domain"
	"teamhub/backend/internal/apperror"
	userdomain "teamhub/backend/internal/user/domain"
	workspacedomain "teamhub/backend/internal/workspace/domain"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// PasswordHasher hashes plaintext passwords for storage.
type PasswordHasher interface {
	Hash(password []byte) (string, error)
}

// SocialProfile is what an external provider reports about the signed-in user.
type SocialProfile struct {
	Provider     accountdomain.Provider
	ProviderID   string
	DisplayName  string
	Email        string
	Picture      string
	RefreshToken string
	TokenExpiry  *time.Time
}

// SocialResult is the outcome of SocialLogin. User never carries a password hash.
type SocialResult struct {
	User  *userdomain.User
	IsNew bool
	Mode  Mode
}

// RegisterInput is a local sign-up request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterResult identifies the records created by Register.
type RegisterResult struct {
	UserID      string
	WorkspaceID string
	Mode        Mode
}

// Workflow provisions accounts and workspaces through a Coordinator.
type Workflow struct {
	coord  *Coordinator
	hasher PasswordHasher
	now    func() time.Time
}

// NewWorkflow returns a Workflow. hasher may be nil if Register is never called.
func NewWorkflow(coord *Coordinator, hasher PasswordHasher) *Workflow {
	return &Workflow{coord: coord, hasher: hasher, now: func() time.Time { return time.Now().UTC() }}
}

// SocialLogin returns the user for the profile's email, creating the user, linked account,
// default workspace and owner membership when the email is unknown. An existing user is returned
// unchanged and no account is linked.
func (w *Workflow) SocialLogin(ctx context.Context, p SocialProfile) (*SocialResult, error) {
	if !p.Provider.Valid() {
		return nil, apperror.BadRequest("Unknown account provider")
	}
	if p.ProviderID == "" {
		return nil, apperror.BadRequest("Provider ID is required")
	}
	email := userdomain.NormalizeEmail(p.Email)
	if email == "" {
		return nil, apperror.BadRequest("Email is required")
	}
	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		name = email
	}
	r := &run{
		now:          w.now(),
		email:        email,
		name:         name,
		picture:      p.Picture,
		provider:     p.Provider,
		providerID:   p.ProviderID,
		refreshToken: p.RefreshToken,
		tokenExpiry:  p.TokenExpiry,
	}
	mode, err := w.coord.Run(ctx, r.resolveOrCreateUser, r.bindAccount, r.createDefaultWorkspace, r.assignOwnerRole)
	if err != nil {
		return nil, err
	}
	return &SocialResult{User: r.user.WithoutPassword(), IsNew: r.isNew, Mode: mode}, nil
}

// Register creates a local user with an EMAIL account, a default workspace and an owner
// membership. An email that is already registered fails with ErrEmailExists before any write.
func (w *Workflow) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	email := userdomain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if err := ValidateRegistration(name, email, in.Password); err != nil {
		return nil, err
	}
	// Hash before opening the scope so the transaction stays short.
	hash, err := w.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	r := &run{
		now:            w.now(),
		email:          email,
		name:           name,
		passwordHash:   hash,
		rejectExisting: true,
		provider:       accountdomain.ProviderEmail,
		providerID:     email,
	}
	mode, err := w.coord.Run(ctx, r.resolveOrCreateUser, r.bindAccount, r.createDefaultWorkspace, r.assignOwnerRole)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{UserID: r.user.ID, WorkspaceID: r.workspace.ID, Mode: mode}, nil
}

// CreateWorkspace creates a workspace owned by userID, makes the user its owner and switches the
// user's current workspace to it.
func (w *Workflow) CreateWorkspace(ctx context.Context, userID, name, description string) (*workspacedomain.Workspace, Mode, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", apperror.BadRequest("Workspace name is required")
	}
	r := &run{
		now:                  w.now(),
		workspaceName:        name,
		workspaceDescription: strings.TrimSpace(description),
	}
	mode, err := w.coord.Run(ctx, r.loadUser(userID), r.createDefaultWorkspace, r.assignOwnerRole)
	if err != nil {
		return nil, mode, err
	}
	return r.workspace, mode, nil
}

// ValidateRegistration checks a sign-up request. email must already be normalised.
func ValidateRegistration(name, email, password string) error {
	switch {
	case name == "":
		return apperror.BadRequest("Name is required")
	case email == "":
		return apperror.BadRequest("Email is required")
	case !emailPattern.MatchString(email):
		return apperror.BadRequest("Invalid email format")
	case len(password) < MinPasswordLength:
		return apperror.BadRequest("Password must be at least 8 characters")
	}
	return nil
}
