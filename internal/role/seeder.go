// Package role seeds the global role catalogue. Roles are read-only at runtime.
package role

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/role/domain"
	"teamhub/backend/internal/role/repository"
)

// SeedMode decides what happens to roles that already exist.
type SeedMode int

const (
	// SeedKeep leaves existing roles and their permissions untouched.
	SeedKeep SeedMode = iota
	// SeedOverwrite replaces the permission set of existing roles.
	SeedOverwrite
	// SeedReset deletes every role before inserting the catalogue. Role IDs change, so existing
	// memberships stop resolving until they are reassigned.
	SeedReset
)

// Catalogue maps role names to their permissions.
type Catalogue map[domain.Name][]domain.Permission

// SeedResult lists what Seed did per role.
type SeedResult struct {
	Removed int64
	Created []domain.Name
	Updated []domain.Name
	Kept    []domain.Name
}

// Seed writes the catalogue through sess. Run it inside a coordinator run so a reset and the
// inserts commit together.
func Seed(ctx context.Context, sess docstore.Session, cat Catalogue, mode SeedMode) (*SeedResult, error) {
	repo := repository.New(sess)
	res := &SeedResult{}
	if mode == SeedReset {
		n, err := repo.DeleteAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("clear roles: %w", err)
		}
		res.Removed = n
	}
	now := time.Now().UTC()
	for _, name := range sortedNames(cat) {
		perms := cat[name]
		existing, err := repo.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		switch {
		case existing == nil:
			r := &domain.Role{ID: uuid.NewString(), Name: name, Permissions: perms, CreatedAt: now, UpdatedAt: now}
			if err := repo.Create(ctx, r); err != nil {
				return nil, fmt.Errorf("create role %s: %w", name, err)
			}
			res.Created = append(res.Created, name)
		case mode == SeedOverwrite:
			existing.Permissions = perms
			existing.UpdatedAt = now
			if err := repo.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("update role %s: %w", name, err)
			}
			res.Updated = append(res.Updated, name)
		default:
			res.Kept = append(res.Kept, name)
		}
	}
	return res, nil
}

// DefaultCatalogue returns the built-in owner/admin/member permissions.
func DefaultCatalogue() Catalogue {
	return Catalogue(domain.DefaultPermissions())
}

// LoadCatalogue reads a YAML catalogue of the form
//
//	roles:
//	  owner: [CREATE_WORKSPACE, ...]
//	  member: [VIEW_ONLY]
//
// Unknown role names or permissions are rejected.
func LoadCatalogue(r io.Reader) (Catalogue, error) {
	var doc struct {
		Roles map[string][]string `yaml:"roles"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if len(doc.Roles) == 0 {
		return nil, fmt.Errorf("catalogue has no roles")
	}
	cat := make(Catalogue, len(doc.Roles))
	for name, perms := range doc.Roles {
		r := domain.Role{Name: domain.Name(name)}
		for _, p := range perms {
			r.Permissions = append(r.Permissions, domain.Permission(p))
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("role %q: %w", name, err)
		}
		cat[r.Name] = r.Permissions
	}
	return cat, nil
}

func sortedNames(cat Catalogue) []domain.Name {
	names := make([]domain.Name, 0, len(cat))
	for n := range cat {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
