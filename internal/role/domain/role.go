package domain

import (
	"errors"
	"slices"
	"time"
)

// Role is a named permission set. Roles are global and seeded, not created by users.
type Role struct {
	ID          string       `json:"id" bson:"_id"`
	Name        Name         `json:"name" bson:"name"`
	Permissions []Permission `json:"permissions" bson:"permissions"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
}

type Name string

const (
	Owner  Name = "owner"
	Admin  Name = "admin"
	Member Name = "member"
)

// Valid reports whether n is one of the seeded role names.
func (n Name) Valid() bool {
	return n == Owner || n == Admin || n == Member
}

type Permission string

const (
	CreateWorkspace         Permission = "CREATE_WORKSPACE"
	DeleteWorkspace         Permission = "DELETE_WORKSPACE"
	EditWorkspace           Permission = "EDIT_WORKSPACE"
	ManageWorkspaceSettings Permission = "MANAGE_WORKSPACE_SETTINGS"
	AddMember               Permission = "ADD_MEMBER"
	ChangeMemberRole        Permission = "CHANGE_MEMBER_ROLE"
	RemoveMember            Permission = "REMOVE_MEMBER"
	CreateProject           Permission = "CREATE_PROJECT"
	EditProject             Permission = "EDIT_PROJECT"
	DeleteProject           Permission = "DELETE_PROJECT"
	CreateTask              Permission = "CREATE_TASK"
	EditTask                Permission = "EDIT_TASK"
	DeleteTask              Permission = "DELETE_TASK"
	ViewOnly                Permission = "VIEW_ONLY"
)

// AllPermissions lists every permission in catalogue order.
var AllPermissions = []Permission{
	CreateWorkspace, DeleteWorkspace, EditWorkspace, ManageWorkspaceSettings,
	AddMember, ChangeMemberRole, RemoveMember,
	CreateProject, EditProject, DeleteProject,
	CreateTask, EditTask, DeleteTask,
	ViewOnly,
}

// DefaultPermissions is the built-in catalogue used by the seeder.
func DefaultPermissions() map[Name][]Permission {
	admin := slices.DeleteFunc(slices.Clone(AllPermissions), func(p Permission) bool {
		switch p {
		case CreateWorkspace, EditWorkspace, DeleteWorkspace, ChangeMemberRole, RemoveMember:
			return true
		}
		return false
	})
	return map[Name][]Permission{
		Owner:  slices.Clone(AllPermissions),
		Admin:  admin,
		Member: {ViewOnly, CreateTask, EditTask},
	}
}

// Has reports whether the role grants p.
func (r *Role) Has(p Permission) bool {
	return slices.Contains(r.Permissions, p)
}

// Validate validates the role for persistence.
func (r *Role) Validate() error {
	if !r.Name.Valid() {
		return errors.New("unknown role name")
	}
	for _, p := range r.Permissions {
		if !slices.Contains(AllPermissions, p) {
			return errors.New("unknown permission " + string(p))
		}
	}
	return nil
}
