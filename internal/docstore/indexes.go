package docstore

import (
	"fmt"
	"regexp"
	"strings"
)

// Collection names.
const (
	CollectionUsers      = "users"
	CollectionAccounts   = "accounts"
	CollectionWorkspaces = "workspaces"
	CollectionRoles      = "roles"
	CollectionMembers    = "members"
	CollectionProjects   = "projects"
	CollectionTasks      = "tasks"
	CollectionAuditLogs  = "audit_logs"
)

// Collections lists every collection the backend uses. SQL backends create one table per entry.
var Collections = []string{
	CollectionUsers,
	CollectionAccounts,
	CollectionWorkspaces,
	CollectionRoles,
	CollectionMembers,
	CollectionProjects,
	CollectionTasks,
	CollectionAuditLogs,
}

// IndexSpec declares a unique index over one or more top-level fields of a collection.
type IndexSpec struct {
	Collection string
	Fields     []string
}

// Name returns a stable index name, e.g. accounts_provider_provider_id_key.
func (s IndexSpec) Name() string {
	return s.Collection + "_" + strings.Join(s.Fields, "_") + "_key"
}

// UniqueIndexes are the uniqueness constraints the store enforces. Postgres migrations
// mirror this list; keep them in sync.
var UniqueIndexes = []IndexSpec{
	{Collection: CollectionUsers, Fields: []string{"email"}},
	{Collection: CollectionAccounts, Fields: []string{"provider", "provider_id"}},
	{Collection: CollectionWorkspaces, Fields: []string{"invite_code"}},
	{Collection: CollectionRoles, Fields: []string{"name"}},
	{Collection: CollectionMembers, Fields: []string{"user_id", "workspace_id"}},
}

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidIdent reports whether s is safe to interpolate as a collection or field name.
func ValidIdent(s string) bool {
	return identRe.MatchString(s)
}

// CheckFilter returns an error if any filter field is not a valid identifier.
func CheckFilter(f Filter) error {
	for k := range f {
		if !ValidIdent(k) {
			return fmt.Errorf("docstore: invalid filter field %q", k)
		}
	}
	return nil
}
