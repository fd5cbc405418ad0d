package audit

import "testing"

func TestParseRoute(t *testing.T) {
	tests := []struct {
		method, pattern string
		want            ActionResource
	}{
		{"GET", "/api/workspaces", ActionResource{"list", "workspace"}},
		{"GET", "/api/workspaces/{workspaceId}", ActionResource{"get", "workspace"}},
		{"POST", "/api/workspaces/{workspaceId}/projects", ActionResource{"create", "project"}},
		{"PUT", "/api/workspaces/{workspaceId}/projects/{projectId}", ActionResource{"update", "project"}},
		{"DELETE", "/api/workspaces/{workspaceId}/projects/{projectId}/tasks/{taskId}", ActionResource{"delete", "task"}},
		{"PUT", "/api/workspaces/{workspaceId}/members/{userId}/role", ActionResource{"role_changed", "user"}},
		{"POST", "/api/workspaces/join/{inviteCode}", ActionResource{"user_added", "user"}},
		{"POST", "/api/auth/logout", ActionResource{"create", "logout"}},
		{"OPTIONS", "/", ActionResource{"options", "unknown"}},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.pattern, func(t *testing.T) {
			if got := ParseRoute(tt.method, tt.pattern); got != tt.want {
				t.Errorf("ParseRoute = %+v, want %+v", got, tt.want)
			}
		})
	}
}
