package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseRoute returns action and resource for an HTTP method and chi route pattern
// (e.g. POST /api/workspaces/{workspaceId}/projects).
// Action is a verb: get, list, create, update, delete. Resource is the last literal path
// segment, singularised (projects -> project).
// Member role changes and invite joins are mapped to role_changed and user_added on resource "user".
func ParseRoute(method, pattern string) ActionResource {
	segs := strings.Split(strings.Trim(pattern, "/"), "/")
	literal := ""
	endsWithParam := false
	for i, s := range segs {
		if isParam(s) {
			endsWithParam = i == len(segs)-1
			continue
		}
		literal = s
		endsWithParam = false
	}
	switch {
	case literal == "role" && method == "PUT":
		return ActionResource{Action: "role_changed", Resource: "user"}
	case literal == "join" && method == "POST":
		return ActionResource{Action: "user_added", Resource: "user"}
	}
	resource := singular(literal)
	if resource == "" {
		resource = "unknown"
	}
	return ActionResource{Action: methodToAction(method, endsWithParam), Resource: resource}
}

func isParam(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

func singular(s string) string {
	if strings.HasSuffix(s, "s") && len(s) > 1 {
		return s[:len(s)-1]
	}
	return s
}

func methodToAction(method string, item bool) string {
	switch method {
	case "GET":
		if item {
			return "get"
		}
		return "list"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
