package constants

const (
	Owner  = "owner"
	Admin  = "admin"
	Editor = "editor"
	Viewer = "viewer"
)

// ValidRoles is the set of allowed values for OrganizationMembers.role.
var ValidRoles = []string{Viewer, Editor, Admin, Owner}

// IsValidRole returns true if role is one of the allowed enum values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
