package constants

import "orgchart-backend/internal/pkg/constants"

// PermissionRoles maps each permission to roles allowed to perform it.
// Accept/reject/cancel are relationship checks (recipient, initiator), not role checks.
var PermissionRoles = map[string][]string{
	InitiateTransfer:    {constants.Owner},
	ViewTransferHistory: {constants.Viewer, constants.Editor, constants.Admin, constants.Owner},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
