package rbac

import "github.com/docarchive/backend/internal/models"

// Permission constants
const (
	PermViewAuditLogs   = "view_audit_logs"
	PermRecordAuditLogs = "record_audit_logs"
	PermPurgeAuditLogs  = "purge_audit_logs"
	// PermRecordForOthers allows recording entries credited to another actor.
	PermRecordForOthers = "record_audit_logs_for_others"
)

// RolePermissions defines what each actor model can do.
var RolePermissions = map[models.ActorModel][]string{
	models.ActorAdmin: {
		PermViewAuditLogs, PermRecordAuditLogs, PermPurgeAuditLogs, PermRecordForOthers,
	},
	models.ActorOfficer: {
		PermRecordAuditLogs,
		// Officers CANNOT read the audit trail
	},
}

// HasPermission checks if an actor model has a specific permission.
func HasPermission(model models.ActorModel, permission string) bool {
	perms, ok := RolePermissions[model]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}
