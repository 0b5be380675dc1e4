package user

type Permission string

const (
	// Attendance
	PermissionAttendanceCreate  Permission = "attendance.create"
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceReview  Permission = "attendance.review"

	// Office configuration
	PermissionOfficeView   Permission = "office.view"
	PermissionOfficeManage Permission = "office.manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceCreate,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceReview,
		PermissionOfficeView,
		PermissionOfficeManage,
	},
	RoleManager: {
		PermissionAttendanceCreate,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceReview,
		PermissionOfficeView,
	},
	RoleUser: {
		PermissionAttendanceCreate,
		PermissionAttendanceViewOwn,
		PermissionOfficeView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
