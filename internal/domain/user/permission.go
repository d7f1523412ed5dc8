package user

type Permission string

const (
	// Attendance
	PermissionAttendanceViewAll     Permission = "attendance.view_all"
	PermissionAttendanceCorrect     Permission = "attendance.correct"
	PermissionAttendanceRecalculate Permission = "attendance.recalculate"

	// Leave
	PermissionLeaveManage Permission = "leave.manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionAttendanceViewAll,
		PermissionAttendanceCorrect,
		PermissionAttendanceRecalculate,
		PermissionLeaveManage,
	},
	RoleManager: {
		PermissionAttendanceViewAll,
		PermissionAttendanceCorrect,
		PermissionAttendanceRecalculate,
		PermissionLeaveManage,
	},
	RoleEmployee: {},
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
