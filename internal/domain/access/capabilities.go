package access

import "course-studio/internal/domain/users"

const (
	PermViewCourse     = "view_course"
	PermAddCourse      = "add_course"
	PermChangeCourse   = "change_course"
	PermDeleteCourse   = "delete_course"
	PermManageContent  = "manage_content"
	PermManageSubjects = "manage_subjects"
	PermManageUsers    = "manage_users"
)

func CapabilitiesFor(role string) []string {
	switch role {
	case users.RoleAdmin:
		return []string{
			PermViewCourse, PermAddCourse, PermChangeCourse, PermDeleteCourse,
			PermManageContent, PermManageSubjects, PermManageUsers,
		}
	case users.RoleInstructor:
		return []string{PermViewCourse, PermAddCourse, PermChangeCourse, PermDeleteCourse, PermManageContent}
	default:
		return []string{}
	}
}

func Can(role, perm string) bool {
	for _, p := range CapabilitiesFor(role) {
		if p == perm {
			return true
		}
	}
	return false
}
