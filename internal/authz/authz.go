// Package authz holds the closed role enumeration and the static capability table consulted by
// the HTTP guard.
package authz

// Role is one of the four account roles.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
	RoleParent  Role = "PARENT"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// Action names a guarded capability, formatted resource:verb.
type Action string

const (
	UsersManage        Action = "users:manage"
	DirectoryRead      Action = "directory:read"
	DirectoryWrite     Action = "directory:write"
	CoursesRead        Action = "courses:read"
	CoursesWrite       Action = "courses:write"
	EvaluationsRead    Action = "evaluations:read"
	EvaluationsWrite   Action = "evaluations:write"
	GradesRead         Action = "grades:read"
	GradesWrite        Action = "grades:write"
	PeriodsRead        Action = "periods:read"
	PeriodsWrite       Action = "periods:write"
	ReportCardsRead    Action = "report_cards:read"
	ReportCardsWrite   Action = "report_cards:write"
	BillingRead        Action = "billing:read"
	BillingWrite       Action = "billing:write"
	TimetableRead      Action = "timetable:read"
	TimetableWrite     Action = "timetable:write"
	TimetableGenerate  Action = "timetable:generate"
	PaymentConfigWrite Action = "payment_config:write"
)

var capabilities = map[Role]map[Action]struct{}{
	RoleTeacher: set(
		DirectoryRead, CoursesRead, EvaluationsRead, EvaluationsWrite,
		GradesRead, GradesWrite, PeriodsRead, ReportCardsRead, ReportCardsWrite, TimetableRead,
	),
	RoleStudent: set(
		CoursesRead, EvaluationsRead, GradesRead, PeriodsRead, ReportCardsRead, TimetableRead,
	),
	RoleParent: set(
		CoursesRead, GradesRead, PeriodsRead, ReportCardsRead, BillingRead, TimetableRead,
	),
}

func set(actions ...Action) map[Action]struct{} {
	out := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		out[a] = struct{}{}
	}
	return out
}

// Can reports whether role may perform action. Admins may do everything; unknown roles nothing.
func Can(role Role, action Action) bool {
	if role == RoleAdmin {
		return true
	}
	_, ok := capabilities[role][action]
	return ok
}

// SelfScoped reports whether reads by role must be restricted to the caller's own records.
func SelfScoped(role Role) bool {
	return role == RoleStudent || role == RoleParent
}
