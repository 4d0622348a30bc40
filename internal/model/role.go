package model

// Role is the caller's platform role, taken from the verified bearer token.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// IsStaff reports whether the role may author quizzes and restart submitted attempts.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleStudent
}
