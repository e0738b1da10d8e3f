package models

import "time"

type SecurityAction string

const (
	SecurityActionSignup                 SecurityAction = "signup"
	SecurityActionLoginSuccess           SecurityAction = "login_success"
	SecurityActionLoginFailure           SecurityAction = "login_failure"
	SecurityActionPasswordResetRequested SecurityAction = "password_reset_requested"
	SecurityActionPasswordReset          SecurityAction = "password_reset"
	SecurityActionRoleChange             SecurityAction = "role_change"
	SecurityActionUserDeleted            SecurityAction = "user_deleted"
)

// SecurityLogEntry is append-only; nothing updates a row once written.
type SecurityLogEntry struct {
	ID        string
	Action    SecurityAction
	Actor     string
	Context   string
	Detail    string
	Timestamp time.Time
}
