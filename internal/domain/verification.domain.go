package domain

import "time"

// Email verification actions (must match verification_action_enum in DB).
const (
	ActionRegister      = "register"
	ActionResetPassword = "reset_password"
	ActionDeleteAccount = "delete_account"
)

func IsValidAction(action string) bool {
	switch action {
	case ActionRegister, ActionResetPassword, ActionDeleteAccount:
		return true
	}
	return false
}

// EmailVerification is a one-time action credential. A (user, action)
// pair accumulates historical superseded rows; only the most recent
// uncompleted, unexpired one is "current".
type EmailVerification struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Token       string     `json:"token"`
	Action      string     `json:"action"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiredAt   time.Time  `json:"expired_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (v *EmailVerification) IsExpired(now time.Time) bool {
	return now.After(v.ExpiredAt)
}

func (v *EmailVerification) IsCompleted() bool {
	return v.CompletedAt != nil
}
