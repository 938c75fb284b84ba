// user.go under internal/domain
package domain

import "time"

// Account status values (must match user_status_enum in DB).
const (
	StatusPending     = "pending"
	StatusActivated   = "activated"
	StatusDeactivated = "deactivated"
)

type User struct {
	ID            string     `json:"id"` // Snowflake ID
	Email         string     `json:"email"`
	Name          *string    `json:"name,omitempty"`
	Username      *string    `json:"username,omitempty"` // Nullable & unique
	Bio           *string    `json:"bio,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	Image         *string    `json:"image,omitempty"`
	PasswordHash  *string    `json:"-"` // Omit from JSON responses
	Status        string     `json:"status"`
	LatestLoginAt *time.Time `json:"latest_login_at,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserProfile is the sanitized shape returned to clients.
type UserProfile struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          *string    `json:"name,omitempty"`
	Username      *string    `json:"username,omitempty"`
	Bio           *string    `json:"bio,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	Image         *string    `json:"image,omitempty"`
	Status        string     `json:"status"`
	LatestLoginAt *time.Time `json:"latest_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Profile strips credentials and soft-delete bookkeeping.
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Username:      u.Username,
		Bio:           u.Bio,
		Phone:         u.Phone,
		Image:         u.Image,
		Status:        u.Status,
		LatestLoginAt: u.LatestLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
