package domain

import (
	"net/http"
	"time"
)

const ActivityActionLogin = "login"

// UserActivityLog is an append-only audit entry for an authentication
// attempt. Never updated or deleted; the lockout policy reads it back.
type UserActivityLog struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
	StatusCode    int       `json:"status_code"`
	Action        string    `json:"action"`
	FailureReason *string   `json:"failure_reason,omitempty"`
	GeoLocation   *string   `json:"geo_location,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (a *UserActivityLog) IsSuccess() bool {
	return a.StatusCode == http.StatusOK
}

func (a *UserActivityLog) IsUnauthorized() bool {
	return a.StatusCode == http.StatusUnauthorized
}
