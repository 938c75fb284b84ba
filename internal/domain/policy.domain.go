package domain

import "time"

// Policy is a document the user must acknowledge (terms, privacy).
// Content management is out of scope; only ids matter here.
type Policy struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserPolicy records a single acknowledgement.
type UserPolicy struct {
	UserID     string    `json:"user_id"`
	PolicyID   string    `json:"policy_id"`
	AcceptedAt time.Time `json:"accepted_at"`
}
