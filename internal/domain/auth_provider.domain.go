package domain

import "time"

const ProviderGoogle = "google"

// AuthProvider links a local user to one external identity per provider.
// (provider, provider_uid) is unique across all users.
type AuthProvider struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Provider      string    `json:"provider"`
	ProviderUID   string    `json:"provider_uid"`
	ProviderEmail *string   `json:"provider_email,omitempty"`
	LinkedAt      time.Time `json:"linked_at"`
}
