package domain

import "time"

// DeviceSession marks one (user, device) pairing as currently trusted.
// (user_id, device_id) is unique; rows are upserted, never duplicated.
type DeviceSession struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	DeviceID     string    `json:"device_id"`
	DeviceName   string    `json:"device_name"`
	IPAddress    string    `json:"ip_address"`
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}
