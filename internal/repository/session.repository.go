package repository

import (
	"context"
	"errors"
	"fmt"

	"account-service/internal/domain"
	xerrors "account-service/pkg/utils/errors"

	"github.com/jackc/pgx/v5"
)

const sessionColumns = `
	id, user_id, device_id, device_name, ip_address, last_active_at, created_at`

type SessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row pgx.Row) (*domain.DeviceSession, error) {
	var s domain.DeviceSession
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.DeviceID,
		&s.DeviceName,
		&s.IPAddress,
		&s.LastActiveAt,
		&s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) GetByUserAndDevice(ctx context.Context, userID, deviceID string) (*domain.DeviceSession, error) {
	return scanSession(r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM device_sessions
		WHERE user_id = $1 AND device_id = $2
		LIMIT 1
	`, userID, deviceID))
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.DeviceSession) (*domain.DeviceSession, error) {
	created, err := scanSession(r.db.QueryRow(ctx, `
		INSERT INTO device_sessions (id, user_id, device_id, device_name, ip_address, last_active_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, device_id) DO UPDATE SET
			device_name    = EXCLUDED.device_name,
			ip_address     = EXCLUDED.ip_address,
			last_active_at = NOW()
		RETURNING `+sessionColumns+`
	`, s.ID, s.UserID, s.DeviceID, s.DeviceName, s.IPAddress))
	if err != nil {
		return nil, fmt.Errorf("failed to create device session: %w", err)
	}
	return created, nil
}

// RefreshActive bumps last_active_at for a recognized pairing.
func (r *SessionRepository) RefreshActive(ctx context.Context, userID, deviceID, ipAddress string) (*domain.DeviceSession, error) {
	return scanSession(r.db.QueryRow(ctx, `
		UPDATE device_sessions
		SET last_active_at = NOW(),
		    ip_address = COALESCE(NULLIF($3, ''), ip_address)
		WHERE user_id = $1 AND device_id = $2
		RETURNING `+sessionColumns+`
	`, userID, deviceID, ipAddress))
}

// ListByUser returns the user's sessions ordered least-recently-active
// first, so index 0 is the eviction candidate.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.DeviceSession, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM device_sessions
		WHERE user_id = $1
		ORDER BY last_active_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.DeviceSession
	for rows.Next() {
		var s domain.DeviceSession
		err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.DeviceID,
			&s.DeviceName,
			&s.IPAddress,
			&s.LastActiveAt,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// Delete revokes one pairing. Revoking an absent session is an error,
// not a no-op.
func (r *SessionRepository) Delete(ctx context.Context, userID, deviceID string) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM device_sessions
		WHERE user_id = $1 AND device_id = $2
	`, userID, deviceID)
	if err != nil {
		return fmt.Errorf("failed to delete device session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrSessionNotFound
	}
	return nil
}
