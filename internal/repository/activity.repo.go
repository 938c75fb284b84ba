package repository

import (
	"context"
	"fmt"
	"time"

	"account-service/internal/domain"
)

type ActivityRepository struct {
	db DB
}

func NewActivityRepository(db DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends one attempt record. Rows are never updated or deleted.
func (r *ActivityRepository) Create(ctx context.Context, rec *domain.UserActivityLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_activity_logs (
			id, email, ip_address, user_agent, status_code,
			action, failure_reason, geo_location, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`,
		rec.ID,
		rec.Email,
		rec.IPAddress,
		rec.UserAgent,
		rec.StatusCode,
		rec.Action,
		rec.FailureReason,
		rec.GeoLocation,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}

// ListSince returns login attempts for the email newer than since,
// newest first.
func (r *ActivityRepository) ListSince(ctx context.Context, email string, since time.Time) ([]*domain.UserActivityLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, email, ip_address, user_agent, status_code,
		       action, failure_reason, geo_location, created_at
		FROM user_activity_logs
		WHERE email = $1 AND action = $2 AND created_at > $3
		ORDER BY created_at DESC
	`, email, domain.ActivityActionLogin, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.UserActivityLog
	for rows.Next() {
		var rec domain.UserActivityLog
		err := rows.Scan(
			&rec.ID,
			&rec.Email,
			&rec.IPAddress,
			&rec.UserAgent,
			&rec.StatusCode,
			&rec.Action,
			&rec.FailureReason,
			&rec.GeoLocation,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		logs = append(logs, &rec)
	}
	return logs, rows.Err()
}
