package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-service/internal/domain"
	xerrors "account-service/pkg/utils/errors"

	"github.com/jackc/pgx/v5"
)

type VerificationRepository struct {
	db DB
}

func NewVerificationRepository(db DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// GetLatest returns the most recent token row for (user, action),
// completed or not. Historical superseded rows below it are ignored.
func (r *VerificationRepository) GetLatest(ctx context.Context, userID, action string) (*domain.EmailVerification, error) {
	var v domain.EmailVerification
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, token, action, created_at, expired_at, completed_at
		FROM email_verifications
		WHERE user_id = $1 AND action = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, action).Scan(
		&v.ID,
		&v.UserID,
		&v.Token,
		&v.Action,
		&v.CreatedAt,
		&v.ExpiredAt,
		&v.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch verification token: %w", err)
	}
	return &v, nil
}

func (r *VerificationRepository) Create(ctx context.Context, v *domain.EmailVerification) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO email_verifications (id, user_id, token, action, created_at, expired_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.UserID, v.Token, v.Action, v.CreatedAt, v.ExpiredAt)
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return nil
}

// Complete consumes a token exactly once. The UPDATE is conditional on
// completed_at still being NULL, so of two concurrent callers only one
// sees a row change; the loser gets ErrInvalidToken. Expired rows are
// left uncompleted so a fresh token must be requested.
func (r *VerificationRepository) Complete(ctx context.Context, token, action string) (*domain.EmailVerification, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var v domain.EmailVerification
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, token, action, created_at, expired_at, completed_at
		FROM email_verifications
		WHERE token = $1 AND action = $2 AND completed_at IS NULL
		LIMIT 1
	`, token, action).Scan(
		&v.ID,
		&v.UserID,
		&v.Token,
		&v.Action,
		&v.CreatedAt,
		&v.ExpiredAt,
		&v.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch verification token: %w", err)
	}

	if time.Now().After(v.ExpiredAt) {
		return nil, xerrors.ErrExpiredToken
	}

	result, err := tx.Exec(ctx, `
		UPDATE email_verifications
		SET completed_at = NOW()
		WHERE id = $1 AND completed_at IS NULL
	`, v.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete verification token: %w", err)
	}
	if result.RowsAffected() == 0 {
		// lost the race to a concurrent complete
		return nil, xerrors.ErrInvalidToken
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	now := time.Now()
	v.CompletedAt = &now
	return &v, nil
}
