package repository

import (
	"context"
	"errors"
	"fmt"

	"account-service/internal/domain"
	xerrors "account-service/pkg/utils/errors"

	"github.com/jackc/pgx/v5"
)

const userColumns = `
	id, email, name, username, bio, phone, image, password_hash,
	status, latest_login_at, deleted_at, created_at, updated_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// ============================================
// SCAN HELPERS
// ============================================

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Username,
		&u.Bio,
		&u.Phone,
		&u.Image,
		&u.PasswordHash,
		&u.Status,
		&u.LatestLoginAt,
		&u.DeletedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ============================================
// SINGLE OPERATIONS
// ============================================

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
		  AND deleted_at IS NULL
		LIMIT 1
	`, userID))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
		  AND deleted_at IS NULL
		LIMIT 1
	`, email))
}

// UsernameTakenByOther reports whether a different user row already owns
// the username.
func (r *UserRepository) UsernameTakenByOther(ctx context.Context, username, userID string) (bool, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		SELECT id FROM users
		WHERE username = $1 AND id <> $2
		LIMIT 1
	`, username, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return true, nil
}

// CreatePending inserts a user in pending status with only an email.
func (r *UserRepository) CreatePending(ctx context.Context, userID, email string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING `+userColumns+`
	`, userID, email, domain.StatusPending))
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			return nil, xerrors.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create pending user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) UpdateLatestLogin(ctx context.Context, userID string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET latest_login_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to update latest login: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}

// SoftDelete marks the user deleted without removing the row, so the
// account can be restored later.
func (r *UserRepository) SoftDelete(ctx context.Context, userID string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to soft delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}

// ============================================
// TRANSACTIONAL OPERATIONS
// ============================================

// CompleteRegistration activates a pending user and records the accepted
// policies in one transaction, so a user is never visible as activated
// without its acknowledgements.
func (r *UserRepository) CompleteRegistration(ctx context.Context, userID string, name, username, passwordHash string, policyIDs []string) (*domain.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	user, err := scanUser(tx.QueryRow(ctx, `
		UPDATE users
		SET name = $1,
		    username = $2,
		    password_hash = $3,
		    status = $4,
		    updated_at = NOW()
		WHERE id = $5 AND deleted_at IS NULL
		RETURNING `+userColumns+`
	`, name, username, passwordHash, domain.StatusActivated, userID))
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			return nil, xerrors.ErrUsernameTaken
		}
		return nil, err
	}

	for _, policyID := range policyIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO user_policies (user_id, policy_id, accepted_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id, policy_id) DO NOTHING
		`, userID, policyID)
		if err != nil {
			return nil, fmt.Errorf("failed to record policy acceptance: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}
