package repository

import (
	"context"
	"errors"
	"fmt"

	"account-service/internal/domain"
	xerrors "account-service/pkg/utils/errors"

	"github.com/jackc/pgx/v5"
)

type AuthProviderRepository struct {
	db DB
}

func NewAuthProviderRepository(db DB) *AuthProviderRepository {
	return &AuthProviderRepository{db: db}
}

func scanAuthProvider(row pgx.Row) (*domain.AuthProvider, error) {
	var p domain.AuthProvider
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Provider,
		&p.ProviderUID,
		&p.ProviderEmail,
		&p.LinkedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *AuthProviderRepository) GetByProviderUID(ctx context.Context, provider, providerUID string) (*domain.AuthProvider, error) {
	return scanAuthProvider(r.db.QueryRow(ctx, `
		SELECT id, user_id, provider, provider_uid, provider_email, linked_at
		FROM auth_providers
		WHERE provider = $1 AND provider_uid = $2
		LIMIT 1
	`, provider, providerUID))
}

// Relink refreshes the user's latest login and recreates the provider
// link in one transaction. Used when a user who previously unlinked the
// provider signs in with it again.
func (r *AuthProviderRepository) Relink(ctx context.Context, link *domain.AuthProvider) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE users
		SET latest_login_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, link.UserID)
	if err != nil {
		return fmt.Errorf("failed to update latest login: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO auth_providers (id, user_id, provider, provider_uid, provider_email, linked_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, link.ID, link.UserID, link.Provider, link.ProviderUID, link.ProviderEmail)
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			return xerrors.ErrProviderMismatch
		}
		return fmt.Errorf("failed to create provider link: %w", err)
	}

	return tx.Commit(ctx)
}

// CreateSocialUser creates an activated user, its provider link, and an
// acceptance row for every current policy in one transaction.
func (r *AuthProviderRepository) CreateSocialUser(ctx context.Context, user *domain.User, link *domain.AuthProvider, policyIDs []string) (*domain.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created, err := scanUser(tx.QueryRow(ctx, `
		INSERT INTO users (id, email, name, image, status, latest_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW(), NOW())
		RETURNING `+userColumns+`
	`, user.ID, user.Email, user.Name, user.Image, domain.StatusActivated))
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			return nil, xerrors.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO auth_providers (id, user_id, provider, provider_uid, provider_email, linked_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, link.ID, created.ID, link.Provider, link.ProviderUID, link.ProviderEmail)
	if err != nil {
		if xerrors.IsUniqueViolation(err) {
			return nil, xerrors.ErrProviderMismatch
		}
		return nil, fmt.Errorf("failed to create provider link: %w", err)
	}

	for _, policyID := range policyIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO user_policies (user_id, policy_id, accepted_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id, policy_id) DO NOTHING
		`, created.ID, policyID)
		if err != nil {
			return nil, fmt.Errorf("failed to record policy acceptance: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}
