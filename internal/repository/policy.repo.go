package repository

import (
	"context"
	"fmt"

	"account-service/internal/domain"
)

type PolicyRepository struct {
	db DB
}

func NewPolicyRepository(db DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// ListAll returns every currently defined policy. Used by the social
// signup path to auto-accept all of them.
func (r *PolicyRepository) ListAll(ctx context.Context) ([]*domain.Policy, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, created_at
		FROM policies
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	var policies []*domain.Policy
	for rows.Next() {
		var p domain.Policy
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		policies = append(policies, &p)
	}
	return policies, rows.Err()
}
