package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/procuredesk/procuredesk/internal/shared"
)

// Service resolves user roles to their effective permission set.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs the RBAC service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// RoleForUser fetches the role column for the user.
func (s *Service) RoleForUser(ctx context.Context, userID int64) (Role, error) {
	var role string
	err := s.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 AND is_active`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", fmt.Errorf("rbac: role lookup: %w", err)
	}
	r := Role(role)
	if !r.Valid() {
		return "", fmt.Errorf("rbac: unknown role %q for user %d", role, userID)
	}
	return r, nil
}

// EffectivePermissions returns the permissions granted to the user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	role, err := s.RoleForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return PermissionsForRole(role), nil
}
