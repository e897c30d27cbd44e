package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/procuredesk/procuredesk/internal/shared"
)

// Service checks operator credentials and tracks login sessions.
type Service struct {
	repo Repository
}

// NewService builds the auth service over the given store.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate verifies an email/password pair. Unknown accounts,
// deactivated accounts and wrong passwords collapse into the same
// opaque error so callers cannot probe for registered emails.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil || !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterSession records the session row with its expiry and client
// metadata.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession drops the session row on logout.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
