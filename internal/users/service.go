package users

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/keygate/keygate/internal/shared"
)

// Service wraps account business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates an account, storing only a bcrypt hash of the password.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, strings.TrimSpace(name), normalizeEmail(email), string(hash))
}

// VerifyCredentials validates an email/password pair. Any miss, whether the
// account is unknown or the password wrong, reports the same error. The hash
// comparison itself is constant-time.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// FindByID fetches a user by id.
func (s *Service) FindByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
