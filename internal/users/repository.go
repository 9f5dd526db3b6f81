package users

import "context"

// Repository defines persistence operations for user accounts.
type Repository interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
}
