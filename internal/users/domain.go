package users

import "time"

// User represents a registered account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	IsSuperAdmin bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the JSON view of a user returned by the API. The password hash
// never leaves the server.
type Profile struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile returns the API view of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		IsSuperAdmin: u.IsSuperAdmin,
		CreatedAt:    u.CreatedAt,
	}
}
