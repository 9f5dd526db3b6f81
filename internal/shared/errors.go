package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a missing, malformed, forged or expired bearer token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrDuplicateEmail occurs when registering an email that is already taken.
	ErrDuplicateEmail = errors.New("email already taken")
	// ErrDuplicateName occurs when a role or permission name is already taken.
	ErrDuplicateName = errors.New("name already taken")
	// ErrUnknownUser occurs when a referenced user id does not exist.
	ErrUnknownUser = errors.New("unknown user")
	// ErrUnknownRole occurs when a referenced role id does not exist.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownPermission occurs when a referenced permission id does not exist.
	ErrUnknownPermission = errors.New("unknown permission")
)
