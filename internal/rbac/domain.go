package rbac

import "time"

// Permission represents an atomic capability with a globally unique name.
type Permission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Role groups permissions under a globally unique name. Permissions is only
// populated where the operation defines the set, e.g. on creation.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
