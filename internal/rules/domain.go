// Package rules holds the role → business-element permission matrix and
// the administrative operations that edit it.
package rules

import (
	"time"

	"github.com/sentinel-access/sentinel/internal/authz"
)

// Role is a named class of users determining a permission set.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BusinessElement names a protected resource type. It has no relation to
// the storage of that resource's records.
type BusinessElement struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccessRule is the matrix row for one (role, element) pair. At most one
// rule exists per pair; absence means all flags false.
type AccessRule struct {
	ID          int64
	RoleID      int64
	RoleName    string
	ElementID   int64
	ElementName string
	Flags       authz.RuleFlags
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
