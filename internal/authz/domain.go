// Package authz implements the authorization decision engine: a role ×
// business-element × action permission matrix with own/all scoping.
package authz

import "errors"

// Action is a permission check requested by a caller. The *_all variants of
// the matrix are never requested directly; they are the scope-widening
// counterparts resolved inside the engine.
type Action string

// Supported actions.
const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether the action is one of the supported kinds.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// RuleFlags is one row of the permission matrix: seven independent grants
// for a (role, element) pair. Create has no broad variant because creation
// is never ownership-scoped.
type RuleFlags struct {
	Read      bool
	ReadAll   bool
	Create    bool
	Update    bool
	UpdateAll bool
	Delete    bool
	DeleteAll bool
}

// grants returns the own-scoped and broad grant for the action. The broad
// grant is false for create. The switch is exhaustive over valid actions.
func (f RuleFlags) grants(a Action) (base, broad bool) {
	switch a {
	case ActionRead:
		return f.Read, f.ReadAll
	case ActionCreate:
		return f.Create, false
	case ActionUpdate:
		return f.Update, f.UpdateAll
	case ActionDelete:
		return f.Delete, f.DeleteAll
	}
	return false, false
}

// Role is the role slice of an identity, enough for rule lookup.
type Role struct {
	ID   int64
	Name string
}

// Identity is the request-scoped snapshot of the acting user. A nil
// *Identity means the request is anonymous. Role is nil for users without
// an assigned role; such users have zero permissions everywhere unless
// they are superusers.
type Identity struct {
	UserID    int64
	Role      *Role
	Superuser bool
	Active    bool
}

// Reason explains a denial.
type Reason string

// Denial reasons, mapped by convention to 401 (unauthenticated),
// 403 (no_role, forbidden, not_owner) and 404 (unknown_element).
const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNoRole          Reason = "no_role"
	ReasonUnknownElement  Reason = "unknown_element"
	ReasonForbidden       Reason = "forbidden"
	ReasonNotOwner        Reason = "not_owner"
)

// Decision is the outcome of an authorization check. Denials are ordinary
// values, not errors; only storage failures surface as errors.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the affirmative decision.
var Allow = Decision{Allowed: true}

// Deny builds a denial with the given reason.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Rule store failure shapes. An unknown element is a configuration error
// distinct from a role simply having no rule for a known element.
var (
	ErrUnknownElement = errors.New("authz: unknown business element")
	ErrRuleNotFound   = errors.New("authz: no rule for role and element")
)
