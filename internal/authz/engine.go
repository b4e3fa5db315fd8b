package authz

import (
	"context"
	"errors"
)

// RuleStore resolves the matrix row for a role and a business element name.
// Implementations must return ErrUnknownElement when the element name itself
// is not registered and ErrRuleNotFound when the element is known but the
// role has no rule for it. Results must be re-read on every call; a rule can
// change between two decisions.
type RuleStore interface {
	Lookup(ctx context.Context, roleID int64, element string) (RuleFlags, error)
}

// OwnerResolver reports the owner of the resource addressed by the current
// request. found is false when the resource cannot be identified (for
// example it does not exist); the engine then skips ownership enforcement
// and leaves surfacing a not-found condition to the caller.
type OwnerResolver func(ctx context.Context) (ownerID int64, found bool, err error)

// Engine makes allow/deny decisions against a RuleStore.
type Engine struct {
	store RuleStore
}

// NewEngine constructs an Engine.
func NewEngine(store RuleStore) *Engine {
	return &Engine{store: store}
}

// Authorize decides whether identity may perform action on the named
// element. owner may be nil when the operation is not ownership-scoped; it
// is ignored for create. Only storage failures return a non-nil error.
func (e *Engine) Authorize(ctx context.Context, identity *Identity, element string, action Action, owner OwnerResolver) (Decision, error) {
	if identity == nil {
		return Deny(ReasonUnauthenticated), nil
	}
	if identity.Superuser {
		return Allow, nil
	}
	if identity.Role == nil {
		return Deny(ReasonNoRole), nil
	}

	flags, err := e.store.Lookup(ctx, identity.Role.ID, element)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownElement):
			return Deny(ReasonUnknownElement), nil
		case errors.Is(err, ErrRuleNotFound):
			return Deny(ReasonForbidden), nil
		}
		return Decision{}, err
	}

	base, broad := flags.grants(action)
	if !base && !broad {
		return Deny(ReasonForbidden), nil
	}

	if owner == nil || action == ActionCreate {
		return Allow, nil
	}

	ownerID, found, err := owner(ctx)
	if err != nil {
		return Decision{}, err
	}
	if !found || ownerID == identity.UserID {
		return Allow, nil
	}
	if broad {
		return Allow, nil
	}
	return Deny(ReasonNotOwner), nil
}

// HasBroadPermission reports whether identity holds the all-scoped grant for
// action on element. List endpoints use it to decide between returning every
// record and only the caller's own. Unknown elements and missing rules
// report false; only storage failures return an error.
func (e *Engine) HasBroadPermission(ctx context.Context, identity *Identity, element string, action Action) (bool, error) {
	if identity == nil {
		return false, nil
	}
	if identity.Superuser {
		return true, nil
	}
	if identity.Role == nil {
		return false, nil
	}

	flags, err := e.store.Lookup(ctx, identity.Role.ID, element)
	if err != nil {
		if errors.Is(err, ErrUnknownElement) || errors.Is(err, ErrRuleNotFound) {
			return false, nil
		}
		return false, err
	}
	_, broad := flags.grants(action)
	return broad, nil
}
