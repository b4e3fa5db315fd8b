package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubRuleStore struct {
	rules   map[string]RuleFlags
	err     error
	lookups int
}

func (s *stubRuleStore) Lookup(_ context.Context, _ int64, element string) (RuleFlags, error) {
	s.lookups++
	if s.err != nil {
		return RuleFlags{}, s.err
	}
	flags, ok := s.rules[element]
	if !ok {
		return RuleFlags{}, ErrUnknownElement
	}
	return flags, nil
}

func member(role string) *Identity {
	return &Identity{UserID: 7, Role: &Role{ID: 1, Name: role}, Active: true}
}

func ownerOf(id int64) OwnerResolver {
	return func(context.Context) (int64, bool, error) {
		return id, true, nil
	}
}

func TestAuthorizeAnonymous(t *testing.T) {
	engine := NewEngine(&stubRuleStore{})
	decision, err := engine.Authorize(context.Background(), nil, "products", ActionRead, nil)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonUnauthenticated, decision.Reason)
}

func TestAuthorizeSuperuserSkipsRules(t *testing.T) {
	store := &stubRuleStore{}
	engine := NewEngine(store)
	identity := &Identity{UserID: 1, Superuser: true, Active: true}

	decision, err := engine.Authorize(context.Background(), identity, "anything", ActionDelete, ownerOf(99))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Zero(t, store.lookups)
}

func TestAuthorizeNoRole(t *testing.T) {
	engine := NewEngine(&stubRuleStore{})
	identity := &Identity{UserID: 7, Active: true}

	decision, err := engine.Authorize(context.Background(), identity, "products", ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, ReasonNoRole, decision.Reason)
}

func TestAuthorizeUnknownElement(t *testing.T) {
	engine := NewEngine(&stubRuleStore{rules: map[string]RuleFlags{}})
	decision, err := engine.Authorize(context.Background(), member("user"), "ghosts", ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, ReasonUnknownElement, decision.Reason)
}

func TestAuthorizeNoRuleForRole(t *testing.T) {
	store := &stubRuleStore{err: ErrRuleNotFound}
	engine := NewEngine(store)
	decision, err := engine.Authorize(context.Background(), member("user"), "products", ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, ReasonForbidden, decision.Reason)
}

func TestAuthorizeNeitherGrant(t *testing.T) {
	store := &stubRuleStore{rules: map[string]RuleFlags{"products": {Read: true}}}
	engine := NewEngine(store)
	decision, err := engine.Authorize(context.Background(), member("user"), "products", ActionUpdate, nil)
	require.NoError(t, err)
	require.Equal(t, ReasonForbidden, decision.Reason)
}

func TestAuthorizeOwnRecord(t *testing.T) {
	store := &stubRuleStore{rules: map[string]RuleFlags{"products": {Update: true}}}
	engine := NewEngine(store)
	decision, err := engine.Authorize(context.Background(), member("user"), "products", ActionUpdate, ownerOf(7))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestAuthorizeForeignRecordWithoutBroadGrant(t *testing.T) {
	store := &stubRuleStore{rules: map[string]RuleFlags{"products": {Update: true}}}
	engine := NewEngine(store)
	decision, err := engine.Authorize(context.Background(), member("user"), "products", ActionUpdate, ownerOf(42))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonNotOwner, decision.Reason)
}

func TestAuthorizeForeignRecordWithBroadGrant(t *testing.T) {
	store := &stubRuleStore{rules: map[string]RuleFlags{"products": {Update: true, UpdateAll: true}}}
	engine := NewEngine(store)
	decision, err := engine.Authorize(context.Background(), member("manager"), "products", ActionUpdate, ownerOf(42))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestAuthorizeBroadGrantAlone(t *testing.T) {
	// ReadAll without Read still satisfies a read request.
	store := &stubRuleStore{rules: map[string]RuleFlags{"products": {ReadAll: true}}}
	engine := NewEngine(store)
	decision, err := engine.Authorize(context.Background(), member("auditor"), "products", ActionRead, ownerOf(42))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestAuthorizeCreateIgnoresOwnership(t *testing.T) {
	store := &stubRuleStore{rules: map[string]RuleFlags{"products": {Create: true}}}
	engine := NewEngine(store)
	resolverCalled := false
	resolver := func(context.Context) (int64, bool, error) {
		resolverCalled = true
		return 42, true, nil
	}

	decision, err := engine.Authorize(context.Background(), member("user"), "products", ActionCreate, resolver)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.False(t, resolverCalled)
}

func TestAuthorizeMissingResourceAllows(t *testing.T) {
	store := &stubRuleStore{rules: map[string]RuleFlags{"products": {Delete: true}}}
	engine := NewEngine(store)
	resolver := func(context.Context) (int64, bool, error) {
		return 0, false, nil
	}

	decision, err := engine.Authorize(context.Background(), member("user"), "products", ActionDelete, resolver)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestAuthorizeStorageFailure(t *testing.T) {
	storageErr := errors.New("connection reset")
	engine := NewEngine(&stubRuleStore{err: storageErr})
	_, err := engine.Authorize(context.Background(), member("user"), "products", ActionRead, nil)
	require.ErrorIs(t, err, storageErr)
}

func TestAuthorizeOwnerResolverFailure(t *testing.T) {
	store := &stubRuleStore{rules: map[string]RuleFlags{"products": {Read: true}}}
	engine := NewEngine(store)
	resolverErr := errors.New("query timeout")
	resolver := func(context.Context) (int64, bool, error) {
		return 0, false, resolverErr
	}

	_, err := engine.Authorize(context.Background(), member("user"), "products", ActionRead, resolver)
	require.ErrorIs(t, err, resolverErr)
}

func TestHasBroadPermission(t *testing.T) {
	store := &stubRuleStore{rules: map[string]RuleFlags{
		"products": {Read: true, ReadAll: true},
		"orders":   {Read: true},
	}}
	engine := NewEngine(store)
	ctx := context.Background()

	broad, err := engine.HasBroadPermission(ctx, member("manager"), "products", ActionRead)
	require.NoError(t, err)
	require.True(t, broad)

	broad, err = engine.HasBroadPermission(ctx, member("manager"), "orders", ActionRead)
	require.NoError(t, err)
	require.False(t, broad)

	broad, err = engine.HasBroadPermission(ctx, member("manager"), "ghosts", ActionRead)
	require.NoError(t, err)
	require.False(t, broad)

	broad, err = engine.HasBroadPermission(ctx, nil, "products", ActionRead)
	require.NoError(t, err)
	require.False(t, broad)

	broad, err = engine.HasBroadPermission(ctx, &Identity{UserID: 1, Superuser: true}, "ghosts", ActionDelete)
	require.NoError(t, err)
	require.True(t, broad)
}

func TestHasBroadPermissionCreateAlwaysFalse(t *testing.T) {
	store := &stubRuleStore{rules: map[string]RuleFlags{"products": {Create: true, ReadAll: true}}}
	engine := NewEngine(store)

	broad, err := engine.HasBroadPermission(context.Background(), member("user"), "products", ActionCreate)
	require.NoError(t, err)
	require.False(t, broad)
}
