package rules

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-access/sentinel/internal/authz"
)

type stubStore struct {
	rules  map[int64]AccessRule
	nextID int64
}

func newStubStore() *stubStore {
	return &stubStore{rules: make(map[int64]AccessRule), nextID: 1}
}

func (s *stubStore) ListRoles(context.Context) ([]Role, error) {
	return []Role{{ID: 1, Name: "admin"}, {ID: 2, Name: "user"}}, nil
}

func (s *stubStore) ListElements(context.Context) ([]BusinessElement, error) {
	return []BusinessElement{{ID: 1, Name: "products"}}, nil
}

func (s *stubStore) ListRules(context.Context) ([]AccessRule, error) {
	out := make([]AccessRule, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, rule)
	}
	return out, nil
}

func (s *stubStore) GetRule(_ context.Context, id int64) (AccessRule, error) {
	rule, ok := s.rules[id]
	if !ok {
		return AccessRule{}, ErrNotFound
	}
	return rule, nil
}

func (s *stubStore) CreateRule(_ context.Context, roleID, elementID int64, flags authz.RuleFlags) (AccessRule, error) {
	for _, rule := range s.rules {
		if rule.RoleID == roleID && rule.ElementID == elementID {
			return AccessRule{}, ErrDuplicateRule
		}
	}
	rule := AccessRule{ID: s.nextID, RoleID: roleID, ElementID: elementID, Flags: flags}
	s.nextID++
	s.rules[rule.ID] = rule
	return rule, nil
}

func (s *stubStore) UpdateRule(_ context.Context, id int64, flags authz.RuleFlags) (AccessRule, error) {
	rule, ok := s.rules[id]
	if !ok {
		return AccessRule{}, ErrNotFound
	}
	rule.Flags = flags
	s.rules[id] = rule
	return rule, nil
}

func (s *stubStore) DeleteRule(_ context.Context, id int64) error {
	if _, ok := s.rules[id]; !ok {
		return ErrNotFound
	}
	delete(s.rules, id)
	return nil
}

func newAdminRouter(store Store) http.Handler {
	handler := NewHandler(nil, NewService(store))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func doAdminRequest(t *testing.T, router http.Handler, method, path string, body any, identity *authz.Identity) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if identity != nil {
		req = req.WithContext(authz.ContextWithIdentity(req.Context(), identity))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func adminIdentity() *authz.Identity {
	return &authz.Identity{UserID: 1, Role: &authz.Role{ID: 1, Name: "admin"}, Active: true}
}

func TestAdminRoutesRequireAuthentication(t *testing.T) {
	router := newAdminRouter(newStubStore())

	rec := doAdminRequest(t, router, http.MethodGet, "/rules", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRejectRegularUsers(t *testing.T) {
	router := newAdminRouter(newStubStore())
	identity := &authz.Identity{UserID: 7, Role: &authz.Role{ID: 2, Name: "user"}, Active: true}

	rec := doAdminRequest(t, router, http.MethodGet, "/rules", nil, identity)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoutesAllowSuperuser(t *testing.T) {
	router := newAdminRouter(newStubStore())
	identity := &authz.Identity{UserID: 1, Superuser: true, Active: true}

	rec := doAdminRequest(t, router, http.MethodGet, "/roles", nil, identity)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateRule(t *testing.T) {
	store := newStubStore()
	router := newAdminRouter(store)

	body := map[string]any{
		"role_id":             2,
		"element_id":          1,
		"read_permission":     true,
		"read_all_permission": false,
		"create_permission":   true,
	}
	rec := doAdminRequest(t, router, http.MethodPost, "/rules", body, adminIdentity())
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Rule struct {
			ID     int64 `json:"id"`
			RoleID int64 `json:"role_id"`
			Read   bool  `json:"read_permission"`
			Create bool  `json:"create_permission"`
		} `json:"rule"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(2), resp.Rule.RoleID)
	require.True(t, resp.Rule.Read)
	require.True(t, resp.Rule.Create)

	// Second rule for the same pair conflicts.
	rec = doAdminRequest(t, router, http.MethodPost, "/rules", body, adminIdentity())
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateRuleValidation(t *testing.T) {
	router := newAdminRouter(newStubStore())

	rec := doAdminRequest(t, router, http.MethodPost, "/rules", map[string]any{"role_id": 0}, adminIdentity())
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteRule(t *testing.T) {
	store := newStubStore()
	_, err := store.CreateRule(context.Background(), 2, 1, authz.RuleFlags{Read: true})
	require.NoError(t, err)
	router := newAdminRouter(store)

	rec := doAdminRequest(t, router, http.MethodPut, "/rules/1", map[string]any{"update_permission": true}, adminIdentity())
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, store.rules[1].Flags.Update)
	require.False(t, store.rules[1].Flags.Read)

	rec = doAdminRequest(t, router, http.MethodDelete, "/rules/1", nil, adminIdentity())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doAdminRequest(t, router, http.MethodGet, "/rules/1", nil, adminIdentity())
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRuleIDValidation(t *testing.T) {
	router := newAdminRouter(newStubStore())

	rec := doAdminRequest(t, router, http.MethodGet, "/rules/abc", nil, adminIdentity())
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
