package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-access/sentinel/internal/users"
)

type stubDirectory struct {
	byID map[int64]*users.User
	err  error
}

func (d *stubDirectory) FindByID(_ context.Context, id int64) (*users.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	user, ok := d.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

type stubSessionStore struct {
	sessions map[string]Session
	revoked  []string
	err      error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]Session)}
}

func (s *stubSessionStore) CreateOrRefresh(_ context.Context, userID int64, token string) (Session, error) {
	if s.err != nil {
		return Session{}, s.err
	}
	sess := Session{Token: token, UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}
	s.sessions[token] = sess
	return sess, nil
}

func (s *stubSessionStore) Lookup(_ context.Context, token string) (Session, error) {
	if s.err != nil {
		return Session{}, s.err
	}
	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *stubSessionStore) Revoke(_ context.Context, token string) error {
	if s.err != nil {
		return s.err
	}
	s.revoked = append(s.revoked, token)
	delete(s.sessions, token)
	return nil
}

func (s *stubSessionStore) RevokeAll(_ context.Context, userID int64) error {
	if s.err != nil {
		return s.err
	}
	for token, sess := range s.sessions {
		if sess.UserID == userID {
			s.revoked = append(s.revoked, token)
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *stubSessionStore) DeleteExpired(context.Context) (int64, error) {
	return 0, s.err
}

func activeUser(id int64) *users.User {
	return &users.User{
		ID:       id,
		Email:    "user@example.com",
		IsActive: true,
		Role:     &users.Role{ID: 1, Name: "user"},
	}
}

func TestResolveBearerToken(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	directory := &stubDirectory{byID: map[int64]*users.User{42: activeUser(42)}}
	resolver := NewResolver(directory, newStubSessionStore(), tokens)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	identity, err := resolver.Resolve(context.Background(), Credentials{BearerToken: token})
	require.NoError(t, err)
	require.NotNil(t, identity)
	require.Equal(t, int64(42), identity.UserID)
	require.NotNil(t, identity.Role)
	require.Equal(t, "user", identity.Role.Name)
}

func TestResolveInvalidBearerFallsThroughToSession(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	directory := &stubDirectory{byID: map[int64]*users.User{42: activeUser(42)}}
	sessions := newStubSessionStore()
	sessions.sessions["opaque"] = Session{Token: "opaque", UserID: 42, ExpiresAt: time.Now().Add(time.Hour)}
	resolver := NewResolver(directory, sessions, tokens)

	identity, err := resolver.Resolve(context.Background(), Credentials{
		BearerToken:  "garbage",
		SessionToken: "opaque",
	})
	require.NoError(t, err)
	require.NotNil(t, identity)
	require.Equal(t, int64(42), identity.UserID)
}

func TestResolveBearerForMissingUserFallsThrough(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	directory := &stubDirectory{byID: map[int64]*users.User{}}
	resolver := NewResolver(directory, newStubSessionStore(), tokens)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	identity, err := resolver.Resolve(context.Background(), Credentials{BearerToken: token})
	require.NoError(t, err)
	require.Nil(t, identity)
}

func TestResolveInactiveUserIsAnonymous(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	deactivated := activeUser(42)
	deactivated.IsActive = false
	directory := &stubDirectory{byID: map[int64]*users.User{42: deactivated}}
	sessions := newStubSessionStore()
	sessions.sessions["opaque"] = Session{Token: "opaque", UserID: 42, ExpiresAt: time.Now().Add(time.Hour)}
	resolver := NewResolver(directory, sessions, tokens)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	identity, err := resolver.Resolve(context.Background(), Credentials{
		BearerToken:  token,
		SessionToken: "opaque",
	})
	require.NoError(t, err)
	require.Nil(t, identity)
}

func TestResolveRevokedSessionIsAnonymous(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	directory := &stubDirectory{byID: map[int64]*users.User{42: activeUser(42)}}
	resolver := NewResolver(directory, newStubSessionStore(), tokens)

	identity, err := resolver.Resolve(context.Background(), Credentials{SessionToken: "revoked"})
	require.NoError(t, err)
	require.Nil(t, identity)
}

func TestResolveNoCredentials(t *testing.T) {
	resolver := NewResolver(&stubDirectory{}, newStubSessionStore(), NewTokenManager("test-secret", time.Hour))

	identity, err := resolver.Resolve(context.Background(), Credentials{})
	require.NoError(t, err)
	require.Nil(t, identity)
}

func TestResolveStorageFailurePropagates(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	storageErr := errors.New("connection refused")
	directory := &stubDirectory{err: storageErr}
	resolver := NewResolver(directory, newStubSessionStore(), tokens)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), Credentials{BearerToken: token})
	require.ErrorIs(t, err, storageErr)
}
