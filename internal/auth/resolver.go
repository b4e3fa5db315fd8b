package auth

import (
	"context"
	"errors"

	"github.com/sentinel-access/sentinel/internal/authz"
	"github.com/sentinel-access/sentinel/internal/users"
)

// UserDirectory is the slice of user storage the resolver needs.
type UserDirectory interface {
	FindByID(ctx context.Context, id int64) (*users.User, error)
}

// Credentials carries the raw material of the two authentication channels.
// Either field may be empty.
type Credentials struct {
	BearerToken  string
	SessionToken string
}

// Resolver turns raw credentials into a verified identity or nil for
// anonymous. Resolution is side-effect free: it never mutates session or
// user state.
type Resolver struct {
	users    UserDirectory
	sessions SessionStore
	tokens   *TokenManager
}

// NewResolver constructs a Resolver.
func NewResolver(directory UserDirectory, sessions SessionStore, tokens *TokenManager) *Resolver {
	return &Resolver{users: directory, sessions: sessions, tokens: tokens}
}

// Resolve tries the bearer channel first, then the session channel. A
// malformed, badly signed or expired bearer token is treated as absent and
// falls through; so does a bearer token naming a missing or deactivated
// user. Only storage failures return a non-nil error.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (*authz.Identity, error) {
	if creds.BearerToken != "" {
		userID, err := r.tokens.Verify(creds.BearerToken)
		if err == nil {
			user, err := r.users.FindByID(ctx, userID)
			switch {
			case err == nil && user.IsActive:
				return identityOf(user), nil
			case err != nil && !errors.Is(err, users.ErrNotFound):
				return nil, err
			}
		}
	}

	if creds.SessionToken != "" {
		sess, err := r.sessions.Lookup(ctx, creds.SessionToken)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				return nil, nil
			}
			return nil, err
		}
		user, err := r.users.FindByID(ctx, sess.UserID)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if user.IsActive {
			return identityOf(user), nil
		}
	}

	return nil, nil
}

func identityOf(user *users.User) *authz.Identity {
	identity := &authz.Identity{
		UserID:    user.ID,
		Superuser: user.IsSuperuser,
		Active:    user.IsActive,
	}
	if user.Role != nil {
		identity.Role = &authz.Role{ID: user.Role.ID, Name: user.Role.Name}
	}
	return identity
}
