package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/sentinel-access/sentinel/internal/users"
)

// Account flow errors.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountDisabled    = errors.New("auth: account deactivated")
	ErrEmailTaken         = errors.New("auth: email already registered")
)

// UserRepository is the slice of user storage the account service needs.
type UserRepository interface {
	UserDirectory
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	Create(ctx context.Context, params users.NewUserParams) (*users.User, error)
	UpdateProfile(ctx context.Context, id int64, update users.ProfileUpdate) (*users.User, error)
	Deactivate(ctx context.Context, id int64) error
}

// Service wraps registration, login and account lifecycle rules.
type Service struct {
	users    UserRepository
	sessions SessionStore
	tokens   *TokenManager
}

// NewService constructs a Service.
func NewService(repo UserRepository, sessions SessionStore, tokens *TokenManager) *Service {
	return &Service{users: repo, sessions: sessions, tokens: tokens}
}

// RegisterParams carries the input of Register.
type RegisterParams struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	MiddleName string
}

// Register creates an account, issues a bearer token and opens a session
// carrying the same token string.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*users.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user, err := s.users.Create(ctx, users.NewUserParams{
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		MiddleName:   params.MiddleName,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}
	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login validates email/password credentials and opens a session. Unknown
// emails and wrong passwords are indistinguishable to the caller;
// deactivated accounts are reported separately.
func (s *Service) Login(ctx context.Context, email, password string) (*users.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrAccountDisabled
	}
	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes the sessions named by the given tokens. Absent tokens are
// ignored.
func (s *Service) Logout(ctx context.Context, tokens ...string) error {
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if err := s.sessions.Revoke(ctx, token); err != nil {
			return err
		}
	}
	return nil
}

// Profile fetches the account of the acting user.
func (s *Service) Profile(ctx context.Context, userID int64) (*users.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, update users.ProfileUpdate) (*users.User, error) {
	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// DeactivateAccount soft-deletes the account and revokes every session of
// the user.
func (s *Service) DeactivateAccount(ctx context.Context, userID int64) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		return err
	}
	return s.sessions.RevokeAll(ctx, userID)
}

// openSession issues a bearer token and records a session for the same
// token string, so the cookie channel can revoke what the header channel
// carries.
func (s *Service) openSession(ctx context.Context, userID int64) (string, error) {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		return "", err
	}
	if _, err := s.sessions.CreateOrRefresh(ctx, userID, token); err != nil {
		return "", err
	}
	return token, nil
}
