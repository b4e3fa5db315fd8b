package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sentinel-access/sentinel/internal/users"
)

type stubUserRepo struct {
	stubDirectory
	byEmail     map[string]*users.User
	created     []users.NewUserParams
	deactivated []int64
	nextID      int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		stubDirectory: stubDirectory{byID: make(map[int64]*users.User)},
		byEmail:       make(map[string]*users.User),
		nextID:        1,
	}
}

func (r *stubUserRepo) add(user *users.User) {
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*users.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) Create(_ context.Context, params users.NewUserParams) (*users.User, error) {
	if _, ok := r.byEmail[params.Email]; ok {
		return nil, users.ErrDuplicateEmail
	}
	user := &users.User{
		ID:           r.nextID,
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		MiddleName:   params.MiddleName,
		PasswordHash: params.PasswordHash,
		IsActive:     true,
	}
	r.nextID++
	r.created = append(r.created, params)
	r.add(user)
	return user, nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id int64, update users.ProfileUpdate) (*users.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	if update.Email != nil {
		if other, ok := r.byEmail[*update.Email]; ok && other.ID != id {
			return nil, users.ErrDuplicateEmail
		}
		delete(r.byEmail, user.Email)
		user.Email = *update.Email
		r.byEmail[user.Email] = user
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.MiddleName != nil {
		user.MiddleName = *update.MiddleName
	}
	return user, nil
}

func (r *stubUserRepo) Deactivate(_ context.Context, id int64) error {
	user, ok := r.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	user.IsActive = false
	r.deactivated = append(r.deactivated, id)
	return nil
}

func newTestService() (*Service, *stubUserRepo, *stubSessionStore) {
	repo := newStubUserRepo()
	sessions := newStubSessionStore()
	tokens := NewTokenManager("test-secret", time.Hour)
	return NewService(repo, sessions, tokens), repo, sessions
}

func TestRegisterOpensSession(t *testing.T) {
	service, repo, sessions := newTestService()

	user, token, err := service.Register(context.Background(), RegisterParams{
		Email:    "new@example.com",
		Password: "password1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, user.IsActive)
	require.Len(t, repo.created, 1)

	// Password is stored hashed, never verbatim.
	require.NotEqual(t, "password1", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password1")))

	sess, err := sessions.Lookup(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, sess.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	_, _, err := service.Register(ctx, RegisterParams{Email: "dup@example.com", Password: "password1"})
	require.NoError(t, err)

	_, _, err = service.Register(ctx, RegisterParams{Email: "dup@example.com", Password: "password2"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	service, repo, sessions := newTestService()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.add(&users.User{ID: 42, Email: "known@example.com", PasswordHash: string(hash), IsActive: true})

	user, token, err := service.Login(context.Background(), "known@example.com", "password1")
	require.NoError(t, err)
	require.Equal(t, int64(42), user.ID)

	sess, err := sessions.Lookup(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, int64(42), sess.UserID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	service, repo, _ := newTestService()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.add(&users.User{ID: 42, Email: "known@example.com", PasswordHash: string(hash), IsActive: true})
	ctx := context.Background()

	// Unknown email and wrong password produce the same error.
	_, _, err = service.Login(ctx, "unknown@example.com", "password1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.Login(ctx, "known@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	service, repo, _ := newTestService()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.add(&users.User{ID: 42, Email: "gone@example.com", PasswordHash: string(hash), IsActive: false})

	_, _, err = service.Login(context.Background(), "gone@example.com", "password1")
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLogoutRevokesNamedTokens(t *testing.T) {
	service, _, sessions := newTestService()
	ctx := context.Background()
	_, err := sessions.CreateOrRefresh(ctx, 42, "token-a")
	require.NoError(t, err)

	require.NoError(t, service.Logout(ctx, "token-a", ""))
	require.Equal(t, []string{"token-a"}, sessions.revoked)
}

func TestDeactivateAccountRevokesAllSessions(t *testing.T) {
	service, repo, sessions := newTestService()
	ctx := context.Background()
	repo.add(&users.User{ID: 42, Email: "user@example.com", IsActive: true})
	_, err := sessions.CreateOrRefresh(ctx, 42, "token-a")
	require.NoError(t, err)
	_, err = sessions.CreateOrRefresh(ctx, 42, "token-b")
	require.NoError(t, err)

	require.NoError(t, service.DeactivateAccount(ctx, 42))
	require.False(t, repo.byID[42].IsActive)
	require.Empty(t, sessions.sessions)
}

func TestUpdateProfileDuplicateEmail(t *testing.T) {
	service, repo, _ := newTestService()
	repo.add(&users.User{ID: 1, Email: "one@example.com", IsActive: true})
	repo.add(&users.User{ID: 2, Email: "two@example.com", IsActive: true})

	taken := "one@example.com"
	_, err := service.UpdateProfile(context.Background(), 2, users.ProfileUpdate{Email: &taken})
	require.ErrorIs(t, err, ErrEmailTaken)
}
