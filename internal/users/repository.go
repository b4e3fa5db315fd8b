package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors returned by the repository.
var (
	ErrNotFound       = errors.New("users: not found")
	ErrDuplicateEmail = errors.New("users: email already registered")
)

const userColumns = `u.id, u.email, u.first_name, u.last_name, u.middle_name,
	u.password_hash, u.is_active, u.is_superuser, u.role_id, r.name,
	u.created_at, u.updated_at`

// Repository provides PostgreSQL backed persistence for user accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID fetches a user with its role by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+`
		FROM users u LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user with its role by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+`
		FROM users u LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.email = $1`, email)
	return scanUser(row)
}

// Create inserts a new account. Duplicate emails map to ErrDuplicateEmail.
func (r *Repository) Create(ctx context.Context, params NewUserParams) (*User, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO users
		(email, first_name, last_name, middle_name, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id`,
		params.Email, params.FirstName, params.LastName, params.MiddleName, params.PasswordHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// UpdateProfile applies the non-nil fields of update to the user row.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET
		email       = COALESCE($2, email),
		first_name  = COALESCE($3, first_name),
		last_name   = COALESCE($4, last_name),
		middle_name = COALESCE($5, middle_name),
		updated_at  = now()
		WHERE id = $1`,
		id, update.Email, update.FirstName, update.LastName, update.MiddleName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Deactivate soft-deletes the account.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignRole sets or clears the role of a user.
func (r *Repository) AssignRole(ctx context.Context, id int64, roleID *int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role_id = $2, updated_at = now() WHERE id = $1`, id, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		user     User
		roleID   *int64
		roleName *string
	)
	err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.MiddleName,
		&user.PasswordHash, &user.IsActive, &user.IsSuperuser, &roleID, &roleName,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if roleID != nil && roleName != nil {
		user.Role = &Role{ID: *roleID, Name: *roleName}
	}
	return &user, nil
}
