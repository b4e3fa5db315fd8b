package rules

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinel-access/sentinel/internal/authz"
	"github.com/sentinel-access/sentinel/internal/platform/db"
)

// Sentinel errors returned by the repository.
var (
	ErrNotFound      = errors.New("rules: not found")
	ErrDuplicateRule = errors.New("rules: rule already exists for role and element")
)

const ruleColumns = `ar.id, ar.role_id, r.name, ar.element_id, e.name,
	ar.read_permission, ar.read_all_permission, ar.create_permission,
	ar.update_permission, ar.update_all_permission,
	ar.delete_permission, ar.delete_all_permission,
	ar.created_at, ar.updated_at`

// Repository provides PostgreSQL backed persistence for the matrix.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lookup resolves the matrix row for a role and an element name. It reads
// current storage state on every call so policy edits apply on the next
// decision.
func (r *Repository) Lookup(ctx context.Context, roleID int64, element string) (authz.RuleFlags, error) {
	var elementID int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM business_elements WHERE name = $1`, element).Scan(&elementID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.RuleFlags{}, authz.ErrUnknownElement
		}
		return authz.RuleFlags{}, err
	}

	var flags authz.RuleFlags
	err = r.pool.QueryRow(ctx, `SELECT
		read_permission, read_all_permission, create_permission,
		update_permission, update_all_permission,
		delete_permission, delete_all_permission
		FROM access_role_rules WHERE role_id = $1 AND element_id = $2`,
		roleID, elementID).Scan(
		&flags.Read, &flags.ReadAll, &flags.Create,
		&flags.Update, &flags.UpdateAll,
		&flags.Delete, &flags.DeleteAll)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.RuleFlags{}, authz.ErrRuleNotFound
		}
		return authz.RuleFlags{}, err
	}
	return flags, nil
}

// ListRoles returns all roles ordered by id.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ListElements returns all business elements ordered by id.
func (r *Repository) ListElements(ctx context.Context) ([]BusinessElement, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM business_elements ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var elements []BusinessElement
	for rows.Next() {
		var element BusinessElement
		if err := rows.Scan(&element.ID, &element.Name, &element.Description, &element.CreatedAt, &element.UpdatedAt); err != nil {
			return nil, err
		}
		elements = append(elements, element)
	}
	return elements, rows.Err()
}

// ListRules returns all matrix rows with role and element names resolved.
func (r *Repository) ListRules(ctx context.Context) ([]AccessRule, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ruleColumns+`
		FROM access_role_rules ar
		JOIN roles r ON r.id = ar.role_id
		JOIN business_elements e ON e.id = ar.element_id
		ORDER BY ar.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []AccessRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}

// GetRule fetches one matrix row by id.
func (r *Repository) GetRule(ctx context.Context, id int64) (AccessRule, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+ruleColumns+`
		FROM access_role_rules ar
		JOIN roles r ON r.id = ar.role_id
		JOIN business_elements e ON e.id = ar.element_id
		WHERE ar.id = $1`, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccessRule{}, ErrNotFound
		}
		return AccessRule{}, err
	}
	return rule, nil
}

// CreateRule inserts a matrix row and reads it back with names resolved,
// both inside one transaction. The unique (role_id, element_id) constraint
// maps to ErrDuplicateRule. Unknown role or element ids map to ErrNotFound
// via the foreign keys.
func (r *Repository) CreateRule(ctx context.Context, roleID, elementID int64, flags authz.RuleFlags) (AccessRule, error) {
	var rule AccessRule
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx, `INSERT INTO access_role_rules
			(role_id, element_id, read_permission, read_all_permission, create_permission,
			 update_permission, update_all_permission, delete_permission, delete_all_permission)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			roleID, elementID, flags.Read, flags.ReadAll, flags.Create,
			flags.Update, flags.UpdateAll, flags.Delete, flags.DeleteAll).Scan(&id); err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `SELECT `+ruleColumns+`
			FROM access_role_rules ar
			JOIN roles r ON r.id = ar.role_id
			JOIN business_elements e ON e.id = ar.element_id
			WHERE ar.id = $1`, id)
		var err error
		rule, err = scanRule(row)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return AccessRule{}, ErrDuplicateRule
			case "23503":
				return AccessRule{}, ErrNotFound
			}
		}
		return AccessRule{}, err
	}
	return rule, nil
}

// UpdateRule replaces the flags of a matrix row.
func (r *Repository) UpdateRule(ctx context.Context, id int64, flags authz.RuleFlags) (AccessRule, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE access_role_rules SET
		read_permission = $2, read_all_permission = $3, create_permission = $4,
		update_permission = $5, update_all_permission = $6,
		delete_permission = $7, delete_all_permission = $8,
		updated_at = now()
		WHERE id = $1`,
		id, flags.Read, flags.ReadAll, flags.Create,
		flags.Update, flags.UpdateAll, flags.Delete, flags.DeleteAll)
	if err != nil {
		return AccessRule{}, err
	}
	if tag.RowsAffected() == 0 {
		return AccessRule{}, ErrNotFound
	}
	return r.GetRule(ctx, id)
}

// DeleteRule removes a matrix row by id.
func (r *Repository) DeleteRule(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM access_role_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRule(row pgx.Row) (AccessRule, error) {
	var rule AccessRule
	err := row.Scan(&rule.ID, &rule.RoleID, &rule.RoleName, &rule.ElementID, &rule.ElementName,
		&rule.Flags.Read, &rule.Flags.ReadAll, &rule.Flags.Create,
		&rule.Flags.Update, &rule.Flags.UpdateAll,
		&rule.Flags.Delete, &rule.Flags.DeleteAll,
		&rule.CreatedAt, &rule.UpdatedAt)
	return rule, err
}

var _ authz.RuleStore = (*Repository)(nil)
