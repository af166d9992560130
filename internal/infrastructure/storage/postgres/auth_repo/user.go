// Package auth_repo provides PostgreSQL implementations for auth
// repositories. User rows are tenant-scoped; email is unique per tenant.
package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"invenda/internal/core/apperror"
	"invenda/internal/core/id"
	"invenda/internal/core/tenant"
	"invenda/internal/domain/auth"
	"invenda/internal/infrastructure/storage/postgres"
)

// UserRepo implements auth.UserRepository.
type UserRepo struct{}

// NewUserRepo creates a new user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{}
}

// getTxManager retrieves TxManager from context.
func (r *UserRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

func (r *UserRepo) tenantID(ctx context.Context) (string, error) {
	tenantID := tenant.GetTenantID(ctx)
	if tenantID == "" {
		return "", apperror.NewValidation("tenant is required")
	}
	return tenantID, nil
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `
		INSERT INTO auth_users (
			id, tenant_id, email, password_hash, full_name, roles,
			is_active, is_admin, failed_login_attempts,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := q.Exec(ctx, query,
		user.ID, user.TenantID, user.Email, user.PasswordHash,
		user.FullName, user.Roles, user.IsActive, user.IsAdmin,
		user.FailedLoginAttempts, user.CreatedAt, user.UpdatedAt, user.Version,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

const userSelect = `
	SELECT id, tenant_id, email, password_hash, full_name, roles,
		   is_active, is_admin, last_login_at,
		   failed_login_attempts, locked_until,
		   created_at, updated_at, version
	FROM auth_users
`

func (r *UserRepo) scanUser(row pgx.Row) (*auth.User, error) {
	var user auth.User
	err := row.Scan(
		&user.ID, &user.TenantID, &user.Email, &user.PasswordHash,
		&user.FullName, &user.Roles, &user.IsActive, &user.IsAdmin,
		&user.LastLoginAt, &user.FailedLoginAttempts, &user.LockedUntil,
		&user.CreatedAt, &user.UpdatedAt, &user.Version,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.getTxManager(ctx).GetQuerier(ctx)
	query := userSelect + ` WHERE id = $1 AND tenant_id = $2`

	user, err := r.scanUser(q.QueryRow(ctx, query, userID, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves user by email within the current tenant.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.getTxManager(ctx).GetQuerier(ctx)
	query := userSelect + ` WHERE email = $1 AND tenant_id = $2`

	user, err := r.scanUser(q.QueryRow(ctx, query, email, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

// Update updates user data with optimistic locking.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `
		UPDATE auth_users SET
			full_name = $3,
			roles = $4,
			is_active = $5,
			is_admin = $6,
			last_login_at = $7,
			failed_login_attempts = $8,
			locked_until = $9,
			updated_at = now(),
			version = version + 1
		WHERE id = $1 AND tenant_id = $2 AND version = $10
	`

	result, err := q.Exec(ctx, query,
		user.ID, tenantID, user.FullName, user.Roles,
		user.IsActive, user.IsAdmin, user.LastLoginAt,
		user.FailedLoginAttempts, user.LockedUntil,
		user.Version,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID)
	}

	user.Version++
	return nil
}

// Delete removes a user and revokes any outstanding tokens via FK cascade.
func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `DELETE FROM auth_users WHERE id = $1 AND tenant_id = $2`
	result, err := q.Exec(ctx, query, userID, tenantID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}

	return nil
}

// List retrieves users with filtering.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, int, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, 0, err
	}

	q := r.getTxManager(ctx).GetQuerier(ctx)

	where := ` WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

	if filter.Search != "" {
		where += fmt.Sprintf(" AND (email ILIKE $%d OR full_name ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	if filter.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}

	if filter.Role != "" {
		where += fmt.Sprintf(" AND $%d = ANY(roles)", argIdx)
		args = append(args, filter.Role)
		argIdx++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM auth_users` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := userSelect + where + " ORDER BY email ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	return users, total, nil
}

// Exists checks if email exists within the current tenant.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return false, err
	}

	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `SELECT EXISTS(SELECT 1 FROM auth_users WHERE email = $1 AND tenant_id = $2)`

	var exists bool
	if err := q.QueryRow(ctx, query, email, tenantID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}

	return exists, nil
}

// Ensure interface compliance
var _ auth.UserRepository = (*UserRepo)(nil)
