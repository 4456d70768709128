package repository

import (
	"context"
	"errors"
	"fmt"

	"propelize/internal/apperr"
	"propelize/internal/model"

	"github.com/jackc/pgx/v5"
)

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id int, fields model.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id int) (bool, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user and fills in its ID and timestamps.
// A duplicate email surfaces as an apperr Conflict.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (name, email, password_hash, role)
            VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, user.Name, user.Email, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", apperr.MapDBError(err))
	}
	return nil
}

// FindByEmail retrieves a user by email, including the password hash for login
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT id, name, email, password_hash, role, created_at, updated_at FROM users WHERE email = $1`
	err := r.db.QueryRow(ctx, sql, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found is not an error for this method's contract
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByID retrieves a user by their ID. The password hash is not loaded.
func (r *userRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT id, name, email, role, created_at, updated_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindAll lists every user ordered by ID
func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	sql := `SELECT id, name, email, role, created_at, updated_at FROM users ORDER BY id`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// Update applies the non-nil fields and returns the updated user, or nil if no such user exists.
func (r *userRepository) Update(ctx context.Context, id int, fields model.UserUpdate) (*model.User, error) {
	user := &model.User{}
	sql := `UPDATE users
            SET name = COALESCE($1, name), email = COALESCE($2, email),
                password_hash = COALESCE($3, password_hash), role = COALESCE($4, role), updated_at = NOW()
            WHERE id = $5 RETURNING id, name, email, role, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, fields.Name, fields.Email, fields.PasswordHash, fields.Role, id).
		Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update user: %w", apperr.MapDBError(err))
	}
	return user, nil
}

// Delete removes a user. It reports false when no row matched.
func (r *userRepository) Delete(ctx context.Context, id int) (bool, error) {
	sql := `DELETE FROM users WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}
