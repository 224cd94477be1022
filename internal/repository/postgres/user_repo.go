package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/efreeman/diplomat/internal/model"
)

// UserRepo handles the durable users table: username, password hash,
// and admin flag. Usernames are stored as given; the HTTP handlers
// lowercase them before they reach the registry.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindByUsername looks up a user by username, returning (nil, nil) if
// none exists.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT username, password_hash, is_admin, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &u, nil
}

// Add inserts a new user. It fails if username is already taken.
func (r *UserRepo) Add(ctx context.Context, u *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, is_admin, created_at) VALUES ($1, $2, $3, $4)`,
		u.Username, u.PasswordHash, u.IsAdmin, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

// Replace overwrites an existing user's password hash and admin flag.
func (r *UserRepo) Replace(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, is_admin = $2 WHERE username = $3`,
		u.PasswordHash, u.IsAdmin, u.Username,
	)
	if err != nil {
		return fmt.Errorf("replace user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace user: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Remove deletes a user by username.
func (r *UserRepo) Remove(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	return nil
}
