package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/bubblegut/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrDisplayNameTaken   = errors.New("display name already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
)

const userColumns = `id, email, password_hash, display_name, role, email_verified, created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.EmailVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// mapUserWriteError translates unique violations on users into sentinels
func mapUserWriteError(err error) error {
	switch {
	case isUniqueViolation(err, "users_email_key"):
		return ErrEmailExists
	case isUniqueViolation(err, "users_display_name_lower_key"):
		return ErrDisplayNameTaken
	}
	return err
}

// CreateUser creates a new user in the database
func (db *DB) CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (*models.User, error) {
	user, err := scanUser(db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, role, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, 'user', false, NOW(), NOW())
		RETURNING `+userColumns, email, passwordHash, displayName))
	if err != nil {
		return nil, mapUserWriteError(err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID
func (db *DB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail retrieves a user by their email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// UpdateUserLastLogin updates the user's last login timestamp
func (db *DB) UpdateUserLastLogin(ctx context.Context, id int) error {
	_, err := db.Pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

// SetUserDisplayName sets or clears (nil) a user's display name.
// Names are unique regardless of case.
func (db *DB) SetUserDisplayName(ctx context.Context, id int, displayName *string) (*models.User, error) {
	user, err := scanUser(db.Pool.QueryRow(ctx, `
		UPDATE users SET display_name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, displayName))
	if err != nil {
		return nil, mapUserWriteError(err)
	}
	return user, nil
}

// SetUserRole changes a user's role
func (db *DB) SetUserRole(ctx context.Context, id int, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	return scanUser(db.Pool.QueryRow(ctx, `
		UPDATE users SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, string(role)))
}

// SetUserEmailVerified sets the email_verified flag for a user
func (db *DB) SetUserEmailVerified(ctx context.Context, id int, verified bool) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `
		UPDATE users SET email_verified = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, verified))
}

// SearchUsers returns a page of users matching the query against display
// name, email or exact id, along with the total match count
func (db *DB) SearchUsers(ctx context.Context, params models.UserSearchParams) ([]*models.User, int, error) {
	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	where := "TRUE"
	args := []interface{}{}
	if q := strings.TrimSpace(params.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = "(display_name ILIKE $1 OR email ILIKE $1"
		if id, err := strconv.Atoi(q); err == nil {
			args = append(args, id)
			where += " OR id = $2"
		}
		where += ")"
	}

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)
	rows, err := db.Pool.Query(ctx, query, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, total, rows.Err()
}

// GetAdminStats retrieves system-wide statistics
func (db *DB) GetAdminStats(ctx context.Context) (*models.AdminStats, error) {
	stats := &models.AdminStats{}

	err := db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE last_login_at > NOW() - INTERVAL '24 hours'),
			(SELECT COUNT(*) FROM recipes),
			(SELECT COUNT(*) FROM recipes WHERE status = 'published'),
			(SELECT COUNT(*) FROM recipes WHERE status = 'draft'),
			(SELECT COUNT(*) FROM forum_posts),
			(SELECT COUNT(*) FROM forum_comments),
			(SELECT COUNT(*) FROM recipe_favorites),
			(SELECT COUNT(*) FROM users WHERE display_name IS NULL)
	`).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers24h,
		&stats.TotalRecipes,
		&stats.PublishedRecipes,
		&stats.DraftRecipes,
		&stats.TotalForumPosts,
		&stats.TotalComments,
		&stats.TotalFavorites,
		&stats.UsersWithoutNames,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin stats: %w", err)
	}

	return stats, nil
}
