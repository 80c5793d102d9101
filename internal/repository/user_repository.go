package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/yourorg/jobtrack/internal/domain"
)

// uniqueViolation is the Postgres error code for unique constraint violations
const uniqueViolation = "23505"

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user. A duplicate username is translated to
// domain.ErrUsernameTaken so callers never see the raw driver error.
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, user.Username, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrUsernameTaken
		}
		r.logger.Error("failed to create user",
			slog.String("username", user.Username),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user := &domain.User{}

	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get user by id",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user := &domain.User{}

	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`

	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}
