package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/jobtrack/internal/domain"
)

// PostgresApplicationRepository implements domain.ApplicationRepository using PostgreSQL
type PostgresApplicationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresApplicationRepository creates a new application repository
func NewPostgresApplicationRepository(db *sql.DB, logger *slog.Logger) *PostgresApplicationRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresApplicationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new application owned by app.UserID
func (r *PostgresApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	query := `
		INSERT INTO applications (user_id, company_name, job_title, status, date_applied)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		app.UserID,
		app.CompanyName,
		app.JobTitle,
		app.Status,
		app.DateApplied,
	).Scan(&app.ID)

	if err != nil {
		r.logger.Error("failed to create application",
			slog.Int64("user_id", app.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

// GetByID retrieves an application by its ID regardless of owner.
// The ownership check belongs to the service layer.
func (r *PostgresApplicationRepository) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	app := &domain.Application{}

	query := `
		SELECT id, user_id, company_name, job_title, status, date_applied
		FROM applications
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&app.ID,
		&app.UserID,
		&app.CompanyName,
		&app.JobTitle,
		&app.Status,
		&app.DateApplied,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return app, nil
}

// ListByUser returns all applications for a user, most recent first
func (r *PostgresApplicationRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Application, error) {
	query := `
		SELECT id, user_id, company_name, job_title, status, date_applied
		FROM applications
		WHERE user_id = $1
		ORDER BY id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to list applications",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	return scanApplications(rows)
}

// ListPage returns one page of a user's applications ordered by descending id
func (r *PostgresApplicationRepository) ListPage(ctx context.Context, userID int64, limit, offset int) ([]*domain.Application, error) {
	query := `
		SELECT id, user_id, company_name, job_title, status, date_applied
		FROM applications
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list application page: %w", err)
	}
	defer rows.Close()

	return scanApplications(rows)
}

// CountByUser returns the total number of applications owned by a user
func (r *PostgresApplicationRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int

	query := `SELECT COUNT(id) FROM applications WHERE user_id = $1`

	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}

	return count, nil
}

// Update overwrites every mutable field of an application
func (r *PostgresApplicationRepository) Update(ctx context.Context, app *domain.Application) error {
	query := `
		UPDATE applications
		SET company_name = $1, job_title = $2, status = $3, date_applied = $4
		WHERE id = $5
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		app.CompanyName,
		app.JobTitle,
		app.Status,
		app.DateApplied,
		app.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}

	return requireRow(result)
}

// UpdateStatus changes only the status field
func (r *PostgresApplicationRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	query := `UPDATE applications SET status = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}

	return requireRow(result)
}

// Delete removes an application permanently
func (r *PostgresApplicationRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM applications WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}

	return requireRow(result)
}

// StatusCounts returns how many applications a user has per status value
func (r *PostgresApplicationRepository) StatusCounts(ctx context.Context, userID int64) (map[domain.Status]int, error) {
	query := `
		SELECT status, COUNT(id)
		FROM applications
		WHERE user_id = $1
		GROUP BY status
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status domain.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// GlobalStatusCounts returns stored-application counts per status across all
// users. Used by the stats worker to refresh gauges.
func (r *PostgresApplicationRepository) GlobalStatusCounts(ctx context.Context) (map[domain.Status]int, error) {
	query := `SELECT status, COUNT(id) FROM applications GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count all applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status domain.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// TopCompanies returns the companies with the most applications, descending by
// count, ties broken by whichever company appeared first.
func (r *PostgresApplicationRepository) TopCompanies(ctx context.Context, userID int64, limit int) ([]domain.ChartPoint, error) {
	query := `
		SELECT company_name, COUNT(id) AS n
		FROM applications
		WHERE user_id = $1
		GROUP BY company_name
		ORDER BY n DESC, MIN(id) ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank companies: %w", err)
	}
	defer rows.Close()

	var points []domain.ChartPoint
	for rows.Next() {
		var p domain.ChartPoint
		if err := rows.Scan(&p.Label, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan company count: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

func scanApplications(rows *sql.Rows) ([]*domain.Application, error) {
	var apps []*domain.Application
	for rows.Next() {
		app := &domain.Application{}
		err := rows.Scan(
			&app.ID,
			&app.UserID,
			&app.CompanyName,
			&app.JobTitle,
			&app.Status,
			&app.DateApplied,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
