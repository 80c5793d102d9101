package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourorg/jobtrack/internal/domain"
	"github.com/yourorg/jobtrack/internal/observability/metrics"
	"github.com/yourorg/jobtrack/pkg/cache"
)

// ApplicationService implements the application registry: CRUD scoped to the
// owning user plus the grouped board view.
type ApplicationService struct {
	appRepo domain.ApplicationRepository
	cache   *cache.Cache
	logger  *slog.Logger
}

// Board partitions a user's applications into the five status buckets
type Board struct {
	Columns map[domain.Status][]*domain.Application
}

// NewApplicationService creates a new application service
func NewApplicationService(appRepo domain.ApplicationRepository, c *cache.Cache, logger *slog.Logger) *ApplicationService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ApplicationService{
		appRepo: appRepo,
		cache:   c,
		logger:  logger,
	}
}

// Add inserts a new application owned by userID. Duplicate (company, title)
// pairs are permitted. The status enumeration is enforced here, at write time.
func (s *ApplicationService) Add(ctx context.Context, userID int64, company, title string, status domain.Status, date string) (int64, error) {
	company = strings.TrimSpace(company)
	title = strings.TrimSpace(title)

	if company == "" {
		return 0, fmt.Errorf("%w: company name is required", domain.ErrInvalidInput)
	}
	if title == "" {
		return 0, fmt.Errorf("%w: job title is required", domain.ErrInvalidInput)
	}
	if !domain.ValidStatus(status) {
		return 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	app := &domain.Application{
		UserID:      userID,
		CompanyName: company,
		JobTitle:    title,
		Status:      status,
		DateApplied: date,
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		return 0, err
	}

	s.invalidateReports(userID)
	metrics.ObserveApplicationMutation("add")
	s.logger.Info("application added",
		slog.Int64("user_id", userID),
		slog.Int64("application_id", app.ID),
	)

	return app.ID, nil
}

// Get returns a single application after verifying ownership
func (s *ApplicationService) Get(ctx context.Context, userID, id int64) (*domain.Application, error) {
	return s.authorize(ctx, userID, id)
}

// Board returns the user's applications partitioned into the five status
// buckets, most recent first within each bucket. Rows with a status outside
// the enumeration are excluded from the board.
func (s *ApplicationService) Board(ctx context.Context, userID int64) (*Board, error) {
	apps, err := s.appRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	board := &Board{Columns: make(map[domain.Status][]*domain.Application, len(domain.Statuses))}
	for _, status := range domain.Statuses {
		board.Columns[status] = []*domain.Application{}
	}
	for _, app := range apps {
		if _, ok := board.Columns[app.Status]; ok {
			board.Columns[app.Status] = append(board.Columns[app.Status], app)
		}
	}

	return board, nil
}

// Edit overwrites every field of an application after verifying ownership.
// On any failure the stored record is left untouched.
func (s *ApplicationService) Edit(ctx context.Context, userID, id int64, company, title string, status domain.Status, date string) error {
	company = strings.TrimSpace(company)
	title = strings.TrimSpace(title)

	if company == "" || title == "" {
		return fmt.Errorf("%w: company name and job title are required", domain.ErrInvalidInput)
	}
	if !domain.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	app, err := s.authorize(ctx, userID, id)
	if err != nil {
		return err
	}

	app.CompanyName = company
	app.JobTitle = title
	app.Status = status
	app.DateApplied = date

	if err := s.appRepo.Update(ctx, app); err != nil {
		return err
	}

	s.invalidateReports(userID)
	metrics.ObserveApplicationMutation("edit")
	return nil
}

// Delete removes an application after verifying ownership. Irreversible.
func (s *ApplicationService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return err
	}

	if err := s.appRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateReports(userID)
	metrics.ObserveApplicationMutation("delete")
	s.logger.Info("application deleted",
		slog.Int64("user_id", userID),
		slog.Int64("application_id", id),
	)
	return nil
}

// UpdateStatus changes only the status field after verifying ownership.
// Applying the same status twice is a no-op.
func (s *ApplicationService) UpdateStatus(ctx context.Context, userID, id int64, status domain.Status) error {
	if !domain.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	app, err := s.authorize(ctx, userID, id)
	if err != nil {
		return err
	}

	if app.Status == status {
		return nil
	}

	if err := s.appRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.invalidateReports(userID)
	metrics.ObserveApplicationMutation("update_status")
	return nil
}

// authorize is the single ownership guard shared by every read and mutation:
// fetch by id, then verify the owner. A missing record is ErrNotFound; a
// record owned by someone else is ErrForbidden, never a silent no-op.
func (s *ApplicationService) authorize(ctx context.Context, userID, id int64) (*domain.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if app.UserID != userID {
		s.logger.Warn("user attempted to access another user's application",
			slog.Int64("user_id", userID),
			slog.Int64("owner_id", app.UserID),
			slog.Int64("application_id", id),
		)
		return nil, domain.ErrForbidden
	}

	return app, nil
}

func (s *ApplicationService) invalidateReports(userID int64) {
	if s.cache != nil {
		s.cache.Invalidate(fmt.Sprintf("reports:%d:", userID))
	}
}
