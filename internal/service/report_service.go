package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/jobtrack/internal/domain"
	"github.com/yourorg/jobtrack/pkg/cache"
)

// topCompanyLimit caps the company chart at the five busiest companies
const topCompanyLimit = 5

// Summary holds the dashboard headline numbers, computed over the user's full
// application set rather than the current page.
type Summary struct {
	Total        int
	Interviewing int
	InProgress   int // Applied + Interviewing
}

// Page is one slice of a user's applications ordered by descending id
type Page struct {
	Items       []*domain.Application
	CurrentPage int
	TotalPages  int
}

// ReportService produces the dashboard summary, pagination and chart series
type ReportService struct {
	appRepo  domain.ApplicationRepository
	cache    *cache.Cache
	cacheTTL time.Duration
	pageSize int
	logger   *slog.Logger
}

// NewReportService creates a new report service
func NewReportService(appRepo domain.ApplicationRepository, c *cache.Cache, cacheTTL time.Duration, pageSize int, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = 5
	}

	return &ReportService{
		appRepo:  appRepo,
		cache:    c,
		cacheTTL: cacheTTL,
		pageSize: pageSize,
		logger:   logger,
	}
}

// PageSize returns the configured page size
func (s *ReportService) PageSize() int {
	return s.pageSize
}

// Summary computes the headline counts for a user
func (s *ReportService) Summary(ctx context.Context, userID int64) (*Summary, error) {
	key := fmt.Sprintf("reports:%d:summary", userID)
	if cached, ok := s.cacheGet(key); ok {
		return cached.(*Summary), nil
	}

	counts, err := s.appRepo.StatusCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	summary := &Summary{
		Total:        total,
		Interviewing: counts[domain.StatusInterviewing],
		InProgress:   counts[domain.StatusApplied] + counts[domain.StatusInterviewing],
	}

	s.cacheSet(key, summary)
	return summary, nil
}

// Recent returns one page of the user's applications, most recent first.
// TotalPages is ceil(total/pageSize); a page past the end yields an empty
// slice rather than an error.
func (s *ReportService) Recent(ctx context.Context, userID int64, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.appRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.appRepo.ListPage(ctx, userID, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:       items,
		CurrentPage: page,
		TotalPages:  (total + s.pageSize - 1) / s.pageSize,
	}, nil
}

// StatusChart returns one point per status present, in board order
func (s *ReportService) StatusChart(ctx context.Context, userID int64) ([]domain.ChartPoint, error) {
	key := fmt.Sprintf("reports:%d:chart:status", userID)
	if cached, ok := s.cacheGet(key); ok {
		return cached.([]domain.ChartPoint), nil
	}

	counts, err := s.appRepo.StatusCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	var points []domain.ChartPoint
	for _, status := range domain.Statuses {
		if n := counts[status]; n > 0 {
			points = append(points, domain.ChartPoint{Label: string(status), Count: n})
		}
	}

	s.cacheSet(key, points)
	return points, nil
}

// CompanyChart returns the top companies by application count
func (s *ReportService) CompanyChart(ctx context.Context, userID int64) ([]domain.ChartPoint, error) {
	key := fmt.Sprintf("reports:%d:chart:company", userID)
	if cached, ok := s.cacheGet(key); ok {
		return cached.([]domain.ChartPoint), nil
	}

	points, err := s.appRepo.TopCompanies(ctx, userID, topCompanyLimit)
	if err != nil {
		return nil, err
	}

	s.cacheSet(key, points)
	return points, nil
}

func (s *ReportService) cacheGet(key string) (interface{}, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *ReportService) cacheSet(key string, value interface{}) {
	if s.cache != nil && s.cacheTTL > 0 {
		s.cache.Set(key, value, s.cacheTTL)
	}
}
