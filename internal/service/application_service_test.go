package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/yourorg/jobtrack/internal/domain"
)

// memAppRepo is an in-memory domain.ApplicationRepository for tests
type memAppRepo struct {
	nextID int64
	apps   map[int64]*domain.Application
}

func newMemAppRepo() *memAppRepo {
	return &memAppRepo{apps: map[int64]*domain.Application{}}
}

func (m *memAppRepo) Create(ctx context.Context, app *domain.Application) error {
	m.nextID++
	app.ID = m.nextID
	stored := *app
	m.apps[app.ID] = &stored
	return nil
}

func (m *memAppRepo) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	if app, ok := m.apps[id]; ok {
		copied := *app
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memAppRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Application, error) {
	var out []*domain.Application
	for _, app := range m.apps {
		if app.UserID == userID {
			copied := *app
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memAppRepo) ListPage(ctx context.Context, userID int64, limit, offset int) ([]*domain.Application, error) {
	all, _ := m.ListByUser(ctx, userID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memAppRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	all, _ := m.ListByUser(ctx, userID)
	return len(all), nil
}

func (m *memAppRepo) Update(ctx context.Context, app *domain.Application) error {
	existing, ok := m.apps[app.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.CompanyName = app.CompanyName
	existing.JobTitle = app.JobTitle
	existing.Status = app.Status
	existing.DateApplied = app.DateApplied
	return nil
}

func (m *memAppRepo) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	existing, ok := m.apps[id]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Status = status
	return nil
}

func (m *memAppRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.apps[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.apps, id)
	return nil
}

func (m *memAppRepo) StatusCounts(ctx context.Context, userID int64) (map[domain.Status]int, error) {
	counts := map[domain.Status]int{}
	for _, app := range m.apps {
		if app.UserID == userID {
			counts[app.Status]++
		}
	}
	return counts, nil
}

func (m *memAppRepo) GlobalStatusCounts(ctx context.Context) (map[domain.Status]int, error) {
	counts := map[domain.Status]int{}
	for _, app := range m.apps {
		counts[app.Status]++
	}
	return counts, nil
}

func (m *memAppRepo) TopCompanies(ctx context.Context, userID int64, limit int) ([]domain.ChartPoint, error) {
	type agg struct {
		count int
		minID int64
	}
	byCompany := map[string]*agg{}
	for _, app := range m.apps {
		if app.UserID != userID {
			continue
		}
		a, ok := byCompany[app.CompanyName]
		if !ok {
			a = &agg{minID: app.ID}
			byCompany[app.CompanyName] = a
		}
		a.count++
		if app.ID < a.minID {
			a.minID = app.ID
		}
	}

	companies := make([]string, 0, len(byCompany))
	for name := range byCompany {
		companies = append(companies, name)
	}
	sort.Slice(companies, func(i, j int) bool {
		a, b := byCompany[companies[i]], byCompany[companies[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		return a.minID < b.minID
	})

	if len(companies) > limit {
		companies = companies[:limit]
	}

	points := make([]domain.ChartPoint, 0, len(companies))
	for _, name := range companies {
		points = append(points, domain.ChartPoint{Label: name, Count: byCompany[name].count})
	}
	return points, nil
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	s := NewApplicationService(newMemAppRepo(), nil, nil)

	if _, err := s.Add(ctx, 1, "", "Engineer", domain.StatusApplied, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty company, got %v", err)
	}
	if _, err := s.Add(ctx, 1, "Acme", "", domain.StatusApplied, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty title, got %v", err)
	}
	if _, err := s.Add(ctx, 1, "Acme", "Engineer", "Ghosted", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestOwnershipGuard(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	s := NewApplicationService(repo, nil, nil)

	id, err := s.Add(ctx, 1, "Acme", "Engineer", domain.StatusApplied, "2024-01-01")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// A different user can neither read nor mutate the record.
	if _, err := s.Get(ctx, 2, id); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on get, got %v", err)
	}
	if err := s.Edit(ctx, 2, id, "Evil", "Hacker", domain.StatusOffer, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on edit, got %v", err)
	}
	if err := s.Delete(ctx, 2, id); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete, got %v", err)
	}
	if err := s.UpdateStatus(ctx, 2, id, domain.StatusRejected); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on update status, got %v", err)
	}

	// The record is untouched after all the denied attempts.
	app, err := s.Get(ctx, 1, id)
	if err != nil {
		t.Fatalf("owner get failed: %v", err)
	}
	if app.CompanyName != "Acme" || app.JobTitle != "Engineer" || app.Status != domain.StatusApplied {
		t.Fatalf("record was modified by a denied request: %+v", app)
	}

	// A missing record is NotFound, not Forbidden.
	if err := s.Delete(ctx, 1, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	s := NewApplicationService(repo, nil, nil)

	id, _ := s.Add(ctx, 1, "Acme", "Engineer", domain.StatusApplied, "")

	if err := s.UpdateStatus(ctx, 1, id, domain.StatusInterviewing); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if err := s.UpdateStatus(ctx, 1, id, domain.StatusInterviewing); err != nil {
		t.Fatalf("second identical update failed: %v", err)
	}

	app, _ := s.Get(ctx, 1, id)
	if app.Status != domain.StatusInterviewing {
		t.Fatalf("expected Interviewing, got %s", app.Status)
	}
}

func TestBoardGrouping(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	s := NewApplicationService(repo, nil, nil)

	first, _ := s.Add(ctx, 1, "Acme", "Engineer", domain.StatusApplied, "")
	second, _ := s.Add(ctx, 1, "Globex", "Analyst", domain.StatusApplied, "")
	s.Add(ctx, 1, "Initech", "Manager", domain.StatusOffer, "")
	s.Add(ctx, 2, "Acme", "Engineer", domain.StatusApplied, "") // other user

	// A legacy row with an out-of-enum status sits in the store; the board
	// must leave it out rather than fail.
	repo.Create(ctx, &domain.Application{UserID: 1, CompanyName: "Umbrella", JobTitle: "Chemist", Status: "Ghosted"})

	board, err := s.Board(ctx, 1)
	if err != nil {
		t.Fatalf("board failed: %v", err)
	}

	applied := board.Columns[domain.StatusApplied]
	if len(applied) != 2 {
		t.Fatalf("expected 2 applied, got %d", len(applied))
	}
	// Most recent first within a bucket.
	if applied[0].ID != second || applied[1].ID != first {
		t.Fatalf("expected reverse-insertion order, got %d then %d", applied[0].ID, applied[1].ID)
	}
	if len(board.Columns[domain.StatusOffer]) != 1 {
		t.Fatalf("expected 1 offer")
	}
	if len(board.Columns[domain.StatusWishlist]) != 0 {
		t.Fatalf("expected empty wishlist column")
	}

	total := 0
	for _, col := range board.Columns {
		total += len(col)
	}
	if total != 3 {
		t.Fatalf("expected 3 rows on the board (legacy status excluded), got %d", total)
	}
}
