package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yourorg/jobtrack/internal/domain"
	"github.com/yourorg/jobtrack/pkg/cache"
)

func TestSummary(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	apps := NewApplicationService(repo, nil, nil)
	reports := NewReportService(repo, nil, 0, 5, nil)

	apps.Add(ctx, 1, "Acme", "Engineer", domain.StatusApplied, "")
	apps.Add(ctx, 1, "Globex", "Analyst", domain.StatusInterviewing, "")
	apps.Add(ctx, 1, "Initech", "Manager", domain.StatusWishlist, "")
	apps.Add(ctx, 1, "Hooli", "Designer", domain.StatusRejected, "")
	apps.Add(ctx, 2, "Acme", "Engineer", domain.StatusInterviewing, "") // other user

	summary, err := reports.Summary(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 4, summary.Total)
	require.Equal(t, 1, summary.Interviewing)
	require.Equal(t, 2, summary.InProgress)

	// Invariants hold by construction.
	require.GreaterOrEqual(t, summary.InProgress, summary.Interviewing)
	require.GreaterOrEqual(t, summary.Total, summary.InProgress)
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	apps := NewApplicationService(repo, nil, nil)
	reports := NewReportService(repo, nil, 0, 5, nil)

	for i := 0; i < 12; i++ {
		apps.Add(ctx, 1, fmt.Sprintf("Company %d", i), "Engineer", domain.StatusApplied, "")
	}

	seen := map[int64]bool{}
	var union []int64
	for page := 1; page <= 3; page++ {
		p, err := reports.Recent(ctx, 1, page)
		require.NoError(t, err)
		require.Equal(t, page, p.CurrentPage)
		require.Equal(t, 3, p.TotalPages)
		for _, app := range p.Items {
			require.False(t, seen[app.ID], "page %d repeats id %d", page, app.ID)
			seen[app.ID] = true
			union = append(union, app.ID)
		}
	}

	require.Len(t, union, 12)
	for i := 1; i < len(union); i++ {
		require.Greater(t, union[i-1], union[i], "union must be ordered by descending id")
	}

	require.Len(t, mustPage(t, reports, ctx, 1, 1).Items, 5)
	require.Len(t, mustPage(t, reports, ctx, 1, 3).Items, 2)

	// A page past the end is an empty slice, not an error.
	past := mustPage(t, reports, ctx, 1, 4)
	require.Empty(t, past.Items)
	require.Equal(t, 3, past.TotalPages)
}

func mustPage(t *testing.T, reports *ReportService, ctx context.Context, userID int64, page int) *Page {
	t.Helper()
	p, err := reports.Recent(ctx, userID, page)
	require.NoError(t, err)
	return p
}

func TestStatusChart(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	apps := NewApplicationService(repo, nil, nil)
	reports := NewReportService(repo, nil, 0, 5, nil)

	apps.Add(ctx, 1, "Acme", "Engineer", domain.StatusRejected, "")
	apps.Add(ctx, 1, "Globex", "Analyst", domain.StatusApplied, "")
	apps.Add(ctx, 1, "Initech", "Manager", domain.StatusApplied, "")

	points, err := reports.StatusChart(ctx, 1)
	require.NoError(t, err)

	// Board order, absent statuses dropped.
	require.Equal(t, []domain.ChartPoint{
		{Label: "Applied", Count: 2},
		{Label: "Rejected", Count: 1},
	}, points)
}

func TestCompanyChartTopFive(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	apps := NewApplicationService(repo, nil, nil)
	reports := NewReportService(repo, nil, 0, 5, nil)

	// Globex gets 3, Acme 2, then four singletons; Acme was inserted before
	// any singleton so it wins its count bracket outright.
	apps.Add(ctx, 1, "Acme", "Engineer", domain.StatusApplied, "")
	apps.Add(ctx, 1, "Acme", "Analyst", domain.StatusApplied, "")
	for i := 0; i < 3; i++ {
		apps.Add(ctx, 1, "Globex", "Engineer", domain.StatusApplied, "")
	}
	for _, name := range []string{"Initech", "Hooli", "Umbrella", "Stark"} {
		apps.Add(ctx, 1, name, "Engineer", domain.StatusApplied, "")
	}

	points, err := reports.CompanyChart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, points, 5)
	require.Equal(t, domain.ChartPoint{Label: "Globex", Count: 3}, points[0])
	require.Equal(t, domain.ChartPoint{Label: "Acme", Count: 2}, points[1])
	// Singleton tie broken by first insertion.
	require.Equal(t, "Initech", points[2].Label)
	require.Equal(t, "Hooli", points[3].Label)
	require.Equal(t, "Umbrella", points[4].Label)
}

func TestReportCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	repo := newMemAppRepo()
	c := cache.New()
	apps := NewApplicationService(repo, c, nil)
	reports := NewReportService(repo, c, time.Minute, 5, nil)

	apps.Add(ctx, 1, "Acme", "Engineer", domain.StatusApplied, "")

	first, err := reports.Summary(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, first.Total)

	// A write through the service invalidates the cached summary.
	id, err := apps.Add(ctx, 1, "Globex", "Analyst", domain.StatusApplied, "")
	require.NoError(t, err)

	second, err := reports.Summary(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, second.Total)

	require.NoError(t, apps.Delete(ctx, 1, id))

	third, err := reports.Summary(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, third.Total)
}
