package test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/jobtrack/internal/domain"
	"github.com/yourorg/jobtrack/internal/handler"
	"github.com/yourorg/jobtrack/internal/infrastructure/logger"
	"github.com/yourorg/jobtrack/internal/security/audit"
	"github.com/yourorg/jobtrack/internal/security/middleware"
	"github.com/yourorg/jobtrack/internal/security/ratelimit"
	"github.com/yourorg/jobtrack/internal/service"
	"github.com/yourorg/jobtrack/internal/session"
	"github.com/yourorg/jobtrack/internal/web"
	"github.com/yourorg/jobtrack/pkg/cache"
)

// TestApp wires the full handler stack over in-memory stores so scenarios can
// be driven through real HTTP requests without Postgres or Redis.
type TestApp struct {
	Server   *httptest.Server
	Client   *http.Client // shares the jar, follows redirects
	Direct   *http.Client // shares the jar, stops at the first response
	Users    *memUserRepo
	Apps     *memAppRepo
	AppSvc   *service.ApplicationService
	Reports  *service.ReportService
	Sessions *session.Manager
}

// NewTestApp builds the application with the same routes and middleware chain
// the server binary uses.
func NewTestApp(t *testing.T) *TestApp {
	t.Helper()

	log := logger.NewLogger("error")
	users := newMemUserRepo()
	apps := newMemAppRepo()
	reportCache := cache.New()

	authService := service.NewAuthService(users, log)
	appService := service.NewApplicationService(apps, reportCache, log)
	reportService := service.NewReportService(apps, reportCache, time.Minute, 5, log)

	sessions := session.NewManager("test-secret", time.Hour, newMemRevocations(), log)
	limiter := ratelimit.NewLimiter(1000, time.Minute)
	t.Cleanup(limiter.Stop)
	auditLogger := audit.NewLogger(log)

	renderer, err := web.NewRenderer(log)
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}

	authHandler := handler.NewAuthHandler(authService, sessions, auditLogger, renderer, log)
	dashboardHandler := handler.NewDashboardHandler(reportService, renderer, log)
	boardHandler := handler.NewBoardHandler(appService, auditLogger, renderer, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", authHandler.Index)
	mux.HandleFunc("GET /login", authHandler.ShowLogin)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("POST /register", authHandler.Register)
	mux.HandleFunc("GET /logout", authHandler.Logout)
	mux.Handle("GET /dashboard", middleware.RequireAuth(dashboardHandler))
	mux.Handle("GET /applications", middleware.RequireAuth(http.HandlerFunc(boardHandler.Board)))
	mux.Handle("POST /add_job", middleware.RequireAuth(http.HandlerFunc(boardHandler.Add)))
	mux.Handle("POST /delete_job/{id}", middleware.RequireAuth(http.HandlerFunc(boardHandler.Delete)))
	mux.Handle("POST /edit_job/{id}", middleware.RequireAuth(http.HandlerFunc(boardHandler.Edit)))
	mux.Handle("POST /update_status/{id}",
		middleware.RequireAuthJSON(middleware.RequireJSON(log)(http.HandlerFunc(boardHandler.UpdateStatus))))

	root := middleware.RateLimitMiddleware(limiter, log)(
		middleware.SessionMiddleware(sessions, log)(mux),
	)

	server := httptest.NewServer(root)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &TestApp{
		Server: server,
		Client: &http.Client{Jar: jar},
		Direct: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Users:    users,
		Apps:     apps,
		AppSvc:   appService,
		Reports:  reportService,
		Sessions: sessions,
	}
}

// PostForm posts form values without following the redirect
func (a *TestApp) PostForm(t *testing.T, path string, values url.Values) *http.Response {
	t.Helper()
	resp, err := a.Direct.Post(a.Server.URL+path, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	resp.Body.Close()
	return resp
}

// PostJSON posts a JSON body without following the redirect
func (a *TestApp) PostJSON(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := a.Direct.Post(a.Server.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

// Get fetches a path without following redirects
func (a *TestApp) Get(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.Server.URL+path, nil)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	resp, err := a.Direct.Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	resp.Body.Close()
	return resp
}

// Register creates an account through the HTTP surface
func (a *TestApp) Register(t *testing.T, username, password string) *http.Response {
	t.Helper()
	return a.PostForm(t, "/register", url.Values{"username": {username}, "password": {password}})
}

// Login authenticates through the HTTP surface; the session cookie lands in
// the shared jar.
func (a *TestApp) Login(t *testing.T, username, password string) *http.Response {
	t.Helper()
	return a.PostForm(t, "/login", url.Values{"username": {username}, "password": {password}})
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertRedirect checks the status and Location target
func AssertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("expected redirect, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Errorf("expected redirect to %s, got %s", location, got)
	}
}

// ---- in-memory stores ----

type memUserRepo struct {
	mu         sync.Mutex
	nextID     int64
	byID       map[int64]*domain.User
	byUsername map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[int64]*domain.User{}, byUsername: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byUsername[u.Username]; exists {
		return domain.ErrUsernameTaken
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	m.byID[u.ID] = u
	m.byUsername[u.Username] = u
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byUsername[username]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

// Count returns the number of stored users
func (m *memUserRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memAppRepo struct {
	mu     sync.Mutex
	nextID int64
	apps   map[int64]*domain.Application
}

func newMemAppRepo() *memAppRepo {
	return &memAppRepo{apps: map[int64]*domain.Application{}}
}

func (m *memAppRepo) Create(ctx context.Context, app *domain.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	app.ID = m.nextID
	stored := *app
	m.apps[app.ID] = &stored
	return nil
}

func (m *memAppRepo) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if app, ok := m.apps[id]; ok {
		copied := *app
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memAppRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	m.mu.Lock()
	defer m.mu.Unlock()
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
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.apps[id]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Status = status
	return nil
}

func (m *memAppRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.apps, id)
	return nil
}

func (m *memAppRepo) StatusCounts(ctx context.Context, userID int64) (map[domain.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[domain.Status]int{}
	for _, app := range m.apps {
		if app.UserID == userID {
			counts[app.Status]++
		}
	}
	return counts, nil
}

func (m *memAppRepo) GlobalStatusCounts(ctx context.Context) (map[domain.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[domain.Status]int{}
	for _, app := range m.apps {
		counts[app.Status]++
	}
	return counts, nil
}

func (m *memAppRepo) TopCompanies(ctx context.Context, userID int64, limit int) ([]domain.ChartPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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

type memRevocations struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemRevocations() *memRevocations {
	return &memRevocations{keys: map[string]bool{}}
}

func (m *memRevocations) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = true
	return nil
}

func (m *memRevocations) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}
