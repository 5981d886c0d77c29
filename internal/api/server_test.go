package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/nb-core/internal/auth"
	"github.com/nerrad567/nb-core/internal/catalog"
	"github.com/nerrad567/nb-core/internal/infrastructure/config"
	"github.com/nerrad567/nb-core/internal/infrastructure/database"
	"github.com/nerrad567/nb-core/internal/infrastructure/logging"
	_ "github.com/nerrad567/nb-core/migrations"
)

type testEnv struct {
	srv     *Server
	db      *database.DB
	recipes *catalog.SQLiteRepository
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		Host:     "127.0.0.1",
		Port:     0,
		Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
	}
}

// testServer creates a Server over real catalog and account services backed
// by a temporary SQLite database.
func testServer(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "api.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	recipeRepo := catalog.NewRepository(db.DB)
	accounts, err := auth.NewService(auth.Config{
		Users:  auth.NewUserRepository(db.DB),
		Tokens: auth.NewTokenRepository(db.DB),
		Hasher: auth.NewArgon2Hasher(1024, 1, 1),
	})
	if err != nil {
		t.Fatalf("auth.NewService() error: %v", err)
	}

	deps := Deps{
		Config:   testAPIConfig(),
		Logger:   logging.Discard(),
		Recipes:  catalog.NewService(catalog.Deps{Repository: recipeRepo}),
		Accounts: accounts,
		Database: db,
		Version:  "test",
	}
	for _, m := range mutate {
		m(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return &testEnv{srv: srv, db: db, recipes: recipeRepo}
}

func (e *testEnv) do(t *testing.T, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, name string, ingredients ...string) {
	t.Helper()
	r := &catalog.Recipe{Name: name, Description: "desc", Instructions: "istr"}
	for _, ing := range ingredients {
		r.Ingredients = append(r.Ingredients, catalog.Ingredient{Name: ing})
	}
	if err := e.recipes.Create(context.Background(), r); err != nil {
		t.Fatalf("seeding %q: %v", name, err)
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: logging.Discard()}); err == nil {
		t.Error("New() without services should fail")
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	env := testServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.srv.serveListener(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serveListener() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestHealth(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[healthResponse](t, rec)
	if body.Status != "ok" || body.Version != "test" || body.Database != "ok" {
		t.Errorf("body = %+v", body)
	}
}

type brokenDatabase struct{}

func (brokenDatabase) HealthCheck(context.Context) error { return errors.New("disk gone") }

func TestHealth_DatabaseDown(t *testing.T) {
	env := testServer(t, func(d *Deps) { d.Database = brokenDatabase{} })

	rec := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := testServer(t)
	env.do(t, http.MethodGet, "/ricette/?ingredienti=x", "")

	rec := env.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	out := rec.Body.String()
	if !strings.Contains(out, `nb_http_requests_total{method="GET",route="/ricette/",status="200"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", out)
	}
}

func TestRequestID(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodGet, "/health", "", "X-Request-ID", "abc-123")
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want client value echoed", got)
	}

	rec = env.do(t, http.MethodGet, "/health", "", "X-Request-ID", "bad id\twith spaces")
	if got := rec.Header().Get("X-Request-ID"); got == "" || strings.Contains(got, " ") {
		t.Errorf("X-Request-ID = %q, want generated replacement", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodOptions, "/auth/login/", "",
		"Origin", "http://localhost:8081",
		"Access-Control-Request-Method", "POST",
	)
	if rec.Code != http.StatusNoContent && rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want 2xx", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("preflight missing Access-Control-Allow-Origin")
	}
}

func TestRateLimit(t *testing.T) {
	env := testServer(t, func(d *Deps) {
		d.Config.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 1}
	})

	if rec := env.do(t, http.MethodGet, "/ricette/", ""); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/ricette/", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After")
	}

	// Health and metrics stay reachable.
	if rec := env.do(t, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health under rate limit status = %d, want 200", rec.Code)
	}
}

type panickingRecipes struct{}

func (panickingRecipes) Query(context.Context, []string) ([]catalog.Recipe, error) {
	panic("boom")
}

func TestRecoveryMiddleware(t *testing.T) {
	env := testServer(t, func(d *Deps) { d.Recipes = panickingRecipes{} })

	rec := env.do(t, http.MethodGet, "/ricette/", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestNotFound(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodGet, "/ricette/42/", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if body := decode[Error](t, rec); body.Status != http.StatusNotFound {
		t.Errorf("body = %+v", body)
	}
}

func TestParseTokenHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Token abc123", "abc123", true},
		{"token abc123", "abc123", true},
		{"  Token   abc123  ", "abc123", true},
		{"Bearer abc123", "", false},
		{"Token", "", false},
		{"Token ", "", false},
		{"Token a b", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := parseTokenHeader(tt.header)
			if got != tt.want || ok != tt.ok {
				t.Errorf("parseTokenHeader(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
			}
		})
	}
}
