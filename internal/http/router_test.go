package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shortlinks/internal/config"
	"github.com/mrlokans/shortlinks/internal/database"
	"github.com/mrlokans/shortlinks/internal/database/mappings"
	"github.com/mrlokans/shortlinks/internal/entities"
	"github.com/mrlokans/shortlinks/internal/links"
)

// testNow is a Monday noon; mappings expiring before 2024-06-10 are expired.
var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type recordedEvent struct {
	eventType entities.AuditEventType
	action    string
	path      string
	actor     string
	err       error
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) LogMapping(eventType entities.AuditEventType, path, actor, description string, err error) {
	f.add(recordedEvent{eventType: eventType, path: path, actor: actor, err: err})
}

func (f *fakeEvents) LogSweep(actor string, deleted int64, batches int, cutoff time.Time, err error) {
	f.add(recordedEvent{eventType: entities.AuditEventSweep, actor: actor, err: err})
}

func (f *fakeEvents) LogImport(actor, source string, imported, skipped, failed int, err error) {
	f.add(recordedEvent{eventType: entities.AuditEventImport, action: source, actor: actor, err: err})
}

func (f *fakeEvents) add(e recordedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeEvents) all() []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedEvent(nil), f.events...)
}

type testEnv struct {
	router  *gin.Engine
	service *links.Service
	events  *fakeEvents
}

func newTestService(t *testing.T) (*database.Database, *links.Service) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "links.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := links.NewService(mappings.NewRepository(db.DB),
		links.WithClock(func() time.Time { return testNow }),
		links.WithLocation(time.UTC),
	)
	return db, svc
}

// newTestEnv builds the router without authentication, backed by a real
// SQLite database.
func newTestEnv(t *testing.T, mutate ...func(*RouterConfig)) *testEnv {
	t.Helper()
	db, svc := newTestService(t)
	events := &fakeEvents{}

	cfg := RouterConfig{
		Links:       svc,
		Database:    db,
		Events:      events,
		Auth:        config.Auth{Mode: config.AuthModeNone},
		Location:    time.UTC,
		PageSize:    10,
		MaxPageSize: 50,
		QRCodeSize:  128,
		Version:     "test",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return &testEnv{router: NewRouter(cfg), service: svc, events: events}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) create(t *testing.T, in links.MappingInput) {
	t.Helper()
	w := e.do(t, "POST", "/api/mapping", in)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestRouter_RootRedirectsToAdmin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
}

func TestRouter_SecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/ping", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestRouter_AdminPageWithoutAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/admin", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Short links")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestRouter_OptionalRoutesAbsent(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/tasks/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "endpoint not found")

	w = env.do(t, "GET", "/api/audit", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
