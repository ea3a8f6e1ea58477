package efa

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	method   string
	path     string
	rawQuery string
	body     string
	referer  string
}

// fakeServer отдает фикстуры из testdata по имени эндпоинта.
// Ключ "XSLT_TRIP_REQUEST2?command=tripNext" перекрывает ключ эндпоинта для команд.
type fakeServer struct {
	t      *testing.T
	routes map[string]string

	mu       sync.Mutex
	requests []recordedRequest
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		method:   r.Method,
		path:     r.URL.Path,
		rawQuery: r.URL.RawQuery,
		body:     string(body),
		referer:  r.Header.Get("Referer"),
	})
	s.mu.Unlock()

	endpoint := strings.TrimPrefix(r.URL.Path, "/")
	fixture, ok := "", false
	if cmd := r.URL.Query().Get("command"); cmd != "" {
		fixture, ok = s.routes[endpoint+"?command="+cmd]
	}
	if !ok {
		fixture, ok = s.routes[endpoint]
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch filepath.Ext(fixture) {
	case ".json":
		w.Header().Set("Content-Type", "application/json")
	case ".html":
		w.Header().Set("Content-Type", "text/html")
	default:
		w.Header().Set("Content-Type", "text/xml")
	}
	w.Write(readFixture(s.t, fixture))
}

func (s *fakeServer) lastRequest() recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(s.t, s.requests)
	return s.requests[len(s.requests)-1]
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

// newTestClient поднимает фейковый сервер EFA и клиент провайдера VRR, направленный на него
func newTestClient(t *testing.T, routes map[string]string, mutate func(*ProviderConfig)) (*Client, *fakeServer) {
	t.Helper()

	fake := &fakeServer{t: t, routes: routes}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg, err := Lookup(ProviderVRR)
	require.NoError(t, err)
	cfg = cfg.WithBaseURL(server.URL)
	if mutate != nil {
		mutate(&cfg)
	}

	client, err := NewClient(cfg, server.Client(), zap.NewNop())
	require.NoError(t, err)
	return client, fake
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func assertTime(t *testing.T, want time.Time, got time.Time) {
	t.Helper()
	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func assertTimePtr(t *testing.T, want time.Time, got *time.Time) {
	t.Helper()
	if assert.NotNil(t, got) {
		assertTime(t, want, *got)
	}
}
