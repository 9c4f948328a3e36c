package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/docsum/internal/client/config"
	"github.com/dmitrijs2005/docsum/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type testEnv struct {
	app *App
	mux *http.ServeMux
	out *syncBuffer
	cfg *config.Config
}

// newTestApp builds a real App against an httptest backend and a temp
// storage file. input feeds prompts; passwords are read as plain lines.
func newTestApp(t *testing.T, input string) *testEnv {
	t.Helper()
	stubTerminal(t, false, nil, nil)

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIURL = srv.URL
	cfg.FrontendURL = "http://127.0.0.1:0"
	cfg.StoragePath = filepath.Join(t.TempDir(), "docsum.db")
	cfg.StoragePollInterval = 50 * time.Millisecond
	cfg.OAuthTimeout = 5 * time.Second

	app, err := NewApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	out := &syncBuffer{}
	app.out = out
	app.reader = rdr(input)
	require.NoError(t, app.store.Init(context.Background()))

	return &testEnv{app: app, mux: mux, out: out, cfg: cfg}
}

func (e *testEnv) signIn(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, e.app.store.Authenticate(context.Background(), token,
		models.User{ID: 1, Email: "x@y.com", Name: "X"}))
	e.app.authed.Store(true)
	unsubscribe := e.app.store.Subscribe(e.app.onSessionChange)
	t.Cleanup(unsubscribe)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
