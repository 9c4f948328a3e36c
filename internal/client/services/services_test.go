package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/docsum/internal/client/client"
	"github.com/dmitrijs2005/docsum/internal/client/models"
	"github.com/dmitrijs2005/docsum/internal/client/session"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{m: map[string][]byte{}} }

func (s *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key], nil
}

func (s *memStorage) SetMany(_ context.Context, values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.m[k] = v
	}
	return nil
}

func (s *memStorage) DeleteMany(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return nil
}

type env struct {
	store   *session.Store
	storage *memStorage
	gw      *client.Gateway
	mux     *http.ServeMux
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	storage := newMemStorage()
	store := session.NewStore(storage, nil)
	require.NoError(t, store.Init(context.Background()))

	return &env{
		store:   store,
		storage: storage,
		gw:      client.NewGateway(srv.URL, store, store),
		mux:     mux,
	}
}

func (e *env) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, e.store.Authenticate(context.Background(), "a.b.c", models.User{ID: 1, Email: "x@y.com", Name: "X"}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
