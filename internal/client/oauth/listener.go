package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/docsum/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const CallbackPath = "/auth/callback"

// CompleteFunc finishes sign-in for a successful callback, typically by
// persisting the pair and refreshing the session.
type CompleteFunc func(ctx context.Context, res Result) error

// Listener serves the callback URL on the frontend host and reports the
// first callback it receives.
type Listener struct {
	addr     string
	complete CompleteFunc
	log      logging.Logger

	srv     *http.Server
	ln      net.Listener
	results chan Result
	once    sync.Once
}

// NewListener prepares a listener for frontendURL (e.g.
// http://localhost:3000). Call Start to begin serving.
func NewListener(frontendURL string, complete CompleteFunc, log logging.Logger) (*Listener, error) {
	u, err := url.Parse(frontendURL)
	if err != nil {
		return nil, fmt.Errorf("parse frontend url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("frontend url %q has no host", frontendURL)
	}
	if log == nil {
		log = logging.Nop()
	}

	l := &Listener{
		addr:     u.Host,
		complete: complete,
		log:      log,
		results:  make(chan Result, 1),
	}
	l.srv = &http.Server{
		Handler:           l.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return l, nil
}

func (l *Listener) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Get(CallbackPath, l.handleCallback)
	return r
}

func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res := ParseCallback(r.URL.RawQuery)

	if res.Kind == KindSuccess && l.complete != nil {
		if err := l.complete(ctx, res); err != nil {
			l.log.Error(ctx, "failed to complete sign-in", "error", err)
			res = Result{Kind: KindInvalid, Message: "Failed to process authentication: " + err.Error(), Params: res.Params}
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if res.Kind == KindSuccess {
		_, _ = fmt.Fprintln(w, "Signed in. You can close this window and return to the terminal.")
	} else {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprintf(w, "Authentication Error\n%s\n", res.Message)
	}

	l.once.Do(func() { l.results <- res })
}

// Start binds the address and serves in the background.
func (l *Listener) Start() error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", l.addr, err)
	}
	l.ln = ln

	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Error(context.Background(), "oauth callback server stopped", "error", err)
		}
	}()
	return nil
}

// Addr is the bound address; useful when the configured port is 0.
func (l *Listener) Addr() string {
	if l.ln == nil {
		return l.addr
	}
	return l.ln.Addr().String()
}

func (l *Listener) CallbackURL() string {
	return "http://" + l.Addr() + CallbackPath
}

// Wait blocks until the first callback arrives or ctx is done.
func (l *Listener) Wait(ctx context.Context) (Result, error) {
	select {
	case res := <-l.results:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (l *Listener) Close(ctx context.Context) error {
	return l.srv.Shutdown(ctx)
}
