package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/docsum/internal/client/chat"
	"github.com/dmitrijs2005/docsum/internal/client/client"
	"github.com/dmitrijs2005/docsum/internal/client/config"
	"github.com/dmitrijs2005/docsum/internal/client/docsource"
	"github.com/dmitrijs2005/docsum/internal/client/models"
	"github.com/dmitrijs2005/docsum/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/docsum/internal/client/services"
	"github.com/dmitrijs2005/docsum/internal/client/session"
	"github.com/dmitrijs2005/docsum/internal/client/storage"
	"github.com/dmitrijs2005/docsum/internal/client/storagewatch"
	"github.com/dmitrijs2005/docsum/internal/common"
	"github.com/dmitrijs2005/docsum/internal/filex"
	"github.com/dmitrijs2005/docsum/internal/logging"
)

// sourceOpener resolves an upload reference (local path or s3:// URL).
type sourceOpener interface {
	Open(ctx context.Context, ref string) (docsource.Source, error)
}

type App struct {
	config *config.Config
	log    logging.Logger

	db    *sql.DB
	repo  *metadata.SQLiteRepository
	store *session.Store

	authService     services.AuthService
	documentService services.DocumentService
	chatService     services.ChatService
	chat            *chat.Reconciler
	opener          sourceOpener

	reader *bufio.Reader
	out    io.Writer

	// authed mirrors the last session state seen by onSessionChange.
	authed atomic.Bool

	mu       sync.Mutex
	page     int
	sessions []models.ChatSession
}

// NewApp opens local storage and wires the session store, the API gateway and
// the services on top of it.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	path, err := filex.EnsureParentDir(c.StoragePath)
	if err != nil {
		return nil, err
	}
	// The watcher needs a stable path to the file's directory.
	c.StoragePath = path

	db, err := storage.InitDatabase(ctx, c.StoragePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.StoragePath, "error", err)
		return nil, err
	}

	repo := metadata.NewSQLiteRepository(db)
	store := session.NewStore(repo, log)

	gw := client.NewGateway(c.APIURL, store, store,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(log),
	)

	cs := services.NewChatService(gw)

	return &App{
		config:          c,
		log:             log,
		db:              db,
		repo:            repo,
		store:           store,
		authService:     services.NewAuthService(gw, store, repo),
		documentService: services.NewDocumentService(gw),
		chatService:     cs,
		chat:            chat.New(cs),
		opener: docsource.NewOpener(docsource.S3Config{
			Region:    c.AWSRegion,
			AccessKey: c.AWSAccessKey,
			SecretKey: c.AWSSecretKey,
		}),
		reader: bufio.NewReader(os.Stdin),
		out:    &lockedWriter{w: os.Stdout},
		page:   1,
	}, nil
}

// Run starts the REPL and releases local storage when it returns.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	return a.Root(ctx)
}

func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.store.State().IsAuthenticated
}

// onSessionChange runs whenever the session state changes, in whichever
// goroutine caused the change. Losing authentication for any reason resets
// the chat view and sends the user back to the sign-in commands.
func (a *App) onSessionChange(st session.State) {
	was := a.authed.Swap(st.IsAuthenticated)
	if !was || st.IsAuthenticated {
		return
	}

	a.chat.Reset()
	a.mu.Lock()
	a.sessions = nil
	a.page = 1
	a.mu.Unlock()

	fmt.Fprintln(a.out, "\nYou are signed out. Sign in again with login, register or google.")
}

// watchStorage follows other processes' changes to the storage file until ctx
// is done. Failure to watch is not fatal.
func (a *App) watchStorage(ctx context.Context) {
	w, err := storagewatch.New(a.config.StoragePath, a.repo, common.SessionKeys, a.store.HandleStorageEvent,
		storagewatch.WithPollInterval(a.config.StoragePollInterval),
		storagewatch.WithLogger(a.log),
	)
	if err != nil {
		a.log.Warn(ctx, "storage watcher disabled", "error", err)
		return
	}
	defer w.Close()

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		a.log.Warn(ctx, "storage watcher stopped", "error", err)
	}
}

// lockedWriter serializes output from the REPL and the watcher goroutine.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
