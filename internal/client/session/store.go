// Package session holds the client's single source of truth about who is
// signed in.
//
// A Store reads and writes the persisted token/user pair through a Storage,
// applies every transition through a reducer and notifies subscribers after
// each state change. Changes made by other processes reach the store as
// storage events; a 401 from the API reaches it through Invalidate.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/docsum/internal/client/models"
	"github.com/dmitrijs2005/docsum/internal/client/storagewatch"
	"github.com/dmitrijs2005/docsum/internal/common"
	"github.com/dmitrijs2005/docsum/internal/logging"
)

// ErrCorruptSession reports persisted session data that is missing one half
// of the token/user pair or can't be decoded. The store clears it.
var ErrCorruptSession = errors.New("corrupt persisted session")

// State is a snapshot of the session. IsAuthenticated is true exactly when
// both Token and User are set.
type State struct {
	IsAuthenticated bool
	User            *models.User
	Token           string
	Loading         bool
}

func (s State) clone() State {
	if s.User != nil {
		u := s.User.Clone()
		s.User = &u
	}
	return s
}

func (s State) equal(o State) bool {
	if s.IsAuthenticated != o.IsAuthenticated || s.Token != o.Token || s.Loading != o.Loading {
		return false
	}
	if (s.User == nil) != (o.User == nil) {
		return false
	}
	if s.User == nil {
		return true
	}
	a, b := s.User, o.User
	if a.ID != b.ID || a.Email != b.Email || a.Name != b.Name || !a.CreatedAt.Equal(b.CreatedAt.Time) {
		return false
	}
	if (a.AvatarURL == nil) != (b.AvatarURL == nil) {
		return false
	}
	return a.AvatarURL == nil || *a.AvatarURL == *b.AvatarURL
}

// Storage is the durable key/value store the session is persisted in.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetMany(ctx context.Context, values map[string][]byte) error
	DeleteMany(ctx context.Context, keys ...string) error
}

// LogoutNotifier tells the backend that the token is no longer used.
type LogoutNotifier interface {
	Logout(ctx context.Context) error
}

// Listener receives the state after every change.
type Listener func(State)

type Store struct {
	storage Storage
	log     logging.Logger

	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
}

// NewStore returns a store in the loading state. Call Init to restore the
// persisted session.
func NewStore(storage Storage, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		storage:   storage,
		log:       log,
		state:     State{Loading: true},
		listeners: make(map[int]Listener),
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// dispatch reduces a into the state and, if anything changed, calls the
// listeners outside the lock.
func (s *Store) dispatch(a action) State {
	s.mu.Lock()
	prev := s.state
	next := reduce(prev, a)
	s.state = next

	var fns []Listener
	if !next.equal(prev) {
		fns = make([]Listener, 0, len(s.listeners))
		for _, fn := range s.listeners {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next.clone())
	}
	return next.clone()
}

// load reads the persisted pair. ok is false when either half is absent.
func (s *Store) load(ctx context.Context) (token string, user models.User, ok bool, err error) {
	rawToken, err := s.storage.Get(ctx, common.StorageKeyToken)
	if err != nil {
		return "", models.User{}, false, fmt.Errorf("read %s: %w", common.StorageKeyToken, err)
	}
	rawUser, err := s.storage.Get(ctx, common.StorageKeyUser)
	if err != nil {
		return "", models.User{}, false, fmt.Errorf("read %s: %w", common.StorageKeyUser, err)
	}

	if len(rawToken) == 0 && len(rawUser) == 0 {
		return "", models.User{}, false, nil
	}
	if len(rawToken) == 0 || len(rawUser) == 0 {
		return "", models.User{}, false, fmt.Errorf("%w: partial token/user pair", ErrCorruptSession)
	}
	if err := json.Unmarshal(rawUser, &user); err != nil {
		return "", models.User{}, false, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	return string(rawToken), user, true, nil
}

func (s *Store) clearStorage(ctx context.Context) {
	if err := s.storage.DeleteMany(ctx, common.SessionKeys...); err != nil {
		s.log.Warn(ctx, "failed to clear persisted session", "error", err)
	}
}

// Init restores the persisted session. Partial or corrupt data is cleared and
// the store stays signed out. Loading is false afterwards in every case.
func (s *Store) Init(ctx context.Context) error {
	defer s.dispatch(action{kind: actionSetLoading, loading: false})

	token, user, ok, err := s.load(ctx)
	switch {
	case errors.Is(err, ErrCorruptSession):
		s.log.Warn(ctx, "discarding persisted session", "error", err)
		s.clearStorage(ctx)
		return nil
	case err != nil:
		return err
	case !ok:
		return nil
	}

	s.dispatch(action{kind: actionLoginSuccess, token: token, user: user})
	s.log.Info(ctx, "session restored", "user_id", user.ID)
	return nil
}

// Authenticate persists token and user together and signs the store in.
// The state is left untouched when persisting fails.
func (s *Store) Authenticate(ctx context.Context, token string, user models.User) error {
	if token == "" {
		return common.ErrInvalidToken
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	if err := s.storage.SetMany(ctx, map[string][]byte{
		common.StorageKeyToken: []byte(token),
		common.StorageKeyUser:  rawUser,
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.dispatch(action{kind: actionLoginSuccess, token: token, user: user})
	s.log.Info(ctx, "signed in", "user_id", user.ID)
	return nil
}

// Refresh re-reads the persisted pair after someone else wrote it, for
// example the OAuth callback. Missing or corrupt data signs the store out.
func (s *Store) Refresh(ctx context.Context) error {
	token, user, ok, err := s.load(ctx)
	if err == nil && ok {
		s.dispatch(action{kind: actionLoginSuccess, token: token, user: user})
		return nil
	}

	if errors.Is(err, ErrCorruptSession) {
		s.clearStorage(ctx)
	}
	s.dispatch(action{kind: actionLogout})
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: no persisted session", ErrCorruptSession)
}

// HandleStorageEvent signs the store out when another process removed the
// token or the user, or replaced them with a session other than this one.
// A removal followed by a new sign-in between two scans shows up as a plain
// change, so a value that no longer matches the in-memory session means the
// session this process holds has ended. It never touches storage or the
// network.
func (s *Store) HandleStorageEvent(ev storagewatch.StorageEvent) {
	if ev.Key != common.StorageKeyToken && ev.Key != common.StorageKeyUser {
		return
	}
	if !ev.Removed() && !s.replacedElsewhere(ev) {
		return
	}
	s.dispatch(action{kind: actionLogout})
	s.log.Debug(context.Background(), "session ended by another process", "key", ev.Key)
}

// replacedElsewhere reports whether ev carries a value that differs from the
// signed-in session. While signed out nothing can be replaced.
func (s *Store) replacedElsewhere(ev storagewatch.StorageEvent) bool {
	st := s.State()
	if !st.IsAuthenticated {
		return false
	}
	if ev.Key == common.StorageKeyToken {
		return string(ev.NewValue) != st.Token
	}
	var u models.User
	if err := json.Unmarshal(ev.NewValue, &u); err != nil {
		return true
	}
	return u.ID != st.User.ID
}

// Logout notifies the backend when signed in, then clears storage and state.
// A failed notification is logged and otherwise ignored. Calling Logout while
// signed out is a no-op apart from clearing storage.
func (s *Store) Logout(ctx context.Context, notifier LogoutNotifier) {
	if notifier != nil && s.State().IsAuthenticated {
		if err := notifier.Logout(ctx); err != nil {
			s.log.Warn(ctx, "backend logout failed, continuing with local logout", "error", err)
		}
	}
	s.clearStorage(ctx)
	s.dispatch(action{kind: actionLogout})
	s.log.Info(ctx, "signed out")
}

// Invalidate clears the session after the backend rejected the token.
func (s *Store) Invalidate(ctx context.Context) {
	s.clearStorage(ctx)
	s.dispatch(action{kind: actionLogout})
	s.log.Warn(ctx, "session invalidated by backend")
}

// UpdateProfile merges patch into the current user. It is not persisted and
// does nothing while signed out.
func (s *Store) UpdateProfile(patch models.UserPatch) {
	s.dispatch(action{kind: actionUpdateProfile, patch: patch})
}
