// Package chat keeps the displayed conversation consistent with what the
// user typed and what the backend confirmed.
//
// Sending inserts an optimistic user message right away. When the backend
// answers, the placeholder is replaced by the confirmed user message and the
// AI reply; when it fails, the placeholder is removed and the text goes back
// into the draft.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/docsum/internal/client/models"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoSession    = errors.New("no chat session selected")
	ErrSending      = errors.New("a message is already being sent")
)

// Backend is the part of the chat service the reconciler needs.
type Backend interface {
	GetSession(ctx context.Context, id int64) (models.ChatSessionDetail, error)
	SendMessage(ctx context.Context, sessionID int64, content string) (models.SendResult, error)
}

type Reconciler struct {
	backend Backend
	now     func() time.Time

	mu         sync.Mutex
	documentID int64
	session    *models.ChatSession
	messages   []models.ChatMessage
	draft      string
	sending    bool
	// gen changes on every document or session switch; late results from
	// an older generation don't touch the message list.
	gen uint64
}

func New(backend Backend) *Reconciler {
	return &Reconciler{backend: backend, now: time.Now}
}

// Messages returns the displayed list, one entry per id.
func (r *Reconciler) Messages() []models.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Dedup(r.messages)
}

func (r *Reconciler) Draft() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

func (r *Reconciler) SetDraft(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft = s
}

func (r *Reconciler) Sending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sending
}

func (r *Reconciler) DocumentID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.documentID
}

// Session returns the current session, if one is selected.
func (r *Reconciler) Session() (models.ChatSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return models.ChatSession{}, false
	}
	return *r.session, true
}

// SelectDocument switches to a document, dropping the current session and
// its messages.
func (r *Reconciler) SelectDocument(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.documentID = id
	r.session = nil
	r.messages = nil
}

// StartSession makes a freshly created session current with no messages.
func (r *Reconciler) StartSession(s models.ChatSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.session = &s
	if s.DocumentID != 0 {
		r.documentID = s.DocumentID
	}
	r.messages = nil
}

// SelectSession clears the list, loads the session's history and displays
// it. If another switch happens while loading, the result is discarded. A
// failed load leaves no session selected.
func (r *Reconciler) SelectSession(ctx context.Context, id int64) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.messages = nil
	r.mu.Unlock()

	detail, err := r.backend.GetSession(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		// The old session's history is gone from the list, so it must not
		// stay current either.
		if gen == r.gen {
			r.session = nil
		}
		return fmt.Errorf("load session %d: %w", id, err)
	}
	if gen != r.gen {
		return nil
	}
	s := detail.ChatSession
	r.session = &s
	if s.DocumentID != 0 {
		r.documentID = s.DocumentID
	}
	r.messages = Expand(detail.Messages)
	return nil
}

// Reset forgets everything, e.g. after sign-out.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.documentID = 0
	r.session = nil
	r.messages = nil
	r.draft = ""
	r.sending = false
}

// Send posts text to the current session with an optimistic placeholder.
// It returns once the backend has answered.
func (r *Reconciler) Send(ctx context.Context, text string) error {
	content := strings.TrimSpace(text)

	r.mu.Lock()
	switch {
	case content == "":
		r.mu.Unlock()
		return ErrEmptyMessage
	case r.session == nil:
		r.mu.Unlock()
		return ErrNoSession
	case r.sending:
		r.mu.Unlock()
		return ErrSending
	}

	now := r.now()
	id := now.UnixMilli()
	for containsID(r.messages, id) {
		id++
	}
	placeholder := models.ChatMessage{
		ID:        id,
		Content:   content,
		Role:      models.RoleUser,
		CreatedAt: models.NewTimestamp(now),
	}
	r.messages = append(r.messages, placeholder)
	r.draft = ""
	r.sending = true
	sessionID := r.session.ID
	gen := r.gen
	r.mu.Unlock()

	res, err := r.backend.SendMessage(ctx, sessionID, content)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sending = false

	if err != nil {
		r.draft = content
		if gen == r.gen {
			r.messages = removeByID(r.messages, placeholder.ID)
		}
		return fmt.Errorf("send message: %w", err)
	}

	if gen == r.gen {
		r.messages = replaceByID(r.messages, placeholder.ID, res.Messages())
	}
	return nil
}

func containsID(msgs []models.ChatMessage, id int64) bool {
	for _, m := range msgs {
		if m.ID == id {
			return true
		}
	}
	return false
}

func removeByID(msgs []models.ChatMessage, id int64) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

// replaceByID swaps the message with id for repl, or appends repl when the
// message is gone.
func replaceByID(msgs []models.ChatMessage, id int64, repl []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(msgs)+len(repl))
	replaced := false
	for _, m := range msgs {
		if m.ID == id && !replaced {
			out = append(out, repl...)
			replaced = true
			continue
		}
		out = append(out, m)
	}
	if !replaced {
		out = append(out, repl...)
	}
	return out
}
