package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/docsum/internal/client/models"
	"github.com/dustin/go-humanize"
)

var errNoDocument = errors.New("no document selected; use 'use <documentID>' first")

// Use makes id the chat document, clears the conversation and lists the
// document's chats.
func (a *App) Use(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a.chat.SelectDocument(id)
	a.mu.Lock()
	a.sessions = nil
	a.mu.Unlock()

	fmt.Fprintf(a.out, "Chatting about document %d.\n", id)
	return a.Sessions(ctx, nil)
}

// Sessions reloads and prints the chats of the current document.
func (a *App) Sessions(ctx context.Context, _ []string) error {
	doc := a.chat.DocumentID()
	if doc == 0 {
		return errNoDocument
	}

	list, err := a.chatService.ListSessions(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to load chat sessions: %w", err)
	}
	a.mu.Lock()
	a.sessions = list
	a.mu.Unlock()

	a.printSessions()
	return nil
}

func (a *App) printSessions() {
	a.mu.Lock()
	list := append([]models.ChatSession(nil), a.sessions...)
	a.mu.Unlock()

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No chats yet. Use 'newchat' to start one.")
		return
	}

	current, _ := a.chat.Session()
	t := newTable(a.out, "", "ID", "Name", "Created")
	for _, s := range list {
		mark := ""
		if s.ID == current.ID {
			mark = "*"
		}
		t.Append([]string{mark, strconv.FormatInt(s.ID, 10), s.SessionName, humanize.Time(s.CreatedAt.Time)})
	}
	t.Render()
}

// NewChat creates a chat for the current document and makes it current.
func (a *App) NewChat(ctx context.Context, _ []string) error {
	doc := a.chat.DocumentID()
	if doc == 0 {
		return errNoDocument
	}

	s, err := a.chatService.CreateSession(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}
	if s.DocumentID == 0 {
		s.DocumentID = doc
	}

	a.mu.Lock()
	a.sessions = append([]models.ChatSession{s}, a.sessions...)
	a.mu.Unlock()
	a.chat.StartSession(s)

	fmt.Fprintf(a.out, "Started %q (chat %d). Type 'say <text>' to ask about the document.\n", s.SessionName, s.ID)
	return nil
}

// Open loads an existing chat and prints its history.
func (a *App) Open(ctx context.Context, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.chat.SelectSession(ctx, id); err != nil {
		return err
	}

	s, _ := a.chat.Session()
	fmt.Fprintf(a.out, "Opened %q (chat %d)\n", s.SessionName, s.ID)
	return a.Messages(ctx, nil)
}

// Say sends text to the current chat and prints the reply.
func (a *App) Say(ctx context.Context, args []string) error {
	return a.send(ctx, strings.Join(args, " "))
}

// Retry resends the message left in the draft by a failed send.
func (a *App) Retry(ctx context.Context, _ []string) error {
	draft := a.chat.Draft()
	if strings.TrimSpace(draft) == "" {
		fmt.Fprintln(a.out, "Nothing to retry.")
		return nil
	}
	return a.send(ctx, draft)
}

func (a *App) send(ctx context.Context, text string) error {
	before := len(a.chat.Messages())
	if err := a.chat.Send(ctx, text); err != nil {
		if draft := a.chat.Draft(); draft != "" {
			return fmt.Errorf("%s (type 'retry' to send %q again)", errorText(err), draft)
		}
		return err
	}

	msgs := a.chat.Messages()
	if before > len(msgs) {
		return nil
	}
	for _, m := range msgs[before:] {
		if m.Role == models.RoleAI {
			printMessage(a.out, m)
		}
	}
	return nil
}

// Messages prints the current conversation.
func (a *App) Messages(_ context.Context, _ []string) error {
	if _, ok := a.chat.Session(); !ok {
		fmt.Fprintln(a.out, "No chat selected. Use 'newchat' or 'open <sessionID>'.")
		return nil
	}
	msgs := a.chat.Messages()
	if len(msgs) == 0 {
		fmt.Fprintln(a.out, "No messages yet. Ask a question about the document.")
		return nil
	}
	for _, m := range msgs {
		printMessage(a.out, m)
	}
	return nil
}

func printMessage(w io.Writer, m models.ChatMessage) {
	who := "You"
	if m.Role == models.RoleAI {
		who = "AI"
	}
	stamp := ""
	if !m.CreatedAt.IsZero() {
		stamp = "[" + m.CreatedAt.Local().Format("3:04 PM") + "] "
	}
	fmt.Fprintf(w, "%s%s: %s\n", stamp, who, m.Content)
}
