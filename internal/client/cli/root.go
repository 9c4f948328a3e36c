package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/docsum/internal/client/session"
)

// now is swapped in tests.
var now = time.Now

func (a *App) getStatus() string {
	st := a.store.State()
	if !st.IsAuthenticated || st.User == nil {
		return ""
	}
	name := st.User.Name
	if name == "" {
		name = st.User.Email
	}
	if doc := a.chat.DocumentID(); doc != 0 {
		return fmt.Sprintf(" (%s, doc %d)", name, doc)
	}
	return fmt.Sprintf(" (%s)", name)
}

// Root restores the persisted session, starts the storage watcher and runs
// the REPL until the user exits.
func (a *App) Root(ctx context.Context) error {
	fmt.Fprintln(a.out, "Welcome to docsum CLI (type 'help' for commands)")

	if err := a.store.Init(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	st := a.store.State()
	a.authed.Store(st.IsAuthenticated)
	if st.IsAuthenticated {
		fmt.Fprintf(a.out, "Signed in as %s <%s>\n", st.User.Name, st.User.Email)
		if session.TokenExpired(st.Token, now()) {
			fmt.Fprintln(a.out, "Warning: the saved token has expired; the next request will probably ask you to sign in again.")
		}
	}

	unsubscribe := a.store.Subscribe(a.onSessionChange)
	defer unsubscribe()

	var wg sync.WaitGroup
	defer wg.Wait()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.watchStorage(watchCtx)
	}()

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
	return nil
}

func (a *App) commands() []command {
	return []command{
		{name: "register", usage: "register", help: "create an account", access: accessGuest, run: a.Register},
		{name: "login", usage: "login", help: "sign in with email and password", access: accessGuest, run: a.Login},
		{name: "google", usage: "google", help: "sign in with Google in your browser", access: accessGuest, run: a.Google},

		{name: "whoami", usage: "whoami", help: "show the signed-in user", access: accessUser, run: a.WhoAmI},
		{name: "profile", usage: "profile", help: "refresh the profile from the server", access: accessUser, run: a.Profile},
		{name: "rename", usage: "rename <name>", help: "change the displayed name", access: accessUser, minArgs: 1, run: a.Rename},
		{name: "verify", usage: "verify", help: "check the token with the server", access: accessUser, run: a.Verify},

		{name: "docs", usage: "docs [page]", help: "list your documents", access: accessUser, run: a.Docs},
		{name: "show", usage: "show <id>", help: "show a document", access: accessUser, minArgs: 1, run: a.Show},
		{name: "upload", usage: "upload <path|s3://bucket/key> [title]", help: "upload a PDF, DOCX, TXT or XLSX file", access: accessUser, minArgs: 1, run: a.Upload},
		{name: "delete", usage: "delete <id>", help: "delete a document", access: accessUser, minArgs: 1, run: a.Delete},
		{name: "summarize", usage: "summarize <id>", help: "generate a summary", access: accessUser, minArgs: 1, run: a.Summarize},
		{name: "embed", usage: "embed <id>", help: "generate embeddings for search", access: accessUser, minArgs: 1, run: a.Embed},
		{name: "search", usage: "search <query>", help: "semantic search over your documents", access: accessUser, minArgs: 1, run: a.Search},

		{name: "use", usage: "use <documentID>", help: "chat about a document", access: accessUser, minArgs: 1, run: a.Use},
		{name: "sessions", usage: "sessions", help: "list chats for the current document", access: accessUser, run: a.Sessions},
		{name: "newchat", usage: "newchat", help: "start a chat for the current document", access: accessUser, run: a.NewChat},
		{name: "open", usage: "open <sessionID>", help: "open an existing chat", access: accessUser, minArgs: 1, run: a.Open},
		{name: "say", usage: "say <text>", help: "send a message", access: accessUser, minArgs: 1, run: a.Say},
		{name: "retry", usage: "retry", help: "resend the last unsent message", access: accessUser, run: a.Retry},
		{name: "messages", usage: "messages", help: "show the conversation", access: accessUser, run: a.Messages},

		{name: "logout", usage: "logout", help: "sign out", access: accessUser, run: a.Logout},
	}
}
