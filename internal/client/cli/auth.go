package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/docsum/internal/client/models"
	"github.com/dmitrijs2005/docsum/internal/client/oauth"
	"github.com/dmitrijs2005/docsum/internal/client/session"
	"github.com/dmitrijs2005/docsum/internal/client/validation"
	"github.com/dustin/go-humanize"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// announceLogin tells the user where to continue the Google sign-in.
var announceLogin = func(w io.Writer, loginURL, callbackURL string) {
	fmt.Fprintf(w, "Open this URL in your browser to sign in with Google:\n  %s\n", loginURL)
	fmt.Fprintf(w, "Waiting for the redirect to %s ...\n", callbackURL)
}

// Register prompts for name, email and password and creates an account.
// Validation failures are reported per field before anything is sent.
func (a *App) Register(ctx context.Context, _ []string) error {
	name, err := getSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Password", a.out)
	if err != nil {
		return err
	}

	u, err := a.authService.Register(ctx, validation.RegisterForm{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Welcome, %s!\n", displayName(u))
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context, _ []string) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Password", a.out)
	if err != nil {
		return err
	}

	u, err := a.authService.Login(ctx, validation.LoginForm{Email: email, Password: password})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s\n", displayName(u))
	return nil
}

// Google runs the browser sign-in: it serves the callback URL locally, points
// the user at the backend's Google endpoint and waits for the redirect.
func (a *App) Google(ctx context.Context, _ []string) error {
	l, err := oauth.NewListener(a.config.FrontendURL, a.authService.CompleteOAuth, a.log)
	if err != nil {
		return err
	}
	if err := l.Start(); err != nil {
		return fmt.Errorf("start callback listener: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.Close(closeCtx)
	}()

	announceLogin(a.out, a.authService.GoogleLoginURL(), l.CallbackURL())

	waitCtx, cancel := context.WithTimeout(ctx, a.config.OAuthTimeout)
	defer cancel()

	res, err := l.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("google sign-in: %w", err)
	}
	if err := res.Err(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s\n", displayName(res.User))
	return nil
}

// Logout notifies the backend and clears the local session. The session
// listener prints the sign-out notice.
func (a *App) Logout(ctx context.Context, _ []string) error {
	a.authService.Logout(ctx)
	return nil
}

func (a *App) WhoAmI(_ context.Context, _ []string) error {
	st := a.store.State()
	if st.User == nil {
		return nil
	}
	printUser(a.out, *st.User)

	if exp, ok, err := session.TokenExpiry(st.Token); err == nil && ok {
		if exp.Before(now()) {
			fmt.Fprintf(a.out, "Token:   expired %s\n", humanize.Time(exp))
		} else {
			fmt.Fprintf(a.out, "Token:   expires %s\n", humanize.Time(exp))
		}
	}
	return nil
}

// Profile fetches the profile from the backend; the session picks up any
// changes.
func (a *App) Profile(ctx context.Context, _ []string) error {
	u, err := a.authService.Profile(ctx)
	if err != nil {
		return err
	}
	printUser(a.out, u)
	return nil
}

// Rename changes the name shown for the signed-in user in this session.
func (a *App) Rename(_ context.Context, args []string) error {
	name := strings.Join(args, " ")
	a.store.UpdateProfile(models.UserPatch{Name: &name})
	fmt.Fprintf(a.out, "Display name set to %q\n", name)
	return nil
}

func (a *App) Verify(ctx context.Context, _ []string) error {
	ok, err := a.authService.Verify(ctx)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(a.out, "Token is valid.")
	} else {
		fmt.Fprintln(a.out, "Token was rejected.")
	}
	return nil
}

func displayName(u models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func printUser(w io.Writer, u models.User) {
	fmt.Fprintf(w, "Name:    %s\n", u.Name)
	fmt.Fprintf(w, "Email:   %s\n", u.Email)
	fmt.Fprintf(w, "ID:      %d\n", u.ID)
	if u.AvatarURL != nil {
		fmt.Fprintf(w, "Avatar:  %s\n", *u.AvatarURL)
	}
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Joined:  %s\n", u.CreatedAt.Local().Format("Jan 2, 2006"))
	}
}
