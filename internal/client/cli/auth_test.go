package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/docsum/internal/client/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_Command(t *testing.T) {
	e := newTestApp(t, "x@y.com\nPassw0rd!\n")
	e.mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "x@y.com", in["email"])
		assert.Equal(t, "Passw0rd!", in["password"])
		writeJSON(w, 200, map[string]any{
			"token": "a.b.c",
			"user":  map[string]any{"id": 1, "email": "x@y.com", "name": "X"},
		})
	})

	require.NoError(t, e.app.Login(context.Background(), nil))

	assert.True(t, e.app.isLoggedIn())
	assert.Contains(t, e.out.String(), "Signed in as X")
	assert.Equal(t, " (X)", e.app.getStatus())
}

func TestLogin_InvalidFormIsNotSent(t *testing.T) {
	e := newTestApp(t, "not-an-email\n\n")
	var hits atomic.Int32
	e.mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	err := e.app.Login(context.Background(), nil)

	require.ErrorIs(t, err, validation.ErrInvalidForm)
	assert.Contains(t, err.Error(), "Password is required")
	assert.Zero(t, hits.Load())
	assert.False(t, e.app.isLoggedIn())
}

func TestRegister_Command(t *testing.T) {
	e := newTestApp(t, "Ada Lovelace\nada@example.com\nAnalytical1!\n")
	e.mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Ada Lovelace", in["name"])
		writeJSON(w, 201, map[string]any{
			"access_token": "a.b.c",
			"user":         map[string]any{"id": 2, "email": "ada@example.com", "name": "Ada Lovelace"},
		})
	})

	require.NoError(t, e.app.Register(context.Background(), nil))

	assert.True(t, e.app.isLoggedIn())
	assert.Contains(t, e.out.String(), "Welcome, Ada Lovelace!")
}

func TestGoogle_CompletesThroughCallback(t *testing.T) {
	e := newTestApp(t, "")

	orig := announceLogin
	t.Cleanup(func() { announceLogin = orig })

	user, err := json.Marshal(map[string]any{"id": 3, "email": "g@example.com", "name": "G"})
	require.NoError(t, err)

	var loginURL string
	announceLogin = func(_ io.Writer, login, callback string) {
		loginURL = login
		go func() {
			resp, err := http.Get(callback + "?token=g.h.i&user=" + url.QueryEscape(string(user)))
			if err == nil {
				resp.Body.Close()
			}
		}()
	}

	require.NoError(t, e.app.Google(context.Background(), nil))

	assert.Equal(t, e.cfg.APIURL+"/auth/google", loginURL)
	assert.True(t, e.app.isLoggedIn())
	assert.Equal(t, "g.h.i", e.app.store.Token())
	assert.Contains(t, e.out.String(), "Signed in as G")
}

func TestGoogle_ProviderError(t *testing.T) {
	e := newTestApp(t, "")

	orig := announceLogin
	t.Cleanup(func() { announceLogin = orig })
	announceLogin = func(_ io.Writer, _, callback string) {
		go func() {
			resp, err := http.Get(callback + "?error=access_denied")
			if err == nil {
				resp.Body.Close()
			}
		}()
	}

	err := e.app.Google(context.Background(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
	assert.False(t, e.app.isLoggedIn())
}

func TestLogout_Command(t *testing.T) {
	e := newTestApp(t, "")
	e.signIn(t, "a.b.c")

	var hits atomic.Int32
	e.mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "Bearer a.b.c", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, e.app.Logout(context.Background(), nil))

	assert.EqualValues(t, 1, hits.Load())
	assert.False(t, e.app.isLoggedIn())
	assert.Contains(t, e.out.String(), "You are signed out")

	v, err := e.app.repo.Get(context.Background(), "authToken")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestWhoAmI_ShowsTokenExpiry(t *testing.T) {
	e := newTestApp(t, "")
	e.signIn(t, signedToken(t, time.Now().Add(time.Hour)))

	require.NoError(t, e.app.WhoAmI(context.Background(), nil))

	out := e.out.String()
	assert.Contains(t, out, "Email:   x@y.com")
	assert.Contains(t, out, "Token:   expires")
}

func TestRename_UpdatesSessionOnly(t *testing.T) {
	e := newTestApp(t, "")
	e.signIn(t, "a.b.c")

	require.NoError(t, e.app.Rename(context.Background(), []string{"New", "Name"}))

	assert.Equal(t, "New Name", e.app.store.State().User.Name)
	assert.Equal(t, " (New Name)", e.app.getStatus())
}

func TestVerify_RejectedTokenSignsOut(t *testing.T) {
	e := newTestApp(t, "")
	e.signIn(t, "a.b.c")
	e.mux.HandleFunc("GET /auth/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"error": "Unauthorized"})
	})

	require.NoError(t, e.app.Verify(context.Background(), nil))

	out := e.out.String()
	assert.Contains(t, out, "Token was rejected.")
	assert.Contains(t, out, "You are signed out")
	assert.False(t, e.app.isLoggedIn())
}

func TestProfile_Command(t *testing.T) {
	e := newTestApp(t, "")
	e.signIn(t, "a.b.c")
	e.mux.HandleFunc("GET /auth/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"user": map[string]any{
			"id": 1, "email": "x@y.com", "name": "Xavier", "avatarUrl": "https://img/x.png",
		}})
	})

	require.NoError(t, e.app.Profile(context.Background(), nil))

	assert.Contains(t, e.out.String(), "Avatar:  https://img/x.png")
	assert.Equal(t, "Xavier", e.app.store.State().User.Name)
}
