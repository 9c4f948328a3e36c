package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/docsum/internal/client/client"
	"github.com/dmitrijs2005/docsum/internal/client/models"
	"github.com/dmitrijs2005/docsum/internal/client/oauth"
	"github.com/dmitrijs2005/docsum/internal/client/session"
	"github.com/dmitrijs2005/docsum/internal/client/validation"
	"github.com/dmitrijs2005/docsum/internal/common"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login/Register: validate the form, call the backend and, on success,
//     persist the session. On failure the session is untouched.
//   - CompleteOAuth: persist the pair delivered by the OAuth callback and
//     tell the session store to re-read it.
//   - Logout: best-effort backend notification, then local sign-out.
//   - Profile: fetch the profile and merge it into the session.
//   - Verify: ask the backend whether the token is still accepted.
//   - GoogleLoginURL: where the browser starts the OAuth flow.
type AuthService interface {
	Login(ctx context.Context, form validation.LoginForm) (models.User, error)
	Register(ctx context.Context, form validation.RegisterForm) (models.User, error)
	CompleteOAuth(ctx context.Context, res oauth.Result) error
	Logout(ctx context.Context)
	Profile(ctx context.Context) (models.User, error)
	Verify(ctx context.Context) (bool, error)
	GoogleLoginURL() string
}

// Sessions is the part of the session store the auth service drives.
type Sessions interface {
	Authenticate(ctx context.Context, token string, user models.User) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context, notifier session.LogoutNotifier)
	UpdateProfile(patch models.UserPatch)
}

type authService struct {
	api      API
	sessions Sessions
	storage  session.Storage
}

func NewAuthService(api API, sessions Sessions, storage session.Storage) AuthService {
	return &authService{api: api, sessions: sessions, storage: storage}
}

func (a *authService) signIn(ctx context.Context, resp *client.Response) (models.User, error) {
	payload, err := models.ParseAuthPayload(resp.Body)
	if err != nil {
		return models.User{}, err
	}
	if err := a.sessions.Authenticate(ctx, payload.Token, payload.User); err != nil {
		return models.User{}, err
	}
	return payload.User, nil
}

func (a *authService) Login(ctx context.Context, form validation.LoginForm) (models.User, error) {
	if err := validation.ValidateLogin(form); err != nil {
		return models.User{}, err
	}
	resp, err := a.api.Post(ctx, "/auth/login", form, client.WithoutAuth())
	if err != nil {
		return models.User{}, err
	}
	return a.signIn(ctx, resp)
}

func (a *authService) Register(ctx context.Context, form validation.RegisterForm) (models.User, error) {
	if err := validation.ValidateRegister(form); err != nil {
		return models.User{}, err
	}
	resp, err := a.api.Post(ctx, "/auth/register", form, client.WithoutAuth())
	if err != nil {
		return models.User{}, err
	}
	return a.signIn(ctx, resp)
}

func (a *authService) CompleteOAuth(ctx context.Context, res oauth.Result) error {
	if err := res.Err(); err != nil {
		return err
	}

	rawUser, err := json.Marshal(res.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := a.storage.SetMany(ctx, map[string][]byte{
		common.StorageKeyToken: []byte(res.Token),
		common.StorageKeyUser:  rawUser,
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return a.sessions.Refresh(ctx)
}

// backendLogout posts /auth/logout on behalf of the session store.
type backendLogout struct {
	api API
}

func (b backendLogout) Logout(ctx context.Context) error {
	_, err := b.api.Post(ctx, "/auth/logout", nil)
	return err
}

func (a *authService) Logout(ctx context.Context) {
	a.sessions.Logout(ctx, backendLogout{api: a.api})
}

func (a *authService) Profile(ctx context.Context) (models.User, error) {
	resp, err := a.api.Get(ctx, "/auth/profile")
	if err != nil {
		return models.User{}, err
	}

	var u models.User
	if err := decodeEnvelope(resp, "user", &u); err != nil {
		return models.User{}, err
	}
	if u.ID == 0 {
		return models.User{}, &client.APIError{
			Kind:    client.ErrAPI,
			Status:  resp.Status,
			Code:    client.CodeAPI,
			Message: "profile response carries no user",
		}
	}

	a.sessions.UpdateProfile(models.UserPatch{
		ID:        &u.ID,
		Email:     &u.Email,
		Name:      &u.Name,
		AvatarURL: avatarPatch(u.AvatarURL),
		CreatedAt: &u.CreatedAt,
	})
	return u, nil
}

func avatarPatch(p *string) *string {
	if p == nil {
		empty := ""
		return &empty
	}
	return p
}

type verifyResponse struct {
	Valid *bool `json:"valid"`
}

// Verify reports true when the backend accepts the token. A 401 is reported
// as (false, nil) after the gateway has cleared the session.
func (a *authService) Verify(ctx context.Context) (bool, error) {
	resp, err := a.api.Get(ctx, "/auth/verify")
	if err != nil {
		if apiErr, ok := client.AsAPIError(err); ok && apiErr.Kind == client.ErrAuthFailed {
			return false, nil
		}
		return false, err
	}

	var v verifyResponse
	if err := resp.Decode(&v); err != nil {
		return false, err
	}
	if v.Valid != nil {
		return *v.Valid, nil
	}
	return true, nil
}

func (a *authService) GoogleLoginURL() string {
	return a.api.URL("/auth/google")
}
