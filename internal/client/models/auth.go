package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Accepted field names for auth payloads, highest priority first. The same
// lists govern login/register responses and OAuth callback parameters.
var (
	TokenFields = []string{"token", "access_token", "authToken"}
	UserFields  = []string{"user", "userData"}
)

var ErrMissingAuthData = errors.New("missing authentication data")

// AuthPayload is a token + user pair issued by the backend.
type AuthPayload struct {
	Token string
	User  User
}

// FirstField returns the value and name of the first field in names that
// lookup reports as present and non-empty.
func FirstField(lookup func(string) (string, bool), names []string) (value, name string, ok bool) {
	for _, n := range names {
		if v, found := lookup(n); found && v != "" {
			return v, n, true
		}
	}
	return "", "", false
}

// ParseAuthPayload decodes a login/register response body. The token may be
// carried under any of TokenFields and the user under any of UserFields.
func ParseAuthPayload(data []byte) (AuthPayload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return AuthPayload{}, fmt.Errorf("decode auth payload: %w", err)
	}

	token, _, ok := FirstField(func(name string) (string, bool) {
		raw, found := fields[name]
		if !found {
			return "", false
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}, TokenFields)
	if !ok {
		return AuthPayload{}, fmt.Errorf("%w: no token field", ErrMissingAuthData)
	}

	for _, name := range UserFields {
		raw, found := fields[name]
		if !found || string(raw) == "null" {
			continue
		}
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return AuthPayload{}, fmt.Errorf("decode %s: %w", name, err)
		}
		return AuthPayload{Token: token, User: u}, nil
	}
	return AuthPayload{}, fmt.Errorf("%w: no user field", ErrMissingAuthData)
}
