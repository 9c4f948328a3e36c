// Package oauth completes the browser-based Google sign-in.
//
// The backend finishes the provider flow by redirecting the browser to the
// frontend callback URL with the token and a URL-encoded JSON user record in
// the query string. Listener serves that URL locally and ParseCallback turns
// its query into a Result.
package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/docsum/internal/client/models"
)

var (
	ErrMissingAuthData = models.ErrMissingAuthData
	// ErrProvider carries the error parameter sent back by the backend.
	ErrProvider = errors.New("oauth provider error")
	// ErrInvalidCallback reports auth data that could not be decoded.
	ErrInvalidCallback = errors.New("failed to process authentication")
)

type Kind int

const (
	KindSuccess Kind = iota
	KindProviderError
	KindMissingData
	KindInvalid
)

// Result is the outcome of one callback. Token and User are set only for
// KindSuccess; Message is set for every other kind.
type Result struct {
	Kind    Kind
	Token   string
	User    models.User
	Message string

	// Params are the received query parameters in their original order.
	Params []Param
}

type Param struct {
	Key   string
	Value string
}

// Err returns nil on success and otherwise an error matching one of the
// package sentinels.
func (r Result) Err() error {
	switch r.Kind {
	case KindSuccess:
		return nil
	case KindProviderError:
		return fmt.Errorf("%w: %s", ErrProvider, r.Message)
	case KindMissingData:
		return fmt.Errorf("%w: %s", ErrMissingAuthData, r.Message)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidCallback, r.Message)
	}
}

// splitQuery decodes rawQuery keeping parameter order.
func splitQuery(rawQuery string) []Param {
	var params []Param
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		if dk, err := url.QueryUnescape(k); err == nil {
			k = dk
		}
		if dv, err := url.QueryUnescape(v); err == nil {
			v = dv
		}
		params = append(params, Param{Key: k, Value: v})
	}
	return params
}

// lookup returns the first value for key.
func lookup(params []Param, key string) (string, bool) {
	for _, p := range params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// unescapeAgain undoes the extra round of percent-encoding the backend may
// apply on top of query encoding.
func unescapeAgain(s string) string {
	if d, err := url.PathUnescape(s); err == nil {
		return d
	}
	return s
}

func receivedList(params []Param) string {
	if len(params) == 0 {
		return "none"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Key + "=" + p.Value
	}
	return strings.Join(parts, ", ")
}

// ParseCallback interprets the callback query string. A non-empty error
// parameter wins over everything else. The token and user are looked up
// under models.TokenFields and models.UserFields in priority order.
func ParseCallback(rawQuery string) Result {
	params := splitQuery(rawQuery)
	res := Result{Params: params}

	if e, ok := lookup(params, "error"); ok && e != "" {
		res.Kind = KindProviderError
		res.Message = unescapeAgain(e)
		return res
	}

	get := func(name string) (string, bool) { return lookup(params, name) }
	token, _, hasToken := models.FirstField(get, models.TokenFields)
	rawUser, _, hasUser := models.FirstField(get, models.UserFields)

	if !hasToken || !hasUser {
		res.Kind = KindMissingData
		res.Message = "Missing authentication data. Received parameters: " + receivedList(params)
		return res
	}

	var user models.User
	if err := json.Unmarshal([]byte(unescapeAgain(rawUser)), &user); err != nil {
		res.Kind = KindInvalid
		res.Message = "Failed to process authentication: " + err.Error()
		return res
	}

	res.Kind = KindSuccess
	res.Token = token
	res.User = user
	return res
}
