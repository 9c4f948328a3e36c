package common

import "errors"

// ErrInvalidToken reports a bearer token that is not a three-part JWT or whose
// claims cannot be decoded.
var ErrInvalidToken = errors.New("invalid token")
