package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/docsum/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// ValidTokenFormat reports whether token has the three dot-separated parts
// of a JWT.
func ValidTokenFormat(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// TokenExpiry returns the exp claim of token without verifying its
// signature. ok is false when the token carries no exp claim.
func TokenExpiry(token string) (exp time.Time, ok bool, err error) {
	if !ValidTokenFormat(token) {
		return time.Time{}, false, common.ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	nd, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if nd == nil {
		return time.Time{}, false, nil
	}
	return nd.Time, true, nil
}

// TokenExpired reports whether token's exp claim is before now. A token that
// can't be decoded counts as expired; one without an exp claim does not.
func TokenExpired(token string, now time.Time) bool {
	exp, ok, err := TokenExpiry(token)
	if err != nil {
		return true
	}
	return ok && exp.Before(now)
}
