// Package common contains constants shared by the storage, session and
// gateway layers of the client.
package common

// Durable storage keys. Values are raw bytes: the bearer token as-is and the
// user record as JSON.
const (
	StorageKeyToken = "authToken"
	StorageKeyUser  = "user"
)

// SessionKeys lists the storage keys that together make up a session.
var SessionKeys = []string{StorageKeyToken, StorageKeyUser}

// HTTP header names used on outbound requests.
const (
	AuthorizationHeaderName = "Authorization"
	ContentTypeHeaderName   = "Content-Type"
	RequestIDHeaderName     = "X-Request-ID"
)

const ContentTypeJSON = "application/json"
