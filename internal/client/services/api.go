// Package services contains the application services of the docsum client:
// authentication, documents and chat. Each service talks to the backend
// through the API gateway and returns typed models.
package services

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/docsum/internal/client/client"
)

// API is the part of client.Gateway used by the services.
type API interface {
	Get(ctx context.Context, endpoint string, opts ...client.Option) (*client.Response, error)
	Post(ctx context.Context, endpoint string, body any, opts ...client.Option) (*client.Response, error)
	Delete(ctx context.Context, endpoint string, opts ...client.Option) (*client.Response, error)
	URL(endpoint string) string
}

// decodeEnvelope decodes body into v, unwrapping {"<key>": {...}} when the
// backend wraps the object.
func decodeEnvelope(resp *client.Response, key string, v any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &fields); err == nil {
		if raw, ok := fields[key]; ok && string(raw) != "null" {
			return (&client.Response{Status: resp.Status, Body: raw}).Decode(v)
		}
	}
	return resp.Decode(v)
}
