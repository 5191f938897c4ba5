package session

import (
	"context"
	"errors"
)

// ErrNoToken is returned by TokenStore.Get when no token is stored.
var ErrNoToken = errors.New("no token stored")

// TokenStore persists a single bearer token under a fixed key.
// No validation is performed at this layer: any string may be stored.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	// Clear removes the token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
