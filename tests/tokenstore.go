package testutil

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zugate/teacherdash/core/session"
)

// CheckTokenStore runs the behaviour every session.TokenStore must have against an empty store.
func CheckTokenStore(t *testing.T, store session.TokenStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx)
	assert.Equal(t, session.ErrNoToken, errors.Cause(err), "Get() on an empty store")
	require.NoError(t, store.Clear(ctx), "Clear() on an empty store")

	require.NoError(t, store.Set(ctx, "first"))
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	// no validation at this layer: anything goes
	require.NoError(t, store.Set(ctx, "not even a jwt"))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "not even a jwt", got)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Get(ctx)
	assert.Equal(t, session.ErrNoToken, errors.Cause(err), "Get() after Clear()")
	require.NoError(t, store.Clear(ctx), "Clear() twice")
}
