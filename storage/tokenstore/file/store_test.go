package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zugate/teacherdash/core/session"
	"github.com/zugate/teacherdash/tests"
)

func TestTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	testutil.CheckTokenStore(t, NewTokenStore(path, "token"))
}

func TestTokenStore_persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	require.NoError(t, NewTokenStore(path, "token").Set(ctx, "abc"))
	require.NoError(t, NewTokenStore(path, "other").Set(ctx, "xyz"))

	got, err := NewTokenStore(path, "token").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// clearing one key keeps the others
	require.NoError(t, NewTokenStore(path, "token").Clear(ctx))
	got, err = NewTokenStore(path, "other").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "xyz", got)
}

func TestTokenStore_corruptFile(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		recover func(session.TokenStore) error
		wantGet error
	}{
		{name: "clear", recover: func(st session.TokenStore) error { return st.Clear(ctx) }, wantGet: session.ErrNoToken},
		{name: "set", recover: func(st session.TokenStore) error { return st.Set(ctx, "fresh") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			require.NoError(t, os.WriteFile(path, []byte("{"), 0600))
			st := NewTokenStore(path, "token")

			_, err := st.Get(ctx)
			require.Error(t, err)
			assert.NotEqual(t, session.ErrNoToken, errors.Cause(err))

			require.NoError(t, tt.recover(st))
			got, err := st.Get(ctx)
			assert.Equal(t, tt.wantGet, errors.Cause(err))
			if tt.wantGet == nil {
				assert.Equal(t, "fresh", got)
			}
		})
	}
}
