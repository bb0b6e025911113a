package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	return store
}

func TestNewStoreDefaults(t *testing.T) {
	store := newTestStore(t)

	snapshot := store.Snapshot()
	assert.False(t, snapshot.Enabled)
	assert.Empty(t, snapshot.APIURL)
	assert.Empty(t, snapshot.APIKey)
	assert.False(t, snapshot.DevMode)
	assert.True(t, snapshot.SystemLookup)
}

func TestApplyMergesPartialUpdate(t *testing.T) {
	store := newTestStore(t)

	updated, err := store.Apply(Update{
		Enabled: boolPtr(true),
		APIURL:  strPtr("https://api.example.com"),
	})
	require.NoError(t, err)
	assert.True(t, updated.Enabled)
	assert.Equal(t, "https://api.example.com", updated.APIURL)
	assert.True(t, updated.SystemLookup, "untouched fields keep their value")

	updated, err = store.Apply(Update{APIKey: strPtr("secret")})
	require.NoError(t, err)
	assert.Equal(t, "secret", updated.APIKey)
	assert.Equal(t, "https://api.example.com", updated.APIURL)
}

func TestApplyRejectsBadURLAndKeepsPrevious(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Apply(Update{APIURL: strPtr("https://api.example.com")})
	require.NoError(t, err)

	_, err = store.Apply(Update{APIURL: strPtr("ftp://api.example.com")})
	require.Error(t, err)

	_, err = store.Apply(Update{APIURL: strPtr("not a url at all://")})
	require.Error(t, err)

	assert.Equal(t, "https://api.example.com", store.Snapshot().APIURL)
}

func TestApplyAllowsClearingURL(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Apply(Update{APIURL: strPtr("https://api.example.com")})
	require.NoError(t, err)

	updated, err := store.Apply(Update{APIURL: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, updated.APIURL)
}

func TestSettingsSurviveRestart(t *testing.T) {
	file := filepath.Join(t.TempDir(), "settings.yaml")

	store, err := NewStore(file)
	require.NoError(t, err)

	_, err = store.Apply(Update{
		Enabled:      boolPtr(true),
		APIURL:       strPtr("https://api.example.com"),
		APIKey:       strPtr("secret"),
		SystemLookup: boolPtr(false),
	})
	require.NoError(t, err)

	_, err = os.Stat(file)
	require.NoError(t, err, "apply persists synchronously")

	reopened, err := NewStore(file)
	require.NoError(t, err)

	snapshot := reopened.Snapshot()
	assert.True(t, snapshot.Enabled)
	assert.Equal(t, "https://api.example.com", snapshot.APIURL)
	assert.Equal(t, "secret", snapshot.APIKey)
	assert.False(t, snapshot.SystemLookup)
}
