package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/saadjs/fittrack-cli/internal/db"
	"github.com/saadjs/fittrack-cli/internal/model"
	"github.com/saadjs/fittrack-cli/internal/storage"
)

func newLocal(t *testing.T) *storage.Local {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "fittrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.ApplyMigrations(conn))
	return storage.NewLocal(conn)
}

func TestSetCredentialsPersistsSession(t *testing.T) {
	local := newLocal(t)
	auth := NewAuth(local, nil)

	auth.SetCredentials("tok-1", model.Claims{"sub": "user-7", "name": "Ada"})
	assert.True(t, auth.IsAuthenticated())
	assert.Equal(t, "tok-1", auth.Token())
	assert.Equal(t, "user-7", auth.UserID())

	token, ok, err := local.Get(storage.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-1", token)

	rawUser, ok, err := local.Get(storage.KeyUser)
	require.NoError(t, err)
	require.True(t, ok)
	var user map[string]any
	require.NoError(t, json.Unmarshal([]byte(rawUser), &user))
	assert.Equal(t, "Ada", user["name"])

	userID, ok, err := local.Get(storage.KeyUserID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user-7", userID)
}

func TestRestoreFromStorage(t *testing.T) {
	local := newLocal(t)
	NewAuth(local, nil).SetCredentials("tok-2", model.Claims{"sub": "u-2", "email": "a@b.c"})

	restored := NewAuth(local, nil)
	assert.False(t, restored.IsAuthenticated())
	restored.RestoreFromStorage()
	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, "tok-2", restored.Token())
	assert.Equal(t, "u-2", restored.UserID())
	assert.Equal(t, "a@b.c", restored.User().DisplayName())
}

func TestRestoreNeedsTokenAndUser(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(storage.KeyToken, "tok"))

	auth := NewAuth(mem, nil)
	auth.RestoreFromStorage()
	assert.False(t, auth.IsAuthenticated())

	mem = storage.NewMemory()
	require.NoError(t, mem.Set(storage.KeyUser, `{"sub":"u"}`))
	auth = NewAuth(mem, nil)
	auth.RestoreFromStorage()
	assert.False(t, auth.IsAuthenticated())
}

func TestRestoreIgnoresCorruptUser(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(storage.KeyToken, "tok"))
	require.NoError(t, mem.Set(storage.KeyUser, "{not json"))

	auth := NewAuth(mem, zap.New(core))
	auth.RestoreFromStorage()
	assert.False(t, auth.IsAuthenticated())
	assert.Empty(t, auth.Token())
	assert.Equal(t, 1, logs.Len())
}

func TestRestoreFallsBackToSubject(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(storage.KeyToken, "tok"))
	require.NoError(t, mem.Set(storage.KeyUser, `{"sub":"from-claims"}`))

	auth := NewAuth(mem, nil)
	auth.RestoreFromStorage()
	require.True(t, auth.IsAuthenticated())
	assert.Equal(t, "from-claims", auth.UserID())
}

func TestLogoutClearsMemoryAndStorage(t *testing.T) {
	mem := storage.NewMemory()
	require.NoError(t, mem.Set("unrelated", "kept"))
	auth := NewAuth(mem, nil)
	auth.SetCredentials("tok", model.Claims{"sub": "u"})

	auth.Logout()
	assert.False(t, auth.IsAuthenticated())
	assert.Empty(t, auth.Token())
	assert.Nil(t, auth.User())
	keys, err := mem.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"unrelated"}, keys)
}

type failingStore struct{}

func (failingStore) Get(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (failingStore) Set(string, string) error         { return errors.New("disk gone") }
func (failingStore) Remove(string) error              { return errors.New("disk gone") }
func (failingStore) Clear() error                     { return errors.New("disk gone") }

func TestStorageFailuresAreLoggedNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	auth := NewAuth(failingStore{}, zap.New(core))

	auth.SetCredentials("tok", model.Claims{"sub": "u"})
	assert.True(t, auth.IsAuthenticated())
	assert.Equal(t, "tok", auth.Token())
	assert.Equal(t, 1, logs.FilterMessage("failed to save session to local storage").Len())

	auth.Logout()
	assert.False(t, auth.IsAuthenticated())
	assert.Equal(t, 3, logs.FilterMessage("failed to clear local storage").Len())

	auth.RestoreFromStorage()
	assert.False(t, auth.IsAuthenticated())
}
