package session

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinclaw/internal/browser"
)

func testCookies() []browser.Cookie {
	return []browser.Cookie{
		{Name: "SPC_EC", Value: "tok", Domain: ".example.tw", Path: "/", Expires: 1924992000, HTTPOnly: true, Secure: true},
		{Name: "SPC_SI", Value: "sid", Domain: ".example.tw", Path: "/", Expires: -1},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "cookie.pkl")

	require.NoError(t, store.Save(testCookies()))

	got, err := store.Load()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SPC_EC", got[0].Name)
	assert.True(t, got[1].Session())
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "cookie.pkl")

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStoreLoadEmptyJar(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "cookie.pkl", []byte("[]"), 0o600))

	_, err := NewStore(fs, "cookie.pkl").Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStoreLoadCorruptJar(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "cookie.pkl", []byte("not json"), 0o600))

	_, err := NewStore(fs, "cookie.pkl").Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestStoreSaveCreatesParentDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "state/session/cookie.pkl")

	require.NoError(t, store.Save(testCookies()))

	exists, err := afero.Exists(fs, "state/session/cookie.pkl")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStoreSaveLeavesNoTempFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "cookie.pkl")

	require.NoError(t, store.Save(testCookies()))

	exists, err := afero.Exists(fs, "cookie.pkl.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreSaveOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "cookie.pkl")

	require.NoError(t, store.Save(testCookies()))
	require.NoError(t, store.Save(testCookies()[:1]))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStoreClear(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "cookie.pkl")
	require.NoError(t, store.Save(testCookies()))

	require.NoError(t, store.Clear())
	assert.ErrorIs(t, store.Clear(), ErrNoSession)
}

func TestStoreStat(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "cookie.pkl")

	_, err := store.Stat()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(testCookies()))

	info, err := store.Stat()
	require.NoError(t, err)
	assert.Equal(t, "cookie.pkl", info.Path)
	assert.Equal(t, 2, info.Cookies)
	assert.Greater(t, info.Size, int64(0))
}
