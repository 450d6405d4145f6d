package app

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/mockapi"
)

func writeConfig(t *testing.T, apiURL string) (configPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	configPath = filepath.Join(dir, "config.toml")
	body := fmt.Sprintf(`api_url = %q
session_file = %q
log_file = %q
log_level = "debug"
`, apiURL, filepath.Join(dir, "session.toml"), filepath.Join(dir, "logs", "folio.log"))
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o644))
	return configPath, dir
}

func TestOpenWiresSessionIntoClient(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvSessionFile, "")

	srv := mockapi.New(mockapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, srv.Seed())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	configPath, dir := writeConfig(t, ts.URL+mockapi.APIPrefix)
	env, err := Open(Options{ConfigPath: configPath, PrefsPath: filepath.Join(dir, "prefs.toml")})
	require.NoError(t, err)
	defer env.Close()

	env.Session.Restore()
	require.False(t, env.Session.IsAuthenticated())

	ctx := context.Background()
	resp, err := env.Client.Login(ctx, bookshelf.Credentials{Email: mockapi.DemoEmail, Password: mockapi.DemoPassword})
	require.NoError(t, err)
	require.NoError(t, env.Session.Login(resp.Token, resp.User))

	books, err := env.Client.MyBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 12)

	_, err = os.Stat(filepath.Join(dir, "logs", "folio.log"))
	assert.NoError(t, err, "log file created")
}

func TestOpenUnauthorizedClearsSession(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvSessionFile, "")

	ts := httptest.NewServer(mockapi.New().Handler())
	defer ts.Close()

	configPath, dir := writeConfig(t, ts.URL+mockapi.APIPrefix)
	env, err := Open(Options{ConfigPath: configPath, PrefsPath: filepath.Join(dir, "prefs.toml")})
	require.NoError(t, err)
	defer env.Close()

	env.Session.Restore()
	require.NoError(t, env.Session.Login("expired", bookshelf.User{ID: "u1", Name: "Ghost"}))

	_, err = env.Client.MyBooks(context.Background())
	require.Error(t, err)
	assert.False(t, env.Session.IsAuthenticated())
	_, statErr := os.Stat(filepath.Join(dir, "session.toml"))
	assert.True(t, os.IsNotExist(statErr), "session file removed")
}

func TestOpenRejectsBadAPIURL(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	configPath, dir := writeConfig(t, "http://")
	_, err := Open(Options{ConfigPath: configPath, PrefsPath: filepath.Join(dir, "prefs.toml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init api client")
}
