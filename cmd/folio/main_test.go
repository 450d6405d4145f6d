package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/mockapi"
	"github.com/five82/folio/internal/prefs"
)

type cli struct {
	configPath string
	prefsPath  string
}

func newCLI(t *testing.T) cli {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvSessionFile, "")

	srv := mockapi.New(mockapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, srv.Seed())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	c := cli{
		configPath: filepath.Join(dir, "config.toml"),
		prefsPath:  filepath.Join(dir, "prefs.toml"),
	}
	body := fmt.Sprintf("api_url = %q\nsession_file = %q\nlog_file = %q\n",
		ts.URL+mockapi.APIPrefix, filepath.Join(dir, "session.toml"), filepath.Join(dir, "folio.log"))
	require.NoError(t, os.WriteFile(c.configPath, []byte(body), 0o644))
	return c
}

func (c cli) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", c.configPath, "--prefs", c.prefsPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	out, err := c.run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "folio version "+Version+"\n", out)
}

func TestLoginWhoamiLogout(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")

	out, err = c.run(t, mockapi.DemoPassword+"\n", "login", "--email", mockapi.DemoEmail)
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome back, Demo Reader!")
	assert.Equal(t, mockapi.DemoEmail, prefs.Load(c.prefsPath).LastEmail)

	out, err = c.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Demo Reader <"+mockapi.DemoEmail+">")

	out, err = c.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "You have been logged out.")

	out, err = c.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")
}

func TestLoginUsesLastEmail(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, prefs.Save(c.prefsPath, prefs.Prefs{Theme: "Slate", LastEmail: mockapi.DemoEmail}))

	out, err := c.run(t, mockapi.DemoPassword+"\n", "login")
	require.NoError(t, err)
	assert.NotContains(t, out, "Email:")
	assert.Contains(t, out, "Welcome back")
}

func TestLoginWrongPassword(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "nope\n", "login", "--email", mockapi.DemoEmail)
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestRegisterThenLogin(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "123\n", "register", "--name", "New Reader", "--email", "new@folio.dev")
	require.Error(t, err)
	assert.Equal(t, "Password must be at least 6 characters", err.Error())

	out, err := c.run(t, "secret1\n", "register", "--name", "New Reader", "--email", "new@folio.dev")
	require.NoError(t, err)
	assert.Contains(t, out, "Registration successful!")

	_, err = c.run(t, "secret1\n", "register", "--name", "New Reader", "--email", "new@folio.dev")
	require.Error(t, err)
	assert.Equal(t, "User already exists", err.Error())

	out, err = c.run(t, "secret1\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome back, New Reader!")
}

func TestPasswordSpacesAreKept(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, " padded pw \n", "register", "--name", "Spacey", "--email", "space@folio.dev")
	require.NoError(t, err)
	assert.Contains(t, out, "Registration successful!")

	_, err = c.run(t, "padded pw\n", "login", "--email", "space@folio.dev")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())

	out, err = c.run(t, " padded pw \r\n", "login", "--email", "space@folio.dev")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome back, Spacey!")
}

func TestLogPrintsEntries(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, mockapi.DemoPassword+"\n", "login", "--email", mockapi.DemoEmail)
	require.NoError(t, err)

	out, err := c.run(t, "", "log", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "session started")
}
