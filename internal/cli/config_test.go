package cli

import (
	"os"
	"testing"
	"time"

	"sgu-cli/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInitThenShow(t *testing.T) {
	t.Parallel()
	e := newCLIEnv(t)

	env := e.mustRun("config", "init", "--timeout", "3s")
	data := env["data"].(map[string]any)
	assert.Equal(t, e.cfgPath, data["path"])
	assert.Equal(t, true, data["exists"])

	saved, err := config.Load(e.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, e.host, saved.Host)
	assert.Equal(t, 3*time.Second, saved.Timeout)

	_, _, err = e.runCLI(nil, "config", "init")
	assert.ErrorContains(t, err, "config file exists")

	// Flags still win over the file.
	env = e.mustRun("config", "show", "--base", "/v2/users")
	data = env["data"].(map[string]any)
	assert.Equal(t, "/v2/users", data["basePath"])
	assert.Equal(t, "3s", data["timeout"])
	assert.Equal(t, "http://"+e.host+":"+e.port+"/v2/users", data["baseURL"])
}

func TestConfigShow_UsesFileWhenFlagsAbsent(t *testing.T) {
	t.Parallel()
	e := newCLIEnv(t)
	require.NoError(t, os.WriteFile(e.cfgPath, []byte("[api]\nbase = /people\n"), 0o644))

	env := e.mustRun("config", "show")
	assert.Equal(t, "/people", env["data"].(map[string]any)["basePath"])
}

func TestInvalidConfigRejected(t *testing.T) {
	t.Parallel()
	e := newCLIEnv(t)
	_, stderr, err := e.runCLI(nil, "users", "list", "--timeout", "-1s")
	require.Error(t, err)
	assert.Contains(t, string(stderr), "negative timeout")
}

func TestStorageLabel(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"":                                   "memory",
		"memory":                             "memory",
		"sqlite://./users.db":                "sqlite://./users.db",
		"postgres://sgu:secret@db:5432/sgu":  "postgres://***@db:5432/sgu",
		"postgres://localhost/sgu?sslmode=x": "postgres://localhost/sgu?sslmode=x",
	}
	for in, want := range cases {
		assert.Equal(t, want, storageLabel(in), in)
	}
}
