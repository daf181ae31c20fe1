package root_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"fjacquet/invoice-reconciler/cmd/root"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var initOnce sync.Once

func setup(t *testing.T) {
	t.Helper()
	initOnce.Do(root.Init)

	originalFlags := root.SharedFlags
	originalContainer := root.AppContainer
	originalLog := root.Log
	t.Cleanup(func() {
		root.SharedFlags = originalFlags
		root.AppContainer = originalContainer
		root.Log = originalLog
	})
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("paths:\n  root: %q\n%s", dir, body)), 0600))
	return path
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "invoice-reconciler", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "ledger")
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
}

func TestInit_Flags(t *testing.T) {
	setup(t)
	for _, name := range []string{"config", "log-level", "log-format", "hospital", "staging"} {
		assert.NotNil(t, root.Cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "c", root.Cmd.PersistentFlags().Lookup("config").Shorthand)
}

func TestSetup_BuildsContainer(t *testing.T) {
	setup(t)
	root.SharedFlags = root.CommonFlags{
		ConfigFile: writeConfig(t, ""),
		LogLevel:   "debug",
		Staging:    "/srv/staging",
	}

	require.NoError(t, root.Setup())
	c, err := root.MustContainer()
	require.NoError(t, err)
	assert.Equal(t, "/srv/staging", c.GetConfig().Paths.Staging)
	assert.Equal(t, "debug", c.GetConfig().Log.Level)
	assert.Equal(t, "CAJAMARCA", c.GetProfile().Name)
	assert.NotEmpty(t, root.RunID)
	assert.Same(t, c, root.GetContainer())
}

func TestSetup_UnknownHospital(t *testing.T) {
	setup(t)
	root.AppContainer = nil
	root.SharedFlags = root.CommonFlags{ConfigFile: writeConfig(t, ""), Hospital: "NOWHERE"}

	assert.Error(t, root.Setup())
	_, err := root.MustContainer()
	assert.Error(t, err)
}

func TestSetup_InvalidConfig(t *testing.T) {
	setup(t)
	root.SharedFlags = root.CommonFlags{ConfigFile: writeConfig(t, "workers:\n  scan: 0\n")}
	assert.Error(t, root.Setup())
}

func TestPrinter_UsesCommandOutput(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	root.Printer(cmd).Successf("done")
	assert.Contains(t, buf.String(), "done")
	assert.False(t, root.Printer(cmd).Interactive())
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, root.GetLogger())
}
