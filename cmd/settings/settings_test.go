package settings_test

import (
	"bytes"
	"testing"

	"fjacquet/invoice-reconciler/cmd/root"
	"fjacquet/invoice-reconciler/cmd/settings"
	"fjacquet/invoice-reconciler/internal/container/containertest"
	"fjacquet/invoice-reconciler/internal/display"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestSettingsCommand_Metadata(t *testing.T) {
	assert.Equal(t, "config", settings.Cmd.Use)
	assert.Contains(t, settings.Cmd.Short, "configuration")
	assert.NotNil(t, settings.Cmd.RunE)
}

func TestSettingsCommand_NoContainer(t *testing.T) {
	original := root.AppContainer
	defer func() { root.AppContainer = original }()
	root.AppContainer = nil

	err := settings.Cmd.RunE(&cobra.Command{}, nil)
	assert.EqualError(t, err, "container not initialized")
}

func TestRun(t *testing.T) {
	env := containertest.New(t, "workers:\n  scan: 2\n")
	var buf bytes.Buffer
	settings.Run(env.Container, display.NewPrinterTo(&buf, false))

	out := buf.String()
	assert.Contains(t, out, "Hospital CAJAMARCA")
	assert.Contains(t, out, "890701078")
	assert.Contains(t, out, "FEV")
	assert.Contains(t, out, env.Config().Paths.Staging)
	assert.Contains(t, out, "5m0s")
}
