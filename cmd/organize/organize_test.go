package organize_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"fjacquet/invoice-reconciler/cmd/common"
	"fjacquet/invoice-reconciler/cmd/organize"
	"fjacquet/invoice-reconciler/internal/apperror"
	"fjacquet/invoice-reconciler/internal/container/containertest"
	"fjacquet/invoice-reconciler/internal/display"
	"fjacquet/invoice-reconciler/internal/fileutils"
	"fjacquet/invoice-reconciler/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ledgerCSV = "Doc,No Doc,Paciente,Administradora,Contrato,Operario\n" +
	"HSL,354753,Ana,Nueva EPS,Subsidiado,op1\n" +
	"HSL,12,Luis,Sanitas,,op2\n" +
	"HSL,99,Eva,Sanitas,,op2\n"

func setup(t *testing.T) (*containertest.Env, string) {
	env := containertest.New(t, "")
	staging := env.Config().Paths.Staging
	env.WriteFile(t, staging, "HSL354753/FEV_890701078_HSL354753.pdf", "x")
	env.WriteFile(t, staging, "HSL12/FEV_890701078_HSL12.pdf", "x")
	return env, env.WriteFile(t, env.Root, "ledger.csv", ledgerCSV)
}

func TestOrganizeCommand_Metadata(t *testing.T) {
	assert.Equal(t, "organize", organize.Cmd.Use)
	assert.Contains(t, organize.Cmd.Long, "dry run")
	assert.Equal(t, "false", organize.Cmd.Flags().Lookup("apply").DefValue)
}

func TestRun_DryRun(t *testing.T) {
	env, ledger := setup(t)
	var buf bytes.Buffer

	err := organize.Run(env.Container, display.NewPrinterTo(&buf, false), organize.Options{Ledger: ledger})
	require.NoError(t, err)

	cfg := env.Config()
	assert.True(t, fileutils.DirectoryExists(filepath.Join(cfg.Paths.Staging, "HSL354753")))
	assert.False(t, fileutils.Exists(cfg.Paths.Storage))
	assert.Contains(t, buf.String(), "dry run")

	missing, err := report.ReadList(cfg.ReportPath(common.MissingFoldersList))
	require.NoError(t, err)
	assert.Equal(t, []string{"HSL99"}, missing)
}

func TestRun_Apply(t *testing.T) {
	env, ledger := setup(t)

	err := organize.Run(env.Container, display.NewPrinterTo(&bytes.Buffer{}, false), organize.Options{Ledger: ledger, Apply: true})
	require.NoError(t, err)

	storage := env.Config().Paths.Storage
	assert.True(t, fileutils.FileExists(filepath.Join(storage, "Nueva EPS", "Subsidiado", "HSL354753", "FEV_890701078_HSL354753.pdf")))
	assert.True(t, fileutils.DirectoryExists(filepath.Join(storage, "Sanitas", "HSL12")))
	assert.False(t, fileutils.Exists(filepath.Join(env.Config().Paths.Staging, "HSL12")))
}

func TestRun_MissingStaging(t *testing.T) {
	env := containertest.New(t, "")
	err := organize.Run(env.Container, display.NewPrinterTo(&bytes.Buffer{}, false), organize.Options{})
	assert.True(t, apperror.IsNotFound(err))
}
