package ocr_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"fjacquet/invoice-reconciler/cmd/ocr"
	"fjacquet/invoice-reconciler/internal/container/containertest"
	"fjacquet/invoice-reconciler/internal/display"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func script(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return p
}

func newEnv(t *testing.T) *containertest.Env {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	bin := t.TempDir()
	tools := map[string]string{
		"pdfinfo":   script(t, bin, "pdfinfo", "echo 'Pages: 1'"),
		"pdftotext": script(t, bin, "pdftotext", `cat "$4"`),
		// ocrmypdf --jobs 1 -l LANG -q IN OUT
		"ocrmypdf": script(t, bin, "ocrmypdf", `printf 'ocr text' > "$7"`),
		"gs": script(t, bin, "gs", `for a; do case $a in -sOutputFile=*) out=${a#-sOutputFile=};; esac; done
printf 'x' > "$out"`),
	}
	return containertest.New(t, fmt.Sprintf(
		"tools:\n  pdfinfo: %q\n  pdftotext: %q\n  ocrmypdf: %q\n  ghostscript: %q\n",
		tools["pdfinfo"], tools["pdftotext"], tools["ocrmypdf"], tools["gs"]))
}

func TestOCRCommand_Metadata(t *testing.T) {
	assert.Equal(t, "ocr", ocr.Cmd.Use)
	assert.Contains(t, ocr.Cmd.Long, "ocrmypdf")
	assert.NotNil(t, ocr.Cmd.Flags().Lookup("compress"))
	assert.NotNil(t, ocr.Cmd.Flags().Lookup("all"))
}

func TestRun_OCROnlyInvoices(t *testing.T) {
	env := newEnv(t)
	staging := env.Config().Paths.Staging
	scanned := env.WriteFile(t, staging, "HSL000001/FEV_890701078_HSL000001.pdf", "")
	history := env.WriteFile(t, staging, "HSL000001/EPI_890701078_HSL000001.pdf", "")
	var buf bytes.Buffer

	require.NoError(t, ocr.Run(context.Background(), env.Container, display.NewPrinterTo(&buf, false), ocr.Options{}))

	got, err := os.ReadFile(scanned)
	require.NoError(t, err)
	assert.Equal(t, "ocr text", string(got))
	got, err = os.ReadFile(history)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Contains(t, buf.String(), "Documents without a text layer: 1")
}

func TestRun_AllWithCompression(t *testing.T) {
	env := newEnv(t)
	staging := env.Config().Paths.Staging
	big := env.WriteFile(t, staging, "HSL000001/EPI_890701078_HSL000001.pdf", "a long text layer already present")
	var buf bytes.Buffer

	require.NoError(t, ocr.Run(context.Background(), env.Container, display.NewPrinterTo(&buf, false),
		ocr.Options{All: true, Compress: true}))

	got, err := os.ReadFile(big)
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
	assert.Contains(t, buf.String(), "Documents without a text layer: none")
	assert.Contains(t, buf.String(), "Compression")
}

func TestRun_SkipsNonPDFInvoices(t *testing.T) {
	env := newEnv(t)
	staging := env.Config().Paths.Staging
	scanned := env.WriteFile(t, staging, "HSL000001/FEV_890701078_HSL000001.pdf", "")
	xml := env.WriteFile(t, staging, "HSL000001/FEV_890701078_HSL000001.xml", "")
	var buf bytes.Buffer

	require.NoError(t, ocr.Run(context.Background(), env.Container, display.NewPrinterTo(&buf, false), ocr.Options{}))

	got, err := os.ReadFile(scanned)
	require.NoError(t, err)
	assert.Equal(t, "ocr text", string(got))
	got, err = os.ReadFile(xml)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Contains(t, buf.String(), "Documents without a text layer: 1")
}
