// Package containertest builds containers over temporary trees for command tests.
package containertest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/invoice-reconciler/internal/config"
	"fjacquet/invoice-reconciler/internal/container"
	"fjacquet/invoice-reconciler/internal/logging"
)

// Env is a container rooted at a temporary directory.
type Env struct {
	Root      string
	Container *container.Container
	Logger    *logging.MockLogger
}

// New writes a config file placing every working path under a fresh temp
// directory, appends extra YAML to it and builds a container with a mock
// logger. The default hospital profile is active.
func New(t testing.TB, extra string) *Env {
	t.Helper()
	root := t.TempDir()
	cfgPath := filepath.Join(root, "config.yaml")
	body := fmt.Sprintf("paths:\n  root: %q\n%s", root, extra)
	if err := os.WriteFile(cfgPath, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.InitializeConfig(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	logger := logging.NewMockLogger()
	c, err := container.NewContainerWithLogger(cfg, logger)
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	return &Env{Root: root, Container: c, Logger: logger}
}

// Config is shorthand for the container's configuration.
func (e *Env) Config() *config.Config { return e.Container.GetConfig() }

// Mkdir creates directories relative to dir.
func (e *Env) Mkdir(t testing.TB, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.MkdirAll(filepath.Join(dir, n), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", n, err)
		}
	}
}

// WriteFile creates a file relative to dir with content and returns its path.
func (e *Env) WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}
