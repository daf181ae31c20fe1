package pdftools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs an external program to completion.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs programs with os/exec. Output is discarded unless the
// program fails, in which case stderr is folded into the error.
type ExecRunner struct{}

// Run implements CommandRunner. The process is killed when ctx ends.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// LookPath resolves a program name on PATH.
type LookPath func(file string) (string, error)

func missingTools(look LookPath, tools ...string) error {
	var missing []string
	for _, t := range tools {
		if _, err := look(t); err != nil {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return errors.New("required tools not found on PATH: " + strings.Join(missing, ", "))
	}
	return nil
}
