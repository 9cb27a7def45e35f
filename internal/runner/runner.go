// Package runner invokes short-lived helper commands.
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds every helper invocation.
const DefaultTimeout = 5 * time.Second

// Runner executes an external command and reports whether it succeeded along
// with its standard output.
type Runner interface {
	Run(ctx context.Context, executable string, args ...string) (bool, string)
}

// Exec runs commands through os/exec.
type Exec struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// New returns an Exec runner with the default timeout.
func New(logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{Timeout: DefaultTimeout, Logger: logger}
}

// Run starts executable and waits for it. A timeout kills the command and
// reports failure with no output; a non-zero exit reports failure with whatever
// was written to stdout.
func (e *Exec) Run(ctx context.Context, executable string, args ...string) (bool, string) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running helper", zap.String("executable", executable), zap.Strings("args", args))
	err := cmd.Run()
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		logger.Debug("helper stderr", zap.String("executable", executable), zap.String("stderr", msg))
	}
	if ctx.Err() == context.DeadlineExceeded {
		logger.Debug("helper timed out", zap.String("executable", executable), zap.Duration("timeout", timeout))
		return false, ""
	}
	if err != nil {
		logger.Debug("helper failed", zap.String("executable", executable), zap.Error(err))
		return false, stdout.String()
	}
	return true, stdout.String()
}
