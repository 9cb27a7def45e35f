// Package terminate stops or kills matched targets one at a time.
package terminate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"go.uber.org/zap"

	"prockill/internal/cmdline"
	"prockill/internal/config"
	"prockill/internal/match"
	"prockill/internal/runner"
)

// ProcessControl acts on running processes by pid.
type ProcessControl interface {
	// Kill forcibly terminates the process and its descendants.
	Kill(ctx context.Context, pid int) error
	// Exited reports whether the process is no longer running.
	Exited(ctx context.Context, pid int) (bool, error)
	// WaitExit waits up to timeout and reports whether the process exited.
	WaitExit(ctx context.Context, pid int, timeout time.Duration) (bool, error)
}

// ServiceControl requests service stops.
type ServiceControl interface {
	Stop(ctx context.Context, name string) error
}

// RecoveryQuery describes the helper command that reveals whether a service is
// restarted automatically on failure. A service has restart recovery when the
// command succeeds and its output matches Marker.
type RecoveryQuery struct {
	Executable string
	Args       func(service string) []string
	Marker     *regexp.Regexp
}

// Result is the outcome of one target.
type Result struct {
	Candidate match.Candidate
	Outcome   Outcome
	IsService bool
	Err       error
}

// Engine runs the stop-or-kill procedure over an ordered target list.
type Engine struct {
	Processes ProcessControl
	Services  ServiceControl
	Recovery  RecoveryQuery
	Runner    runner.Runner
	Logger    *zap.Logger

	// Out receives the report lines; Color enables styled result tags.
	Out   io.Writer
	Color bool
}

var errStopTimeout = errors.New("process did not exit before the stop timeout")

// Run processes targets sequentially. A failing target is reported as Failed
// and never stops the batch.
func (e *Engine) Run(ctx context.Context, cfg config.Configuration, targets []match.Candidate) []Result {
	logger := e.logger()
	rep := newReporter(e.Out, cfg.Output, e.Color)

	results := make([]Result, 0, len(targets))
	for _, target := range targets {
		res := Result{Candidate: target, IsService: target.IsService()}
		res.Outcome, res.Err = e.terminate(ctx, cfg, rep, target)
		if res.Err != nil {
			res.Outcome = Failed
			logger.Error("target failed",
				zap.Int("pid", target.Process.PID),
				zap.String("path", target.Process.ExecutablePath),
				zap.Error(res.Err))
		}
		rep.result(res)
		rep.separator()
		results = append(results, res)
	}
	return results
}

func (e *Engine) terminate(ctx context.Context, cfg config.Configuration, rep *reporter, target match.Candidate) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = Failed, fmt.Errorf("panic: %v", r)
		}
	}()

	proc := target.Process
	rep.step("PID: %d - %s", proc.PID, proc.ExecutablePath)
	if cfg.Verbose {
		rep.step("CMD: %s", proc.CommandLine)
	}

	if target.Service != nil && e.shouldStop(ctx, cfg, rep, target.Service.Name) && !cfg.DryRun {
		if err := e.stopAndWait(ctx, cfg, target); err != nil {
			e.logger().Debug("service stop failed",
				zap.String("service", target.Service.Name),
				zap.Int("pid", proc.PID),
				zap.Error(err))
			rep.step("Failed to stop service.")
		} else {
			return Stopped, nil
		}
	}

	verb := "Killing"
	if cfg.DryRun {
		verb = "Would kill"
	}
	rep.step("%s process '%s'...", verb, cmdline.FileName(proc.ExecutablePath))
	if cfg.DryRun {
		return DryRun, nil
	}

	exited, err := e.Processes.Exited(ctx, proc.PID)
	if err != nil {
		return Failed, fmt.Errorf("check process %d: %w", proc.PID, err)
	}
	if exited {
		return Exited, nil
	}
	if err := e.Processes.Kill(ctx, proc.PID); err != nil {
		if gone, gerr := e.Processes.Exited(ctx, proc.PID); gerr == nil && gone {
			return Exited, nil
		}
		return Failed, fmt.Errorf("kill process %d: %w", proc.PID, err)
	}
	return Killed, nil
}

func (e *Engine) shouldStop(ctx context.Context, cfg config.Configuration, rep *reporter, service string) bool {
	verb := "Stopping"
	if cfg.DryRun {
		verb = "Would stop"
	}

	switch cfg.StopServices {
	case config.StopServicesAll:
		rep.step("%s service '%s'...", verb, service)
		return true
	case config.StopServicesRecovery:
		if e.hasRestartRecovery(ctx, service) {
			rep.step("%s service '%s' because it has recovery options...", verb, service)
			return true
		}
	}
	return false
}

func (e *Engine) hasRestartRecovery(ctx context.Context, service string) bool {
	q := e.Recovery
	if e.Runner == nil || q.Executable == "" || q.Marker == nil {
		return false
	}
	var args []string
	if q.Args != nil {
		args = q.Args(service)
	}
	ok, out := e.Runner.Run(ctx, q.Executable, args...)
	return ok && q.Marker.MatchString(out)
}

func (e *Engine) stopAndWait(ctx context.Context, cfg config.Configuration, target match.Candidate) error {
	if e.Services == nil {
		return errors.New("no service control available")
	}
	if err := e.Services.Stop(ctx, target.Service.Name); err != nil {
		return err
	}
	exited, err := e.Processes.WaitExit(ctx, target.Process.PID, cfg.StopTimeout)
	if err != nil {
		return err
	}
	if !exited {
		return errStopTimeout
	}
	return nil
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
