// Package platform implements process and service control for the host OS.
package platform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

const exitPollInterval = 100 * time.Millisecond

// Processes controls processes through gopsutil.
type Processes struct {
	Logger *zap.Logger
}

// Kill kills pid and every descendant found at the time of the call. The tree
// is collected before the root is killed so orphaned children are still
// reached.
func (p *Processes) Kill(ctx context.Context, pid int) error {
	root, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	descendants := processTree(ctx, root)

	if err := root.KillWithContext(ctx); err != nil {
		return fmt.Errorf("kill process %d: %w", pid, err)
	}
	for _, child := range descendants {
		if err := child.KillWithContext(ctx); err != nil && !isGone(err) {
			p.logger().Debug("failed to kill child process",
				zap.Int("pid", pid),
				zap.Int32("child", child.Pid),
				zap.Error(err))
		}
	}
	return nil
}

// Exited reports whether pid is gone. Zombies count as exited.
func (p *Processes) Exited(ctx context.Context, pid int) (bool, error) {
	exists, err := process.PidExistsWithContext(ctx, int32(pid))
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		if isGone(err) {
			return true, nil
		}
		return false, err
	}
	status, err := proc.StatusWithContext(ctx)
	if err != nil {
		// Status is unavailable on some platforms; existence is all we know.
		return false, nil
	}
	for _, s := range status {
		if s == process.Zombie {
			return true, nil
		}
	}
	return false, nil
}

// WaitExit polls until pid exits or timeout elapses.
func (p *Processes) WaitExit(ctx context.Context, pid int, timeout time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(exitPollInterval)
	defer ticker.Stop()

	for {
		exited, err := p.Exited(ctx, pid)
		if err != nil && ctx.Err() == nil {
			return false, err
		}
		if exited {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, nil
		case <-ticker.C:
		}
	}
}

func (p *Processes) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// processTree returns every descendant of root, depth first.
func processTree(ctx context.Context, root *process.Process) []*process.Process {
	var out []*process.Process
	var walk func(*process.Process)
	walk = func(proc *process.Process) {
		children, err := proc.ChildrenWithContext(ctx)
		if err != nil {
			return
		}
		for _, child := range children {
			out = append(out, child)
			walk(child)
		}
	}
	walk(root)
	return out
}

func isGone(err error) bool {
	return errors.Is(err, process.ErrorProcessNotRunning) || errors.Is(err, fs.ErrNotExist)
}
