package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/shirou/gopsutil/v4/process"
)

// Gopsutil reads processes through gopsutil.
type Gopsutil struct{}

// Processes lists every process whose details could still be read. A process
// that disappears between the pid listing and the detail reads is dropped; an
// unreadable executable path or command line is left empty.
func (Gopsutil) Processes(ctx context.Context) ([]ProcessRecord, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	records := make([]ProcessRecord, 0, len(procs))
	for _, p := range procs {
		if rec, ok := readRecord(ctx, int(p.Pid), p); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

type processReader interface {
	ExeWithContext(ctx context.Context) (string, error)
	CmdlineWithContext(ctx context.Context) (string, error)
}

// readRecord reports false when the process exited before its details were
// read.
func readRecord(ctx context.Context, pid int, p processReader) (ProcessRecord, bool) {
	exe, exeErr := p.ExeWithContext(ctx)
	cmdline, cmdErr := p.CmdlineWithContext(ctx)
	if gone(exeErr) || gone(cmdErr) {
		return ProcessRecord{}, false
	}
	if exeErr != nil {
		exe = ""
	}
	if cmdErr != nil {
		cmdline = ""
	}
	return ProcessRecord{PID: pid, ExecutablePath: exe, CommandLine: cmdline}, true
}

func gone(err error) bool {
	return err != nil && (errors.Is(err, process.ErrorProcessNotRunning) || errors.Is(err, fs.ErrNotExist))
}
