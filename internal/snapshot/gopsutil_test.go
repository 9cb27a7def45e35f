package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGopsutilListsOwnProcess(t *testing.T) {
	records, err := Gopsutil{}.Processes(context.Background())
	require.NoError(t, err)

	self := os.Getpid()
	var own *ProcessRecord
	for i := range records {
		if records[i].PID == self {
			own = &records[i]
			break
		}
	}
	require.NotNil(t, own, "own pid %d missing from snapshot", self)

	exe, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(exe), filepath.Base(own.ExecutablePath))
	assert.True(t, strings.Contains(own.CommandLine, filepath.Base(os.Args[0])),
		"command line %q does not mention %q", own.CommandLine, os.Args[0])
}

func TestGone(t *testing.T) {
	assert.False(t, gone(nil))
	assert.False(t, gone(errors.New("permission denied")))
	assert.True(t, gone(process.ErrorProcessNotRunning))
	assert.True(t, gone(fmt.Errorf("readlink /proc/1/exe: %w", fs.ErrNotExist)))
}

type fakeReader struct {
	exe, cmdline       string
	exeErr, cmdlineErr error
}

func (f fakeReader) ExeWithContext(context.Context) (string, error) {
	return f.exe, f.exeErr
}

func (f fakeReader) CmdlineWithContext(context.Context) (string, error) {
	return f.cmdline, f.cmdlineErr
}

func TestReadRecord(t *testing.T) {
	denied := errors.New("permission denied")

	tests := []struct {
		name   string
		reader fakeReader
		want   ProcessRecord
		ok     bool
	}{
		{
			name:   "readable",
			reader: fakeReader{exe: "/usr/bin/sleep", cmdline: "sleep 5"},
			want:   ProcessRecord{PID: 7, ExecutablePath: "/usr/bin/sleep", CommandLine: "sleep 5"},
			ok:     true,
		},
		{
			name:   "unreadable exe leaves path empty",
			reader: fakeReader{exe: "junk", exeErr: denied, cmdline: "sleep 5"},
			want:   ProcessRecord{PID: 7, CommandLine: "sleep 5"},
			ok:     true,
		},
		{
			name:   "unreadable cmdline leaves it empty",
			reader: fakeReader{exe: "/usr/bin/sleep", cmdlineErr: denied},
			want:   ProcessRecord{PID: 7, ExecutablePath: "/usr/bin/sleep"},
			ok:     true,
		},
		{
			name:   "exited before exe read",
			reader: fakeReader{exeErr: process.ErrorProcessNotRunning, cmdline: "sleep 5"},
		},
		{
			name:   "exited before cmdline read",
			reader: fakeReader{exe: "/usr/bin/sleep", cmdlineErr: fmt.Errorf("open /proc/7/cmdline: %w", fs.ErrNotExist)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := readRecord(context.Background(), 7, tt.reader)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
