//go:build !windows

package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecRunSuccess(t *testing.T) {
	ok, out := New(nil).Run(context.Background(), "sh", "-c", "echo Restart=always; echo oops >&2")
	assert.True(t, ok)
	assert.Equal(t, "Restart=always\n", out)
}

func TestExecRunNonZeroExit(t *testing.T) {
	ok, out := New(nil).Run(context.Background(), "sh", "-c", "echo partial; exit 3")
	assert.False(t, ok)
	assert.Equal(t, "partial\n", out)
}

func TestExecRunTimeout(t *testing.T) {
	r := &Exec{Timeout: 50 * time.Millisecond}
	start := time.Now()
	ok, out := r.Run(context.Background(), "sleep", "5")
	assert.False(t, ok)
	assert.Empty(t, out)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestExecRunMissingExecutable(t *testing.T) {
	ok, _ := New(nil).Run(context.Background(), "/nonexistent/helper-binary")
	assert.False(t, ok)
}
