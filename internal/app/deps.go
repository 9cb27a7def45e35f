package app

import (
	"context"
	"os"

	"go.uber.org/zap"

	"prockill/internal/platform"
	"prockill/internal/runner"
	"prockill/internal/snapshot"
	"prockill/internal/terminate"
)

// serviceManager is the platform service backend used by one run.
type serviceManager interface {
	snapshot.ServiceSource
	terminate.ServiceControl
	Close() error
}

var (
	selfPID            = os.Getpid
	processSource      = defaultProcessSource
	openServiceManager = defaultOpenServiceManager
	processControl     = defaultProcessControl
	commandRunner      = defaultCommandRunner
	recoveryQuery      = platform.Recovery
)

func resetPlatformDeps() {
	selfPID = os.Getpid
	processSource = defaultProcessSource
	openServiceManager = defaultOpenServiceManager
	processControl = defaultProcessControl
	commandRunner = defaultCommandRunner
	recoveryQuery = platform.Recovery
}

func defaultProcessSource() snapshot.ProcessSource {
	return snapshot.Gopsutil{}
}

func defaultOpenServiceManager(ctx context.Context, logger *zap.Logger) (serviceManager, error) {
	svcs, err := platform.OpenServices(ctx, logger)
	if err != nil {
		return nil, err
	}
	return svcs, nil
}

func defaultProcessControl(logger *zap.Logger) terminate.ProcessControl {
	return &platform.Processes{Logger: logger}
}

func defaultCommandRunner(logger *zap.Logger) runner.Runner {
	return runner.New(logger)
}
