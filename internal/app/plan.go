package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"prockill/internal/config"
	"prockill/internal/match"
	"prockill/internal/snapshot"
)

// Plan returns the ordered targets cfg selects without acting on them.
func (a *App) Plan(ctx context.Context, cfg config.Configuration) ([]match.Candidate, error) {
	targets, svcs, err := a.plan(ctx, cfg)
	if svcs != nil {
		a.closeServices(svcs)
	}
	return targets, err
}

// plan captures the snapshot and matches it. The returned service manager, if
// any, is owned by the caller.
func (a *App) plan(ctx context.Context, cfg config.Configuration) ([]match.Candidate, serviceManager, error) {
	collector := &snapshot.Collector{Processes: processSource()}

	var svcs serviceManager
	if cfg.NeedsServices() {
		var err error
		svcs, err = openServiceManager(ctx, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open service manager: %w", err)
		}
		collector.Services = svcs
	}

	snap, err := collector.Collect(ctx, cfg.NeedsServices())
	if err != nil {
		return nil, svcs, err
	}
	a.logger.Debug("snapshot collected",
		zap.Int("processes", len(snap.Processes)),
		zap.Int("services", len(snap.Services)))

	matcher := &match.Matcher{SelfPID: selfPID()}
	targets := matcher.Match(snap, cfg)
	a.logger.Debug("targets matched", zap.Int("targets", len(targets)))
	return targets, svcs, nil
}

func (a *App) closeServices(svcs serviceManager) {
	if err := svcs.Close(); err != nil {
		a.logger.Warn("failed to close service manager", zap.Error(err))
	}
}
