package app

import (
	"context"
	"fmt"

	"prockill/internal/config"
	"prockill/internal/terminate"
)

// KillParams configures one kill run.
type KillParams struct {
	Config config.Configuration
	// Planned, when set, is called once targets are known and before any
	// action is taken.
	Planned func(targets int)
}

// KillResult aggregates the run outcome.
type KillResult struct {
	Results      []terminate.Result
	Message      string
	TotalMatches int
	Failures     int
}

// Kill captures a snapshot, matches it and terminates every target. Snapshot
// errors abort the run; target failures are counted and reported as an error
// after the batch completes.
func (a *App) Kill(ctx context.Context, params KillParams) (KillResult, error) {
	var result KillResult
	cfg := params.Config

	targets, svcs, err := a.plan(ctx, cfg)
	if svcs != nil {
		defer a.closeServices(svcs)
	}
	if params.Planned != nil {
		params.Planned(len(targets))
	}
	if err != nil {
		return result, err
	}

	result.TotalMatches = len(targets)
	if result.TotalMatches == 0 {
		result.Message = "No processes match the provided patterns"
		return result, nil
	}

	engine := &terminate.Engine{
		Processes: processControl(a.logger),
		Recovery:  recoveryQuery,
		Runner:    commandRunner(a.logger),
		Logger:    a.logger,
		Out:       a.out,
		Color:     a.color,
	}
	if svcs != nil {
		engine.Services = svcs
	}

	result.Results = engine.Run(ctx, cfg, targets)
	for _, r := range result.Results {
		if r.Outcome == terminate.Failed {
			result.Failures++
		}
	}

	if result.Failures > 0 {
		return result, fmt.Errorf("%d of %d targets failed", result.Failures, result.TotalMatches)
	}
	return result, nil
}
