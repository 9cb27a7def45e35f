// Package snapshot captures the running processes and services a run acts on.
package snapshot

import (
	"context"
	"errors"
	"fmt"
)

// ErrServicesUnsupported is returned when no service manager is available on
// the current platform.
var ErrServicesUnsupported = errors.New("service enumeration is not supported on this platform")

// ProcessRecord describes one running process at collection time.
type ProcessRecord struct {
	PID            int
	ExecutablePath string
	CommandLine    string
}

// ServiceRecord describes one service registration at collection time.
// ExecutablePath is empty when the lookup failed.
type ServiceRecord struct {
	Name           string
	IsRunning      bool
	ExecutablePath string
}

// Snapshot is the single point-in-time view a run operates on. Services is nil
// when service correlation was not requested.
type Snapshot struct {
	Processes []ProcessRecord
	Services  []ServiceRecord
}

// ProcessSource enumerates running processes.
type ProcessSource interface {
	Processes(ctx context.Context) ([]ProcessRecord, error)
}

// ServiceSource enumerates running services.
type ServiceSource interface {
	Services(ctx context.Context) ([]ServiceRecord, error)
}

// Collector captures snapshots from its sources.
type Collector struct {
	Processes ProcessSource
	Services  ServiceSource
}

// Collect reads the process list and, when needServices is set, the running
// services. Any source failure aborts the collection.
func (c *Collector) Collect(ctx context.Context, needServices bool) (Snapshot, error) {
	var snap Snapshot
	if c.Processes == nil {
		return snap, errors.New("no process source configured")
	}

	procs, err := c.Processes.Processes(ctx)
	if err != nil {
		return snap, fmt.Errorf("collect processes: %w", err)
	}
	snap.Processes = procs

	if !needServices {
		return snap, nil
	}
	if c.Services == nil {
		return Snapshot{}, ErrServicesUnsupported
	}

	services, err := c.Services.Services(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("collect services: %w", err)
	}
	snap.Services = make([]ServiceRecord, 0, len(services))
	for _, svc := range services {
		if svc.IsRunning {
			snap.Services = append(snap.Services, svc)
		}
	}
	return snap, nil
}
