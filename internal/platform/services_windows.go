//go:build windows

package platform

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"prockill/internal/snapshot"
	"prockill/internal/terminate"
)

// Recovery queries the failure actions configured for a Windows service.
var Recovery = terminate.RecoveryQuery{
	Executable: "sc.exe",
	Args: func(name string) []string {
		return []string{"qFailure", name}
	},
	Marker: regexp.MustCompile(`FAILURE_ACTIONS\s+:\s+RESTART`),
}

// Services lists and stops services through the service control manager.
type Services struct {
	m      *mgr.Mgr
	logger *zap.Logger
}

// OpenServices connects to the local service control manager.
func OpenServices(_ context.Context, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m, err := mgr.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect to service control manager: %w", err)
	}
	return &Services{m: m, logger: logger}, nil
}

// Close disconnects from the service control manager.
func (s *Services) Close() error {
	if s.m == nil {
		return nil
	}
	err := s.m.Disconnect()
	s.m = nil
	return err
}

// Services returns every running service with its binary path.
func (s *Services) Services(ctx context.Context) ([]snapshot.ServiceRecord, error) {
	if s.m == nil {
		return nil, fmt.Errorf("service control manager connection is closed")
	}
	names, err := s.m.ListServices()
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	records := make([]snapshot.ServiceRecord, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, ok := s.describe(name)
		if ok && rec.IsRunning {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *Services) describe(name string) (snapshot.ServiceRecord, bool) {
	rec := snapshot.ServiceRecord{Name: name}
	service, err := s.m.OpenService(name)
	if err != nil {
		s.logger.Debug("failed to open service", zap.String("service", name), zap.Error(err))
		return rec, false
	}
	defer service.Close()

	status, err := service.Query()
	if err != nil {
		s.logger.Debug("failed to query service", zap.String("service", name), zap.Error(err))
		return rec, false
	}
	rec.IsRunning = status.State == svc.Running

	if cfg, err := service.Config(); err == nil {
		rec.ExecutablePath = cfg.BinaryPathName
	} else {
		s.logger.Debug("failed to read service config", zap.String("service", name), zap.Error(err))
	}
	return rec, true
}

// Stop sends the stop control to the service.
func (s *Services) Stop(_ context.Context, name string) error {
	if s.m == nil {
		return fmt.Errorf("service control manager connection is closed")
	}
	service, err := s.m.OpenService(name)
	if err != nil {
		return fmt.Errorf("open service %s: %w", name, err)
	}
	defer service.Close()

	if _, err := service.Control(svc.Stop); err != nil {
		return fmt.Errorf("stop service %s: %w", name, err)
	}
	return nil
}
