//go:build linux

package platform

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
	"go.uber.org/zap"

	"prockill/internal/snapshot"
	"prockill/internal/terminate"
)

// Recovery queries the systemd Restart= setting of a unit.
var Recovery = terminate.RecoveryQuery{
	Executable: "systemctl",
	Args: func(unit string) []string {
		return []string{"show", unit, "--property=Restart"}
	},
	Marker: regexp.MustCompile(`(?m)^Restart=(always|on-failure|on-abnormal|on-abort|on-watchdog)\s*$`),
}

// Services lists and stops systemd service units over D-Bus.
type Services struct {
	conn   *dbus.Conn
	logger *zap.Logger
}

// OpenServices connects to the system bus.
func OpenServices(ctx context.Context, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	return &Services{conn: conn, logger: logger}, nil
}

// Close releases the D-Bus connection.
func (s *Services) Close() error {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	return nil
}

// Services returns active service units whose main process is running, with
// the executable taken from ExecStart.
func (s *Services) Services(ctx context.Context) ([]snapshot.ServiceRecord, error) {
	if s.conn == nil {
		return nil, fmt.Errorf("systemd connection is closed")
	}
	units, err := s.conn.ListUnitsByPatternsContext(ctx, []string{"active"}, []string{"*.service"})
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}

	records := make([]snapshot.ServiceRecord, 0, len(units))
	for _, u := range units {
		rec := snapshot.ServiceRecord{
			Name:      u.Name,
			IsRunning: u.SubState == "running",
		}
		if !rec.IsRunning {
			continue
		}
		props, err := s.conn.GetUnitTypePropertiesContext(ctx, u.Name, "Service")
		if err != nil {
			s.logger.Debug("failed to read unit properties", zap.String("unit", u.Name), zap.Error(err))
		} else {
			rec.ExecutablePath = execStartPath(props["ExecStart"])
		}
		records = append(records, rec)
	}
	return records, nil
}

// Stop queues a stop job for the unit. Completion is observed through the
// process exit, not the job.
func (s *Services) Stop(ctx context.Context, unit string) error {
	if s.conn == nil {
		return fmt.Errorf("systemd connection is closed")
	}
	if _, err := s.conn.StopUnitContext(ctx, unit, "replace", nil); err != nil {
		return fmt.Errorf("failed to stop %s: %w", unit, err)
	}
	return nil
}

// execStartPath extracts the binary paths of an ExecStart property, which
// decodes as a list of (path, argv, ...) tuples.
func execStartPath(v interface{}) string {
	entries, ok := v.([][]interface{})
	if !ok {
		return ""
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if len(entry) == 0 {
			continue
		}
		if path, ok := entry[0].(string); ok && path != "" {
			paths = append(paths, path)
		}
	}
	return strings.Join(paths, "\n")
}
