//go:build !linux && !windows

package platform

import (
	"context"

	"go.uber.org/zap"

	"prockill/internal/snapshot"
	"prockill/internal/terminate"
)

// Recovery is empty: no service manager is supported here.
var Recovery = terminate.RecoveryQuery{}

// Services is a placeholder for platforms without a supported service manager.
type Services struct{}

// OpenServices always fails with snapshot.ErrServicesUnsupported.
func OpenServices(context.Context, *zap.Logger) (*Services, error) {
	return nil, snapshot.ErrServicesUnsupported
}

func (*Services) Close() error { return nil }

func (*Services) Services(context.Context) ([]snapshot.ServiceRecord, error) {
	return nil, snapshot.ErrServicesUnsupported
}

func (*Services) Stop(context.Context, string) error {
	return snapshot.ErrServicesUnsupported
}
