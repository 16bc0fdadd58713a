package main

import (
	"context"

	"github.com/portico/portico/config"
)

// routeUpdater installs a freshly parsed set of route bindings.
type routeUpdater func([]config.Binding) error

// configSource supplies route bindings to the proxy, and reinstalls them when
// its backing configuration changes.
type configSource interface {
	Start(updateRoutes routeUpdater, errChan chan<- error) error
	Stop(ctx context.Context)
	Reload()
	Validate() error
}
