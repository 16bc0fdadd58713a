package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/portico/portico/config"
)

var (
	configPath = flag.String("config", "portico.conf", "Path to config")
)

type fileConfigSource struct {
	updateChan chan struct{}
	stopChan   chan struct{}
}

func newFileConfigSource() *fileConfigSource {
	return &fileConfigSource{
		updateChan: make(chan struct{}, 1),
		stopChan:   make(chan struct{}, 1),
	}
}

func (f *fileConfigSource) Start(updateRoutes routeUpdater, errChan chan<- error) error {
	go f.run(updateRoutes, errChan)
	f.Reload()
	return nil
}

func (f *fileConfigSource) Stop(ctx context.Context) {
	f.stopChan <- struct{}{}
}

func (f *fileConfigSource) Reload() {
	select {
	case f.updateChan <- struct{}{}:
		slog.Info("Scheduled config update")
	default:
		slog.Info("A config update was already scheduled; ignoring...")
	}
}

func (f *fileConfigSource) Validate() error {
	slog.Debug("Validating config file", "path", *configPath)

	bindings, err := loadBindings()
	if err != nil {
		return err
	}

	if err := newPipeline(nil).Update(bindings); err != nil {
		return fmt.Errorf("invalid route configuration: %w", err)
	}

	slog.Info("Config file is valid", "path", *configPath)
	return nil
}

func (f *fileConfigSource) run(updateRoutes routeUpdater, errChan chan<- error) {
	for {
		select {
		case <-f.stopChan:
			return
		case <-f.updateChan:
			if err := applyConfig(updateRoutes); err != nil {
				errChan <- err
			}
		}
	}
}

// loadBindings reads and parses the configured route file.
func loadBindings() ([]config.Binding, error) {
	configFile, err := os.Open(*configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer configFile.Close()

	bindings, err := config.Parse(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return bindings, nil
}

// applyConfig loads the route file and installs its bindings.
func applyConfig(updateRoutes routeUpdater) error {
	slog.Debug("Reading config file", "path", *configPath)

	bindings, err := loadBindings()
	if err != nil {
		return err
	}

	slog.Debug("Installing routes", "count", len(bindings))
	if err := updateRoutes(bindings); err != nil {
		return fmt.Errorf("route configuration error: %w", err)
	}

	slog.Debug("Finished installing routes", "count", len(bindings))
	return nil
}
