package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/csmith/envflag/v2"
	"github.com/portico/portico/metrics"
)

var (
	httpPort        = flag.Int("http-port", 8080, "Port to listen on for HTTP requests")
	metricsPort     = flag.Int("metrics-port", 0, "Port to expose metrics endpoint on. Disabled by default.")
	watchConfig     = flag.Bool("watch-config", false, "Reload routes automatically when the config file changes")
	debugCpuProfile = flag.String("debug-cpu-profile", "", "File to write cpu profiling information to. Disabled by default.")
	validate        = flag.Bool("validate", false, "Validate config file and exit")
)

func main() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	if err := run(os.Args[1:], signalChan); err != nil {
		slog.Error("Portico encountered a fatal error", "error", err)
		os.Exit(1)
	}
}

func run(args []string, signalChan <-chan os.Signal) error {
	envflag.Parse(envflag.WithArguments(args))
	initLogging()

	source := createConfigSource(*watchConfig)

	if *validate {
		return source.Validate()
	}

	if *debugCpuProfile != "" {
		slog.Warn("Running with CPU profiling. This will heavily impact performance.", "target", *debugCpuProfile)
		cpuFile, err := os.Create(*debugCpuProfile)
		if err != nil {
			return fmt.Errorf("could not create file for cpu profiling: %w", err)
		}
		defer cpuFile.Close()

		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	errChan := make(chan error)

	recorder := metrics.NewRecorder()
	pipeline := newPipeline(recorder)

	if err := source.Start(pipeline.Update, errChan); err != nil {
		return fmt.Errorf("failed to start config source: %w", err)
	}

	server := newServer(pipeline, errChan)
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", *httpPort))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", *httpPort, err)
	}

	slog.Info("Starting HTTP server", "port", *httpPort)
	server.start(listener)

	metricsChan := make(chan struct{}, 1)
	if *metricsPort > 0 {
		serveMetrics(recorder, metricsChan, errChan)
	}

	for {
		select {
		case sig := <-signalChan:
			switch sig {
			case syscall.SIGHUP:
				slog.Info("Received signal, updating routes...", "signal", sig)
				source.Reload()
			case syscall.SIGINT, syscall.SIGTERM:
				slog.Info("Received signal, stopping server...", "signal", sig)
				metricsChan <- struct{}{}
				source.Stop(context.Background())
				server.stop(context.Background())
				slog.Info("Server stopped. Goodbye!")
				return nil
			}
		case err := <-errChan:
			source.Stop(context.Background())
			server.stop(context.Background())
			return err
		}
	}
}

func createConfigSource(watch bool) configSource {
	if watch {
		return newWatchConfigSource()
	}
	return newFileConfigSource()
}

func serveMetrics(recorder *metrics.Recorder, shutdownChan <-chan struct{}, errChan chan<- error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	s := newServer(mux, errChan)

	go func() {
		slog.Info("Starting metrics server", "port", *metricsPort)
		if listener, err := net.Listen("tcp", fmt.Sprintf(":%d", *metricsPort)); err != nil {
			errChan <- fmt.Errorf("failed to listen on port %d: %w", *metricsPort, err)
		} else {
			s.start(listener)
		}
	}()

	go func() {
		<-shutdownChan
		s.stop(context.Background())
	}()
}
