package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/towerline/roundsim/internal/config"
	"github.com/towerline/roundsim/internal/definitions"
	"github.com/towerline/roundsim/internal/influx"
	"github.com/towerline/roundsim/internal/logging"
	intOtel "github.com/towerline/roundsim/internal/otel"
	"github.com/towerline/roundsim/internal/storage"
	"github.com/towerline/roundsim/internal/worker"
)

// flagKeys binds command flags over config keys.
var flagKeys = map[string]string{
	"log-level":  "logLevel",
	"logs-dir":   "logsDir",
	"units":      "unitsFile",
	"max-frames": "sim.maxFrames",
	"workers":    "worker.count",
	"storage":    "storage.type",
	"output-dir": "storage.memory.outputDir",
	"sqlite":     "storage.sqlite.path",
}

// newFlagSet returns a flag set carrying the flags every command shares.
func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("config-dir", ".", "directory holding "+config.FileName)
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("logs-dir", "", "directory for log files")
	fs.String("units", "", "unit table file, JSON or YAML")
	fs.Int("max-frames", 0, "frame cap of each round")
	return fs
}

// addStorageFlags registers the flags of commands that save rounds.
func addStorageFlags(fs *pflag.FlagSet) {
	fs.String("storage", "", "storage backend: memory, sqlite or postgres")
	fs.String("output-dir", "", "directory for exported results")
	fs.String("sqlite", "", "SQLite database file")
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// session is the state a command runs with: config, logging and the unit table.
type session struct {
	start   time.Time
	logs    *logging.SlogManager
	logger  *slog.Logger
	logFile *os.File
	logPath string
	table   *definitions.Table
	sim     config.SimConfig
	metrics *intOtel.Provider
}

// openSession loads the config, binds the parsed flags over it and sets up
// logging. A missing config file falls back to the defaults.
func openSession(fs *pflag.FlagSet) (*session, error) {
	s := &session{start: time.Now(), logs: logging.NewSlogManager()}

	dir, _ := fs.GetString("config-dir")
	configFound := true
	if err := config.Load(dir); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		configFound = false
	}
	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	if err := s.setupLogging(); err != nil {
		return nil, err
	}
	if configFound {
		s.logger.Info("Loaded config", "path", viper.ConfigFileUsed())
	} else {
		s.logger.Warn("Config file not found, using defaults", "dir", dir)
	}

	s.sim = config.GetSimConfig()
	table, err := definitions.LoadTable(s.sim.UnitsFile)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.table = table
	return s, nil
}

func (s *session) setupLogging() error {
	lc := config.GetLoggingConfig()
	if err := os.MkdirAll(lc.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}

	s.logPath = logging.LogFilePath(lc.Dir, AppName, s.start)
	file, err := os.OpenFile(s.logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	s.logFile = file

	var extra []slog.Handler
	var gelfErr error
	if lc.Graylog.Enabled {
		h, w, err := logging.NewGELFHandler(lc.Graylog.Address, lc.Level)
		if err != nil {
			gelfErr = err
		} else {
			extra = append(extra, h)
			s.logs.AddCloser(w)
		}
	}
	s.logs.AddCloser(file)

	s.logs.Setup(file, lc.Level, extra...)
	s.logger = s.logs.Logger()
	s.logger.Info("Starting up", "app", AppName, "version", CurrentVersion, "build", BuildDate)
	if gelfErr != nil {
		s.logger.Warn("Graylog disabled", "error", gelfErr)
	}
	return nil
}

// zlog returns a JSON logger on the session log file for the managers
// that log through zerolog.
func (s *session) zlog(component string) zerolog.Logger {
	return zerolog.New(s.logFile).With().Timestamp().Str("component", component).Logger()
}

// openSinks creates the configured storage backend plus the optional
// InfluxDB sink, and initializes them.
func (s *session) openSinks() (*storage.Multi, error) {
	backend, err := storage.NewBackend(config.GetStorageConfig(), config.GetDBConfig(), s.logger)
	if err != nil {
		return nil, err
	}
	backends := []storage.Backend{backend}

	if ic := config.GetInfluxConfig(); ic.Enabled {
		backends = append(backends, influx.NewManager(s.zlog("influx"), ic))
	}

	sinks := storage.NewMulti(backends...)
	if err := sinks.Init(); err != nil {
		_ = sinks.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	s.logger.Info("Storage initialized", "type", config.GetStorageConfig().Type, "sinks", sinks.Len())
	return sinks, nil
}

// closeSinks closes sinks and reports where the results went.
func (s *session) closeSinks(sinks *storage.Multi, stderr io.Writer) error {
	if err := sinks.Close(); err != nil {
		s.logger.Error("Failed to close storage", "error", err)
		return fmt.Errorf("failed to close storage: %w", err)
	}
	for _, p := range sinks.ExportedFilePaths() {
		s.logger.Info("Results written", "path", p)
		fmt.Fprintln(stderr, "results written to", p)
	}
	return nil
}

// workers builds the worker pool saving to sinks.
func (s *session) workers(sinks storage.Backend) (*worker.Manager, error) {
	deps := worker.Dependencies{
		Table:     s.table,
		Logger:    s.logger,
		MaxFrames: s.sim.MaxFrames,
		Backend:   sinks,
	}
	if oc := config.GetOTelConfig(); oc.Enabled {
		provider, err := intOtel.New(intOtel.Config{
			Enabled:        true,
			ServiceName:    oc.ServiceName,
			ExportInterval: oc.ExportInterval,
			MetricWriter:   s.logFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create metric provider: %w", err)
		}
		otel.SetMeterProvider(provider.MeterProvider())
		s.metrics = provider

		metrics, err := intOtel.NewRoundMetrics(provider.Meter(intOtel.MeterName))
		if err != nil {
			return nil, err
		}
		deps.Metrics = metrics
		s.logger.Info("Metrics enabled", "service", oc.ServiceName, "interval", oc.ExportInterval)
	}
	return worker.NewManager(deps, s.sim.Workers), nil
}

// Close exports pending metrics, then flushes and closes the log sinks.
func (s *session) Close() error {
	var errs []error
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.metrics.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shut down metrics", "error", err)
			errs = append(errs, err)
		}
	}
	s.logger.Info("Shutting down", "elapsed", time.Since(s.start))
	return errors.Join(append(errs, s.logs.Close())...)
}
