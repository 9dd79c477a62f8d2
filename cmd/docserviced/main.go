// docserviced is the versioned document store daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtxerr/docservice/internal/docservice"
	"github.com/xtxerr/docservice/internal/handler"
	"github.com/xtxerr/docservice/internal/loader"
	"github.com/xtxerr/docservice/internal/logging"
	"github.com/xtxerr/docservice/internal/server"
	"github.com/xtxerr/docservice/internal/stats"
	"github.com/xtxerr/docservice/internal/store"
	"github.com/xtxerr/docservice/internal/store/duckdb"
	"github.com/xtxerr/docservice/internal/store/dynamo"
	"github.com/xtxerr/docservice/internal/versionid"
)

// Version is set at build time via ldflags
var Version = "dev"

var log = logging.Component("docserviced")

// flags holds command-line overrides. Empty values leave the config alone.
type flags struct {
	configPath string
	listen     string
	driver     string
	dbPath     string
	logLevel   string
	logJSON    bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	fset := flag.NewFlagSet("docserviced", flag.ContinueOnError)
	fset.StringVar(&f.configPath, "config", "config.yaml", "config file path")
	fset.StringVar(&f.listen, "listen", "", "listen address (overrides config)")
	fset.StringVar(&f.driver, "driver", "", "storage driver: duckdb or dynamodb (overrides config)")
	fset.StringVar(&f.dbPath, "db", "", "duckdb database path (overrides config)")
	fset.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	fset.BoolVar(&f.logJSON, "log-json", false, "log as JSON")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f); err != nil {
		log.Error("docserviced failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist, and applies flag overrides.
func loadConfig(f *flags) (*loader.Config, error) {
	cfg, err := loader.Load(f.configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loader.DefaultConfig()
	}

	// CLI overrides
	if f.listen != "" {
		cfg.Listen = f.listen
	}
	if f.driver != "" {
		cfg.Storage.Driver = f.driver
	}
	if f.dbPath != "" {
		cfg.Storage.DuckDB.Path = f.dbPath
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logJSON {
		cfg.Logging.Format = "json"
	}

	if err := loader.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openBackend connects the configured storage driver.
func openBackend(ctx context.Context, cfg *loader.StorageConfig) (store.Backend, error) {
	switch cfg.Driver {
	case loader.DriverDuckDB:
		st, err := duckdb.New(loader.ToDuckDBConfig(cfg))
		if err != nil {
			return nil, err
		}
		return st, nil
	case loader.DriverDynamoDB:
		st, err := dynamo.Open(ctx, loader.ToDynamoConfig(cfg))
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func run(ctx context.Context, f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logging.Init(level, cfg.Logging.Format == "json")
	log.Info("docserviced starting", "version", Version, "driver", cfg.Storage.Driver)

	// =========================================================================
	// Storage
	// =========================================================================

	backend, err := openBackend(ctx, &cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Storage.Driver, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn("close backend", "error", err)
		}
	}()

	if err := backend.EnsureSchema(ctx); err != nil {
		return err
	}

	ids, err := versionid.New()
	if err != nil {
		return err
	}

	// =========================================================================
	// Service and HTTP
	// =========================================================================

	rec := stats.New()
	svc := docservice.New(backend, ids, docservice.WithStats(rec))

	read, write, drain := cfg.HTTP.Timeouts()
	srvCfg := server.Config{
		Handler: handler.New(svc, handler.Config{
			MaxBodyBytes: cfg.HTTP.MaxBodyBytes.Bytes(),
			Stats:        rec,
		}),
		Listen:       cfg.Listen,
		ReadTimeout:  read,
		WriteTimeout: write,
		DrainTimeout: drain,
	}
	if cfg.TLS.Enabled() {
		srvCfg.TLSCertFile = cfg.TLS.CertFile
		srvCfg.TLSKeyFile = cfg.TLS.KeyFile
	}
	log.Info("http configured", "listen", cfg.Listen, "tls", cfg.TLS.Enabled())
	srv := server.New(srvCfg)

	// =========================================================================
	// Run until signalled
	// =========================================================================

	if err := srv.Run(ctx); err != nil {
		return err
	}
	log.Info("docserviced stopped")
	return nil
}
