package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"jobportal-engine/internal/config"
	"jobportal-engine/internal/logger"
	"jobportal-engine/internal/poll"
	"jobportal-engine/internal/scrape/greenhouse"
	"jobportal-engine/internal/scrape/lever"
	"jobportal-engine/internal/scrape/types"
	"jobportal-engine/internal/scrape/util"
	"jobportal-engine/internal/secrets"
	"jobportal-engine/internal/store"

	"go.uber.org/zap"
)

// app is what every subcommand starts from.
type app struct {
	cfg     config.Config
	fileCfg config.Config // as on disk, without overlay or env
	cfgPath string
	log     *zap.Logger
	store   store.Store
}

func resolveDataDir() (string, error) {
	dir := strings.TrimSpace(dataDirFlag)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv("JOBPORTAL_DATA_DIR"))
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}

// readConfig bootstraps and reads the on-disk config for dataDir.
func readConfig(dataDir string) (config.Config, string, error) {
	cfgPath := configFlag
	if cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir)
		if err != nil {
			return config.Config{}, "", fmt.Errorf("config bootstrap failed: %w", err)
		}
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("config load failed (%s): %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// loadedConfig is the effective config plus the file config it was built
// from. Only File is ever written back.
type loadedConfig struct {
	Effective config.Config
	File      config.Config
	Path      string
	Checks    config.Validation
}

func loadConfig(dataDir string) (loadedConfig, error) {
	file, cfgPath, err := readConfig(dataDir)
	if err != nil {
		return loadedConfig{}, err
	}
	cfg, vr, err := config.Effective(file, cfgPath, dataDir, os.Getenv)
	if err != nil {
		return loadedConfig{}, err
	}
	lc := loadedConfig{Effective: cfg, File: file, Path: cfgPath, Checks: vr}
	if !vr.OK() {
		return lc, fmt.Errorf("invalid config %s:\n- %s", cfgPath, strings.Join(vr.Errors, "\n- "))
	}
	return lc, nil
}

func newApp(ctx context.Context) (*app, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}
	lc, err := loadConfig(dataDir)
	if err != nil {
		return nil, err
	}
	cfg := lc.Effective

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	for _, w := range lc.Checks.Warnings {
		log.Warn("config", zap.String("warning", w))
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &app{cfg: cfg, fileCfg: lc.File, cfgPath: lc.Path, log: log, store: st}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, error) {
	opts := []store.Option{store.WithLogger(log)}

	switch cfg.Database.Driver {
	case "postgres":
		password := ""
		if cfg.Database.KeyringAccount != "" {
			pw, err := secrets.GetDatabasePassword(cfg.Database.KeyringAccount)
			switch {
			case errors.Is(err, secrets.ErrNoPassword):
				log.Warn("no database password in keychain; using database.url as is",
					zap.String("account", cfg.Database.KeyringAccount))
			case err != nil:
				return nil, fmt.Errorf("read database password: %w", err)
			default:
				password = pw
			}
		}
		return store.OpenPostgres(ctx, cfg.Database.URL, password, opts...)
	default:
		path := cfg.Database.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.App.DataDir, path)
		}
		return store.OpenSQLite(path, opts...)
	}
}

// fetchers builds one adapter per platform sharing a client and limiter.
func fetchers(cfg config.Config, log *zap.Logger) []types.Fetcher {
	hc := &http.Client{Timeout: cfg.Ingest.RequestTimeout()}
	limiter := util.NewHostLimiter(cfg.Ingest.RatePerSecond, cfg.Ingest.Burst)

	return []types.Fetcher{
		greenhouse.New(greenhouse.Config{
			BaseURL:   cfg.Sources.Greenhouse.BaseURL,
			UserAgent: cfg.Ingest.UserAgent,
			Client:    hc,
		}, limiter, log),
		lever.New(lever.Config{
			BaseURL:   cfg.Sources.Lever.BaseURL,
			UserAgent: cfg.Ingest.UserAgent,
			Client:    hc,
		}, limiter, log),
	}
}

func (a *app) driver() *poll.Driver {
	return poll.NewDriver(a.store, fetchers(a.cfg, a.log), a.cfg.Ingest.Workers, a.log)
}
