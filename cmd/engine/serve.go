package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"jobportal-engine/internal/config"
	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/httpapi"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/poll"
	"jobportal-engine/internal/secrets"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveHost       string
	serveNoSchedule bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API and run scheduled ingestion",
	Long: `Start the HTTP API (jobs, ingestion status, config) and run ingestion
immediately and then on ingest.schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "interface to listen on")
	serveCmd.Flags().BoolVar(&serveNoSchedule, "no-schedule", false, "do not run scheduled ingestion")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Config can be replaced over the API; sources are re-read every run.
	// The file config is what gets saved; the effective one is rebuilt from it.
	var cfgVal, fileVal atomic.Value // both store config.Config
	cfgVal.Store(a.cfg)
	fileVal.Store(a.fileCfg)
	current := func() config.Config { return cfgVal.Load().(config.Config) }
	onDisk := func() config.Config { return fileVal.Load().(config.Config) }
	saveCfg := func(next config.Config) (config.Config, error) {
		normalized, vr := config.NormalizeAndValidate(next)
		if !vr.OK() {
			return config.Config{}, errors.New(vr.Errors[0])
		}
		eff, vr, err := config.Effective(normalized, a.cfgPath, a.cfg.App.DataDir, os.Getenv)
		if err != nil {
			return config.Config{}, err
		}
		if !vr.OK() {
			return config.Config{}, errors.New(vr.Errors[0])
		}
		if err := config.SaveAtomic(a.cfgPath, normalized); err != nil {
			return config.Config{}, err
		}
		fileVal.Store(normalized)
		cfgVal.Store(eff)
		a.log.Info("config saved", zap.String("path", a.cfgPath))
		return normalized, nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	poller := poll.NewPoller(a.driver().WithMetrics(m), a.cfg.App.DataDir, func() []domain.SourceRef {
		return current().SourceRefs()
	}, a.log)

	mux := httpapi.Handler(httpapi.Deps{
		Listing:    newListing(a),
		Ingester:   poller,
		Config:     current,
		FileConfig: onDisk,
		SaveConfig: saveCfg,
		ConfigPath: a.cfgPath,
		Store:      a.store,
		SetDBPassword: func(pw string) error {
			return secrets.SetDatabasePassword(current().Database.KeyringAccount, pw)
		},
		BaseContext: ctx,
		Metrics:     m,
		Gatherer:    reg,
		Log:         a.log,
	})

	addr := net.JoinHostPort(serveHost, strconv.Itoa(a.cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 2)
	go func() {
		a.log.Info("engine listening", zap.String("addr", "http://"+ln.Addr().String()), zap.String("driver", a.cfg.Database.Driver))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	if !serveNoSchedule && a.cfg.Ingest.Schedule != "" {
		go func() {
			if err := poller.Start(ctx, a.cfg.Ingest.Schedule); err != nil {
				errc <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
		a.log.Error("serve failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.log.Info("engine stopped")
	return runErr
}
