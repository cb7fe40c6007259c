package httpapi

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewMux wires every route. Wrap it with Chain for the middleware stack.
func NewMux(d Deps) *http.ServeMux {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.BaseContext == nil {
		d.BaseContext = context.Background()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	// Jobs
	jh := JobsHandler{Listing: d.Listing}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  jh.Search,
		http.MethodPost: jh.Add,
	}))
	mux.HandleFunc("/jobs/today", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.Today,
	}))
	mux.HandleFunc("/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: jh.DeleteByPath, // expects /jobs/{id}
	}))

	// Ingestion
	ih := IngestHandler{Ingester: d.Ingester, BaseContext: d.BaseContext, Log: d.Log.Named("ingest")}
	mux.HandleFunc("/ingest/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ih.Status,
	}))
	mux.HandleFunc("/ingest/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ih.Run,
	}))

	// Config
	if d.Config != nil {
		file := d.FileConfig
		if file == nil {
			file = d.Config
		}
		ch := ConfigHandler{Current: d.Config, File: file, Save: d.SaveConfig, Path: d.ConfigPath}
		mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: ch.Get,
			http.MethodPut: localOnly(ch.Put),
		}))
		mux.HandleFunc("/config/effective", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: ch.Effective,
		}))
		mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: ch.Validate,
		}))
		mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: ch.PathInfo,
		}))
	}

	// Local-only admin
	if d.SetDBPassword != nil {
		sh := SecretsHandler{SetDBPassword: d.SetDBPassword}
		mux.HandleFunc("/secrets/db-password", methodMux(map[string]http.HandlerFunc{
			http.MethodPost: localOnly(sh.SetDatabasePassword),
		}))
	}
	if cp, ok := d.Store.(Checkpointer); ok {
		dh := DBHandler{Store: cp}
		mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
			http.MethodPost: localOnly(dh.Checkpoint),
		}))
	}

	if d.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}
