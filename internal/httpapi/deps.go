package httpapi

import (
	"context"

	"jobportal-engine/internal/config"
	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/listing"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/poll"
	"jobportal-engine/internal/scrape/types"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Listing is the query surface the jobs handlers call.
type Listing interface {
	Today(ctx context.Context) ([]domain.Job, error)
	Search(ctx context.Context, p listing.SearchParams) ([]domain.Job, error)
	AddManual(ctx context.Context, in listing.ManualInput) (domain.Job, error)
	Delete(ctx context.Context, id int64) error
}

// Ingester is implemented by *poll.Poller.
type Ingester interface {
	Status() (types.IngestStatus, *poll.Summary)
	RunOnce(ctx context.Context) (poll.Summary, error)
}

// Checkpointer is implemented by stores that can flush their write-ahead log.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

type Deps struct {
	Listing  Listing
	Ingester Ingester

	// Config is the effective config (env and overlay applied). FileConfig is
	// the on-disk document that PUT /config edits; SaveConfig validates,
	// persists and returns it. FileConfig defaults to Config.
	Config     func() config.Config
	FileConfig func() config.Config
	SaveConfig func(config.Config) (config.Config, error)
	ConfigPath string

	// Store is checked for Checkpointer; may be nil.
	Store any

	// SetDBPassword writes the database password to the OS keychain.
	SetDBPassword func(password string) error

	// BaseContext outlives requests; background ingestion runs under it.
	BaseContext context.Context

	// Metrics and Gatherer are optional; /metrics is served only with a Gatherer.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	Log *zap.Logger
}
