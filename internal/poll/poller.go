package poll

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/scheduler"
	"jobportal-engine/internal/scrape/types"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned when another run holds the lock, in this
// process or another one sharing the data dir.
var ErrRunInProgress = errors.New("ingestion run already in progress")

const lockFile = "ingest.lock"

// Poller serializes Driver runs behind a file lock and keeps the last status.
type Poller struct {
	driver  *Driver
	sources func() []domain.SourceRef
	lock    *flock.Flock
	now     func() time.Time
	log     *zap.Logger

	// flock.TryLock succeeds again on an already held *Flock, so runs in
	// this process are excluded here first.
	active atomic.Bool

	mu      sync.Mutex
	status  types.IngestStatus
	summary *Summary
}

// NewPoller reads sources on every run so a reloaded config takes effect.
func NewPoller(driver *Driver, dataDir string, sources func() []domain.SourceRef, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		driver:  driver,
		sources: sources,
		lock:    flock.New(filepath.Join(dataDir, lockFile)),
		now:     time.Now,
		log:     log.Named("poller"),
	}
}

// Status returns a snapshot of the last run and the summary it produced.
func (p *Poller) Status() (types.IngestStatus, *Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.summary == nil {
		return p.status, nil
	}
	sum := *p.summary
	return p.status, &sum
}

// RunOnce performs one locked ingestion run.
func (p *Poller) RunOnce(ctx context.Context) (Summary, error) {
	if !p.active.CompareAndSwap(false, true) {
		return Summary{}, ErrRunInProgress
	}
	defer p.active.Store(false)

	locked, err := p.lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire %s: %w", p.lock.Path(), err)
	}
	if !locked {
		return Summary{}, ErrRunInProgress
	}
	defer func() {
		if err := p.lock.Unlock(); err != nil {
			p.log.Warn("release lock", zap.Error(err))
		}
	}()

	p.mu.Lock()
	p.status.Running = true
	p.status.LastRunAt = p.now().UTC().Format(time.RFC3339)
	p.mu.Unlock()

	sum, runErr := p.driver.Run(ctx, p.sources())

	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Running = false
	p.status.LastUpserted = sum.Upserted
	p.summary = &sum
	if runErr != nil {
		p.status.LastError = runErr.Error()
		return sum, runErr
	}
	p.status.LastError = ""
	p.status.LastOkAt = p.now().UTC().Format(time.RFC3339)
	return sum, nil
}

// Start runs ingestion now and then on spec until ctx is done. It blocks.
func (p *Poller) Start(ctx context.Context, spec string) error {
	return scheduler.Every(ctx, spec, "ingest", func(ctx context.Context) error {
		_, err := p.RunOnce(ctx)
		if errors.Is(err, ErrRunInProgress) {
			p.log.Info("skipping scheduled run", zap.Error(err))
			return nil
		}
		return err
	}, p.log)
}
