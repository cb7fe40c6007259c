package types

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobportal-engine/internal/domain"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 30 * time.Second

const DefaultUserAgent = "job-portal-bot/1.0 (+https://github.com/jobportal-engine)"

// ErrParse marks an upstream response that did not have the expected shape.
var ErrParse = errors.New("unexpected response shape")

// Fetcher is one platform adapter. Fetch returns normalized jobs for a single
// company, de-duplicated by source id, or a *FetchError.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, company domain.Company) ([]domain.Job, error)
}

// FetchError is a failed fetch for one source. Status is 0 for transport errors.
type FetchError struct {
	Source  string
	Company string
	Status  int
	Cause   error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0 && e.Cause != nil:
		return fmt.Sprintf("%s %s: status %d: %v", e.Source, e.Company, e.Status, e.Cause)
	case e.Status != 0:
		return fmt.Sprintf("%s %s: status %d", e.Source, e.Company, e.Status)
	default:
		return fmt.Sprintf("%s %s: %v", e.Source, e.Company, e.Cause)
	}
}

func (e *FetchError) Unwrap() error { return e.Cause }

// IngestStatus is the last-run snapshot kept by the poller.
type IngestStatus struct {
	LastRunAt    string `json:"last_run_at"`
	LastOkAt     string `json:"last_ok_at"`
	LastError    string `json:"last_error"`
	LastUpserted int    `json:"last_upserted"`
	Running      bool   `json:"running"`
}
