// Package listing is the read side plus manual entry: today's jobs, filtered
// search and hand-added postings, all over store.Store.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/scrape/util"
	"jobportal-engine/internal/store"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultDays  = 30
	MaxDays      = 365
	SearchLimit  = 500
	TodayLimit   = 200
	manualPrefix = "m-"
)

type Limits struct {
	DefaultDays int
	Search      int
	Today       int
}

type Service struct {
	store  store.Store
	limits Limits
	now    func() time.Time
	loc    *time.Location
}

type Option func(*Service)

// WithClock sets the time source; loc is the zone "today" is computed in.
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(s *Service) {
		s.now = now
		s.loc = loc
	}
}

func WithLimits(l Limits) Option {
	return func(s *Service) {
		if l.DefaultDays > 0 {
			s.limits.DefaultDays = l.DefaultDays
		}
		if l.Search > 0 {
			s.limits.Search = l.Search
		}
		if l.Today > 0 {
			s.limits.Today = l.Today
		}
	}
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		limits: Limits{DefaultDays: DefaultDays, Search: SearchLimit, Today: TodayLimit},
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today lists jobs first stored during the current local calendar day.
func (s *Service) Today(ctx context.Context) ([]domain.Job, error) {
	now := s.now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return s.store.List(ctx, store.Filter{
		CreatedFrom: from,
		CreatedTo:   from.AddDate(0, 0, 1),
		Limit:       s.limits.Today,
	})
}

// SearchParams carries raw user input; empty fields do not filter.
type SearchParams struct {
	Q        string `json:"q"`
	Location string `json:"location"`
	Company  string `json:"company"`
	Source   string `json:"source"`
	Days     string `json:"days"`
}

func (s *Service) Search(ctx context.Context, p SearchParams) ([]domain.Job, error) {
	days := parseDays(p.Days, s.limits.DefaultDays)
	return s.store.List(ctx, store.Filter{
		Query:    p.Q,
		Location: p.Location,
		Company:  p.Company,
		Source:   p.Source,
		Since:    s.now().AddDate(0, 0, -days),
		Limit:    s.limits.Search,
	})
}

// ParseDays reads a recency window: blank or non-numeric gives DefaultDays,
// any number, however large, is clamped to [1, MaxDays].
func ParseDays(raw string) int {
	return parseDays(raw, DefaultDays)
}

func parseDays(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	// Atoi saturates on ErrRange; keep that and clamp
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		n = def
	}
	return min(max(n, 1), MaxDays)
}

// ManualInput is a hand-entered posting.
type ManualInput struct {
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description"`
	ApplyURL    string `json:"apply_url" validate:"omitempty,url"`
}

// ValidationError lists the rejected fields of a ManualInput.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return "invalid job: " + strings.Join(parts, ", ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// AddManual validates in, stores it under source "manual" with a content
// derived id, and returns the stored row. Adding the same posting twice
// updates the existing row.
func (s *Service) AddManual(ctx context.Context, in ManualInput) (domain.Job, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Company = strings.TrimSpace(in.Company)
	in.Location = strings.TrimSpace(in.Location)
	in.ApplyURL = strings.TrimSpace(in.ApplyURL)

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.Job{}, err
		}
		ve := &ValidationError{}
		for _, fe := range verrs {
			ve.Fields = append(ve.Fields, FieldError{Field: jsonName(fe.Field()), Rule: fe.Tag()})
		}
		return domain.Job{}, ve
	}

	j := domain.Job{
		Source:      domain.SourceManual,
		SourceJobID: ManualID(in),
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
	}
	if desc, ok := util.Clean(in.Description); ok {
		j.Description = &desc
	}
	if in.ApplyURL != "" {
		j.ApplyURL = util.StringPtr(util.CanonicalizeURL(in.ApplyURL))
	}

	if _, err := s.store.Upsert(ctx, []domain.Job{j}); err != nil {
		return domain.Job{}, fmt.Errorf("add manual job: %w", err)
	}
	return s.store.Get(ctx, j.Key())
}

// ManualID is "m-" plus the first 32 hex chars of sha256 over the lowercased,
// trimmed title|company|location|apply_url. The url is canonicalized first so
// tracking params don't split one posting into two rows.
func ManualID(in ManualInput) string {
	parts := []string{in.Title, in.Company, in.Location, util.CanonicalizeURL(in.ApplyURL)}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return manualPrefix + util.HashString(strings.Join(parts, "|"))[:32]
}

// Delete removes one job by id. It reports store.ErrNotFound when nothing matched.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

func jsonName(field string) string {
	switch field {
	case "ApplyURL":
		return "apply_url"
	default:
		return strings.ToLower(field)
	}
}
