package greenhouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/scrape/types"
	"jobportal-engine/internal/scrape/util"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://boards-api.greenhouse.io"

type Config struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

type Scraper struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
	log     *zap.Logger
}

func New(cfg Config, limiter *util.HostLimiter, log *zap.Logger) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: types.DefaultTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scraper{
		cfg:     cfg,
		hc:      hc,
		limiter: limiter,
		log:     log.Named("ats.greenhouse"),
	}
}

func (s *Scraper) Name() string { return domain.SourceGreenhouse }

type boardResponse struct {
	Jobs []posting `json:"jobs"`
}

type posting struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	AbsoluteURL string          `json:"absolute_url"`
	Location    *struct {
		Name string `json:"name"`
	} `json:"location"`
	Content        json.RawMessage `json:"content"`
	FirstPublished json.RawMessage `json:"first_published"`
	UpdatedAt      json.RawMessage `json:"updated_at"`
	CreatedAt      json.RawMessage `json:"created_at"`
}

func (s *Scraper) Fetch(ctx context.Context, co domain.Company) ([]domain.Job, error) {
	apiURL := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true",
		strings.TrimRight(s.cfg.BaseURL, "/"), url.PathEscape(co.Slug))

	var body boardResponse
	err := util.GetJSON(ctx, s.hc, s.limiter, util.Request{
		Source:    s.Name(),
		Company:   co.Slug,
		URL:       apiURL,
		UserAgent: s.cfg.UserAgent,
	}, &body)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	out := make([]domain.Job, 0, len(body.Jobs))
	for _, p := range body.Jobs {
		id := rawID(p.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, toJob(co, id, p))
	}

	s.log.Debug("fetched board",
		zap.String("company", co.Slug),
		zap.Int("postings", len(body.Jobs)),
		zap.Int("jobs", len(out)),
	)
	return out, nil
}

func toJob(co domain.Company, id string, p posting) domain.Job {
	loc := ""
	if p.Location != nil {
		loc = util.NormalizeLocation(p.Location.Name)
	}

	j := domain.Job{
		Source:      domain.SourceGreenhouse,
		SourceJobID: id,
		Title:       util.OrDefault(p.Title, "Untitled"),
		Company:     co.DisplayName(),
		Location:    util.OrDefault(loc, "N/A"),
		ApplyURL:    util.StringPtr(util.CanonicalizeURL(p.AbsoluteURL)),
		PostedAt: util.FirstTime(
			util.ParseTimestamp(p.FirstPublished),
			util.ParseTimestamp(p.UpdatedAt),
			util.ParseTimestamp(p.CreatedAt),
		),
	}
	if desc, ok := util.Clean(contentHTML(p.Content)); ok {
		j.Description = &desc
	}
	return j
}

// contentHTML handles both the entity-escaped string form and the
// {"description": "..."} object some boards return.
func contentHTML(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	switch raw[0] {
	case '"':
		_ = json.Unmarshal(raw, &s)
	case '{':
		var obj struct {
			Description string `json:"description"`
		}
		_ = json.Unmarshal(raw, &obj)
		s = obj.Description
	}
	return html.UnescapeString(s)
}

// ids are numbers on the public API but some mirrors send strings.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}
