package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/scrape/types"
	"jobportal-engine/internal/scrape/util"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.lever.co"

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
		log:     log.Named("ats.lever"),
	}
}

func (s *Scraper) Name() string { return domain.SourceLever }

type leverPosting struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"` // title
	HostedURL  string          `json:"hostedUrl"`
	ApplyURL   string          `json:"applyUrl"`
	CreatedAt  json.RawMessage `json:"createdAt"` // ms epoch
	Categories *struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
	DescriptionPlain string `json:"descriptionPlain"`
	Description      string `json:"description"` // html
}

func (s *Scraper) Fetch(ctx context.Context, co domain.Company) ([]domain.Job, error) {
	apiURL := fmt.Sprintf("%s/v0/postings/%s?mode=json",
		strings.TrimRight(s.cfg.BaseURL, "/"), url.PathEscape(co.Slug))

	var postings []leverPosting
	err := util.GetJSON(ctx, s.hc, s.limiter, util.Request{
		Source:    s.Name(),
		Company:   co.Slug,
		URL:       apiURL,
		UserAgent: s.cfg.UserAgent,
	}, &postings)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	out := make([]domain.Job, 0, len(postings))
	for _, p := range postings {
		id := firstNonBlank(p.ID, p.HostedURL, p.ApplyURL)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, toJob(co, id, p))
	}

	s.log.Debug("fetched postings",
		zap.String("company", co.Slug),
		zap.Int("postings", len(postings)),
		zap.Int("jobs", len(out)),
	)
	return out, nil
}

func toJob(co domain.Company, id string, p leverPosting) domain.Job {
	loc := ""
	if p.Categories != nil {
		loc = util.NormalizeLocation(p.Categories.Location)
	}

	j := domain.Job{
		Source:      domain.SourceLever,
		SourceJobID: id,
		Title:       util.OrDefault(p.Text, "Untitled"),
		Company:     co.DisplayName(),
		Location:    util.OrDefault(loc, "N/A"),
		ApplyURL:    util.StringPtr(util.CanonicalizeURL(firstNonBlank(p.HostedURL, p.ApplyURL))),
		PostedAt:    util.ParseTimestamp(p.CreatedAt),
	}

	// descriptionPlain is already text; description is html
	var desc string
	var ok bool
	if strings.TrimSpace(p.DescriptionPlain) != "" {
		desc, ok = util.Truncate(p.DescriptionPlain)
	} else {
		desc, ok = util.Clean(p.Description)
	}
	if ok {
		j.Description = &desc
	}
	return j
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
