package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg (trimmed, de-duplicated
// company slugs; lowercased driver) and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.Sources.Greenhouse.Companies = normalizeCompanies(out.Sources.Greenhouse.Companies)
	out.Sources.Lever.Companies = normalizeCompanies(out.Sources.Lever.Companies)
	out.Database.Driver = strings.ToLower(strings.TrimSpace(out.Database.Driver))

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(out.Database.Path) == "" {
			res.addErr("database.path is required when database.driver=sqlite")
		}
	case "postgres":
		if strings.TrimSpace(out.Database.URL) == "" {
			res.addErr("database.url (or DATABASE_URL) is required when database.driver=postgres")
		}
	default:
		res.addErr("database.driver must be sqlite or postgres, got %q", out.Database.Driver)
	}

	// ingest sanity
	if out.Ingest.Workers <= 0 {
		res.addErr("ingest.workers must be > 0")
	} else if out.Ingest.Workers > 32 {
		res.addWarn("ingest.workers is high (%d); upstream boards may throttle you.", out.Ingest.Workers)
	}
	if out.Ingest.RequestTimeoutSeconds <= 0 {
		res.addErr("ingest.request_timeout_seconds must be > 0")
	}
	if out.Ingest.RatePerSecond < 0 {
		res.addErr("ingest.rate_per_second must be >= 0")
	}
	if strings.TrimSpace(out.Ingest.UserAgent) == "" {
		res.addWarn("ingest.user_agent is empty; the default bot user agent will be sent.")
	}
	if out.Ingest.Schedule != "" {
		if _, err := cron.ParseStandard(out.Ingest.Schedule); err != nil {
			res.addErr("ingest.schedule is not a valid cron spec: %v", err)
		}
	}

	// query sanity
	if out.Query.DefaultDays < 1 || out.Query.DefaultDays > 365 {
		res.addErr("query.default_days must be 1..365")
	}
	if out.Query.SearchLimit <= 0 {
		res.addErr("query.search_limit must be > 0")
	}
	if out.Query.TodayLimit <= 0 {
		res.addErr("query.today_limit must be > 0")
	}

	if len(out.SourceRefs()) == 0 {
		res.addWarn("no companies enabled under sources; ingestion will do nothing.")
	}

	return out, res
}

func normalizeCompanies(in []Company) []Company {
	seen := map[string]bool{}
	var out []Company
	for _, c := range in {
		c.Slug = strings.TrimSpace(c.Slug)
		c.Name = strings.TrimSpace(c.Name)
		if c.Slug == "" {
			continue
		}
		key := strings.ToLower(c.Slug)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
