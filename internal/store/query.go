package store

import (
	"fmt"
	"strings"
	"time"
)

const jobColumns = `id, source, source_job_id, title, company, location, description, apply_url, posted_at, fetched_at, created_at`

// dialect is everything List needs to know about the backend.
type dialect struct {
	like    string // case-insensitive LIKE operator
	bind    func(n int) string
	timeArg func(time.Time) any
}

func buildListQuery(d dialect, f Filter) (string, []any) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return d.bind(len(args))
	}
	like := func(col, needle string) string {
		return fmt.Sprintf(`%s %s %s ESCAPE '\'`, col, d.like, arg(containsPattern(needle)))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "("+like("title", q)+" OR "+like("company", q)+" OR "+like("location", q)+")")
	}
	if v := strings.TrimSpace(f.Location); v != "" {
		where = append(where, like("location", v))
	}
	if v := strings.TrimSpace(f.Company); v != "" {
		where = append(where, like("company", v))
	}
	if v := strings.TrimSpace(f.Source); v != "" {
		where = append(where, like("source", v))
	}
	if !f.Since.IsZero() {
		where = append(where, "COALESCE(posted_at, fetched_at) >= "+arg(d.timeArg(f.Since)))
	}
	if !f.CreatedFrom.IsZero() {
		where = append(where, "created_at >= "+arg(d.timeArg(f.CreatedFrom)))
	}
	if !f.CreatedTo.IsZero() {
		where = append(where, "created_at < "+arg(d.timeArg(f.CreatedTo)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + jobColumns + "\nFROM jobs\n")
	if len(where) > 0 {
		b.WriteString("WHERE " + strings.Join(where, "\n  AND ") + "\n")
	}
	b.WriteString("ORDER BY COALESCE(posted_at, fetched_at, created_at) DESC, id DESC\n")
	if f.Limit > 0 {
		b.WriteString("LIMIT " + arg(f.Limit))
	}
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
