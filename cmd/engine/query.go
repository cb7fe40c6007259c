package main

import (
	"fmt"
	"os"
	"strings"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/listing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	defaultTableWidth = 160
	dateLayout        = "2006-01-02"
)

var searchParams listing.SearchParams

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "List jobs first seen today",
	RunE:  runToday,
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search stored jobs",
	Long:  `Case-insensitive substring search over title, company and location, newest first.`,
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchParams.Q, "q", "q", "", "text to match in title, company or location")
	searchCmd.Flags().StringVar(&searchParams.Location, "location", "", "location contains")
	searchCmd.Flags().StringVar(&searchParams.Company, "company", "", "company contains")
	searchCmd.Flags().StringVar(&searchParams.Source, "source", "", "greenhouse, lever or manual")
	searchCmd.Flags().StringVar(&searchParams.Days, "days", "", "only jobs posted or fetched in the last N days (default 30, max 365)")

	rootCmd.AddCommand(todayCmd, searchCmd)
}

func newListing(a *app) *listing.Service {
	return listing.New(a.store, listing.WithLimits(listing.Limits{
		DefaultDays: a.cfg.Query.DefaultDays,
		Search:      a.cfg.Query.SearchLimit,
		Today:       a.cfg.Query.TodayLimit,
	}))
}

func runToday(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	jobs, err := newListing(a).Today(cmd.Context())
	if err != nil {
		return err
	}
	renderJobs(jobs, "today")
	return nil
}

func runSearch(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	jobs, err := newListing(a).Search(cmd.Context(), searchParams)
	if err != nil {
		return err
	}
	renderJobs(jobs, fmt.Sprintf("q=%q days=%d", searchParams.Q, listing.ParseDays(searchParams.Days)))
	return nil
}

func renderJobs(jobs []domain.Job, label string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: defaultTableWidth / 4},
		{Number: 6, WidthMax: defaultTableWidth / 3},
	})
	t.AppendHeader(table.Row{"ID", "Source", "Title", "Company", "Location", "Apply", "Date"})

	for _, j := range jobs {
		apply := "N/A"
		if j.ApplyURL != nil {
			apply = *j.ApplyURL
		}
		t.AppendRow(table.Row{j.ID, j.Source, j.Title, j.Company, j.Location, apply, j.ActiveAt().Local().Format(dateLayout)})
	}

	t.AppendFooter(table.Row{"Total", len(jobs), label})
	t.Render()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
