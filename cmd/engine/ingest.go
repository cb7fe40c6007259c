package main

import (
	"fmt"
	"os"
	"sort"

	"jobportal-engine/internal/poll"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch every configured board once and upsert the results",
	Long: `Fetch every enabled Greenhouse and Lever company, normalize the postings
and upsert them in one batch. Failing sources are reported but do not fail
the command; only a store failure does.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	p := poll.NewPoller(a.driver(), a.cfg.App.DataDir, a.cfg.SourceRefs, a.log)
	sum, err := p.RunOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	renderSummary(sum)
	return nil
}

func renderSummary(sum poll.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Status", "Jobs", "Error"})

	keys := make([]string, 0, len(sum.Sources))
	for k := range sum.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		st := sum.Sources[k]
		t.AppendRow(table.Row{k, st.Status, st.Count, truncate(st.Error, 80)})
	}

	t.AppendFooter(table.Row{"Total", fmt.Sprintf("%d failed", sum.FailedSources()), sum.Fetched,
		fmt.Sprintf("upserted %d, rejected %d", sum.Upserted, sum.Failed)})
	t.Render()
}
