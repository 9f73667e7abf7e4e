package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/plugin-checksum/history"
	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/report"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		db    string
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded verification runs",
		Long: `History lists runs stored with "verify --record", newest first. Given a
run ID it prints the findings of that run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if db != "" {
				cfg.HistoryDB = db
			}
			store, err := openHistory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printRun(run)
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, err := fmt.Fprintln(a.stderr, "No runs recorded.")
				return err
			}

			t := styledTable("id", "started", "strict", "total", "succeeded", "failed", "skipped")
			for _, r := range runs {
				t.Row(r.ID,
					r.StartedAt.Local().Format(time.DateTime),
					strconv.FormatBool(r.Strict),
					strconv.Itoa(r.Summary.Total),
					strconv.Itoa(r.Summary.Succeeded),
					strconv.Itoa(r.Summary.Failed),
					strconv.Itoa(r.Summary.Skipped))
			}
			_, err = fmt.Fprintln(a.stdout, t.Render())
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	cmd.Flags().StringVar(&db, "db", "", "history database (default ~/.reglet/"+history.DefaultFileName+")")
	return cmd
}

func (a *app) printRun(run *history.Run) error {
	_, _ = fmt.Fprintf(a.stdout, "Run %s at %s\n", run.ID, run.StartedAt.Local().Format(time.DateTime))
	if err := report.Write(a.stdout, report.FormatTable, &entities.Report{
		RunID:    run.ID,
		Findings: run.Findings,
		Summary:  run.Summary,
	}); err != nil {
		return err
	}
	line, _ := report.SummaryLine(run.Summary)
	_, err := fmt.Fprintln(a.stdout, line)
	return err
}
