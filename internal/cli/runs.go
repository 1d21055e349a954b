package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"options-income/internal/models"
	"options-income/internal/store"
)

func newRunsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Recompute run history",
	}

	var (
		limit  int
		status string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			runs, err := app.runStore()
			if err != nil {
				return err
			}

			records, err := runs.ListRuns(cmd.Context(), store.RunFilter{
				WorkspaceID: app.Config.Pipeline.WorkspaceID,
				Status:      models.RunStatus(strings.ToUpper(status)),
				Limit:       limit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if records == nil {
					records = []models.RunRecord{}
				}
				return output.JSON(records)
			}
			if len(records) == 0 {
				output.Dim("No runs yet. Start one with 'optincome recompute'.")
				return nil
			}

			table := NewTable(output, "RUN", "STARTED", "STATUS", "PROFILE", "SYMBOLS", "CANDIDATES", "PACKETS", "DURATION").AlignRight(5, 6)
			for _, r := range records {
				st := string(r.Status)
				switch r.Status {
				case models.RunCompleted:
					st = output.ColoredString(ColorGreen, st)
				case models.RunFailed:
					st = output.ColoredString(ColorRed, st)
				}
				table.AddRow(
					r.ID,
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					st,
					string(r.RiskProfile),
					fmt.Sprintf("%d/%d", r.SymbolsAnalyzed, r.SymbolsRequested),
					fmt.Sprintf("%d", r.CandidatesGenerated),
					fmt.Sprintf("%d", r.PacketCount),
					FormatDuration(r.StartedAt, r.CompletedAt),
				)
			}
			table.Render()
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs")
	list.Flags().StringVar(&status, "status", "", "filter by status: pending, completed or failed")

	var detail bool
	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run and its ranked packets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			runs, err := app.runStore()
			if err != nil {
				return err
			}

			rec, err := runs.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rec.Status == models.RunFailed {
				if output.IsJSON() {
					return output.JSON(rec)
				}
				output.Error("Run %s failed: %s", rec.ID, rec.Error)
				return nil
			}

			result, err := runs.GetRunResult(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(result)
			}
			printResult(output, result, detail)
			return nil
		},
	}
	show.Flags().BoolVar(&detail, "detail", true, "print every packet's checks, exit rules and explanation")

	cmd.AddCommand(list, show)
	return cmd
}
