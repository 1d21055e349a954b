package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "options-income/internal/errors"
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// ParseEarningsArg parses "SYMBOL=YYYY-MM-DD".
func ParseEarningsArg(arg string) (models.EarningsEvent, error) {
	sym, date, ok := strings.Cut(arg, "=")
	sym = strings.ToUpper(strings.TrimSpace(sym))
	if !ok || sym == "" {
		return models.EarningsEvent{}, apperrors.NewValidationError("earnings", arg, "expected SYMBOL=YYYY-MM-DD")
	}
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), utils.NewYorkLocation)
	if err != nil {
		return models.EarningsEvent{}, apperrors.NewValidationError("earnings", arg, "date must be YYYY-MM-DD")
	}
	return models.EarningsEvent{Symbol: sym, Date: d}, nil
}

func newEarningsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "earnings",
		Short: "Earnings calendar used to skip symbols near earnings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "add SYMBOL=YYYY-MM-DD...",
		Short:   "Record earnings dates",
		Example: "  optincome earnings add AAPL=2026-04-30 MSFT=2026-04-28",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			events := make([]models.EarningsEvent, 0, len(args))
			for _, a := range args {
				e, err := ParseEarningsArg(a)
				if err != nil {
					return err
				}
				events = append(events, e)
			}

			runs, err := app.runStore()
			if err != nil {
				return err
			}
			if err := runs.SaveEarnings(cmd.Context(), events); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]int{"saved": len(events)})
			}
			output.Success("Saved %d earnings date(s)", len(events))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list [SYMBOL...]",
		Short: "List recorded earnings dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			runs, err := app.runStore()
			if err != nil {
				return err
			}

			events, err := runs.ListEarnings(cmd.Context(), args)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				if events == nil {
					events = []models.EarningsEvent{}
				}
				return output.JSON(events)
			}
			if len(events) == 0 {
				output.Dim("No earnings dates recorded")
				return nil
			}

			now := time.Now()
			table := NewTable(output, "SYMBOL", "DATE", "DAYS")
			for _, e := range events {
				table.AddRow(e.Symbol, e.Date.Format("2006-01-02"), fmt.Sprintf("%d", utils.DaysBetween(now, e.Date)))
			}
			table.Render()
			return nil
		},
	})

	return cmd
}
