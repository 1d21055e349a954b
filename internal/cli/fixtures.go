package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"options-income/internal/config"
	"options-income/internal/marketdata"
)

func newFixturesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Offline market-data fixtures",
	}

	var (
		symbols []string
		out     string
	)
	export := &cobra.Command{
		Use:   "export",
		Short: "Write simulated market data to a YAML fixtures file",
		Long: `Generate the simulated dataset for the benchmark, breadth universe,
sector proxies and the given symbols, and write it as YAML. Point
data.fixtures_path at the file and set data.provider = "fixtures" to
replay it.`,
		Example: "  optincome fixtures export --symbols AAPL,KO --out ./fixtures.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg := app.Config

			if len(symbols) == 0 {
				symbols = cfg.Pipeline.DefaultSymbols
			}
			if out == "" {
				out = cfg.Data.FixturesPath
			}
			if out == "" {
				dir := app.ConfigDir
				if dir == "" {
					dir = config.DefaultConfigDir()
				}
				out = filepath.Join(dir, "fixtures.yaml")
			}

			all := fixtureSymbols(cfg, symbols)
			sim := marketdata.NewSimulatedProvider(marketdata.SimulatedConfig{Seed: cfg.Data.Seed})
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return fmt.Errorf("creating fixtures directory: %w", err)
			}
			if err := marketdata.WriteFixtures(out, sim.Snapshot(all)); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"path":    out,
					"symbols": len(all),
					"as_of":   sim.AsOf().Format("2006-01-02"),
				})
			}
			output.Success("Wrote %d symbols to %s", len(all), out)
			output.Dim("As of %s, seed %d", sim.AsOf().Format("2006-01-02"), cfg.Data.Seed)
			return nil
		},
	}
	export.Flags().StringSliceVarP(&symbols, "symbols", "s", nil, "symbols to include (default: pipeline.default_symbols)")
	export.Flags().StringVarP(&out, "out", "o", "", "output path (default: data.fixtures_path)")

	cmd.AddCommand(export)
	return cmd
}

// fixtureSymbols is every symbol a recompute over symbols will request,
// de-duplicated in order.
func fixtureSymbols(cfg *config.Config, symbols []string) []string {
	seen := make(map[string]bool)
	var all []string
	add := func(list ...string) {
		for _, s := range list {
			if s != "" && !seen[s] {
				seen[s] = true
				all = append(all, s)
			}
		}
	}
	add(cfg.Pipeline.Benchmark)
	add(cfg.Pipeline.Universe...)
	add(cfg.Pipeline.SectorProxies...)
	add(symbols...)
	return all
}
