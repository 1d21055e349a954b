package cli

import (
	"github.com/spf13/cobra"

	apperrors "options-income/internal/errors"
	"options-income/internal/metrics"
	"options-income/internal/models"
	"options-income/internal/pipeline"
)

func newRecomputeCmd(app *App) *cobra.Command {
	var (
		symbols         []string
		profile         string
		minScore        int
		topPerStrategy  int
		maxPerSymbol    int
		metricsTextfile string
		detail          bool
	)

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Run the recommendation pipeline and rank trade packets",
		Long: `Run one recompute: classify the market regime, analyze each symbol,
generate candidates for every enabled strategy and rank them.

The run and its ranked packets are stored and can be viewed later with
'optincome runs show <run-id>'.`,
		Example: `  optincome recompute
  optincome recompute --symbols AAPL,MSFT,KO --profile conservative
  optincome recompute --min-score 55 --detail`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg := app.Config
			ctx := cmd.Context()

			if len(symbols) == 0 {
				symbols = cfg.Pipeline.DefaultSymbols
			}
			if profile == "" {
				profile = cfg.Pipeline.RiskProfile
			}
			if minScore == 0 {
				minScore = cfg.Ranking.MinScore
			}
			if topPerStrategy == 0 {
				topPerStrategy = cfg.Ranking.TopPerStrategy
			}
			if maxPerSymbol == 0 {
				maxPerSymbol = cfg.Ranking.MaxPerSymbol
			}
			if metricsTextfile == "" {
				metricsTextfile = cfg.Store.MetricsTextfile
			}

			runs, err := app.runStore()
			if err != nil {
				return err
			}

			rec := metrics.New()
			stack, err := buildProvider(ctx, cfg, app.Logger, rec)
			if err != nil {
				return err
			}
			defer stack.close()

			p := pipeline.New(pipeline.Config{
				Benchmark:     cfg.Pipeline.Benchmark,
				Universe:      cfg.Pipeline.Universe,
				SectorProxies: cfg.Pipeline.SectorProxies,
				BatchSize:     cfg.Pipeline.BatchSize,
				Settings:      cfg.Trading,
			}, stack.provider, runs, app.Logger, pipeline.WithMetrics(rec))

			result, runErr := p.Recompute(ctx, models.RunContext{
				WorkspaceID:    cfg.Pipeline.WorkspaceID,
				RiskProfile:    models.RiskProfile(profile),
				Symbols:        symbols,
				MinScore:       minScore,
				TopPerStrategy: topPerStrategy,
				MaxPerSymbol:   maxPerSymbol,
				AsOf:           stack.asOf,
			})

			stack.reportBreakers(app.Logger, rec)
			if metricsTextfile != "" {
				if err := rec.WriteTextfile(metricsTextfile); err != nil {
					app.Logger.Warn().Err(err).Str("path", metricsTextfile).Msg("Failed to write metrics textfile")
				}
			}

			if runErr != nil {
				if apperrors.IsFatal(runErr) {
					output.Error("Run aborted: %v", runErr)
				}
				return runErr
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			printResult(output, result, detail)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&symbols, "symbols", "s", nil, "symbols to analyze (default: pipeline.default_symbols)")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "risk profile: conservative, moderate or aggressive")
	cmd.Flags().IntVar(&minScore, "min-score", 0, "minimum packet score; 0 uses ranking.min_score, -1 disables the floor")
	cmd.Flags().IntVar(&topPerStrategy, "top-per-strategy", 0, "packets kept per strategy (default: ranking.top_per_strategy)")
	cmd.Flags().IntVar(&maxPerSymbol, "max-per-symbol", 0, "packets kept per symbol (default: ranking.max_per_symbol)")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")
	cmd.Flags().BoolVar(&detail, "detail", false, "print every packet's checks, exit rules and explanation")

	return cmd
}
