// Package cli provides the command-line interface for the recommendation service.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-income/internal/config"
	"options-income/internal/logging"
	"options-income/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-03-01"
)

// App holds the application dependencies.
type App struct {
	ConfigDir string
	Config    *config.Config
	Logger    zerolog.Logger
	Store     store.RunStore
}

// runStore opens the store on first use.
func (a *App) runStore() (store.RunStore, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	s, err := openStore(a.Config.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.Store = s
	a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("SQLite store initialized")
	return s, nil
}

// NewRootCmd creates the root command for the CLI. Configuration is loaded
// before any subcommand runs.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "optincome",
		Short: "Options-income trade recommendations",
		Long: `optincome ranks defined-risk options-income trades (cash-secured puts,
covered calls, put and call credit spreads) for paper trading.

Each recompute run classifies the market regime, analyzes every symbol,
generates scored candidates and keeps the best ones within your risk budget.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.ConfigDir)
			if err != nil {
				return err
			}
			app.Config = cfg

			logCfg := logging.LogConfig{
				Level:      cfg.Log.Level,
				Console:    cfg.Log.Console,
				File:       cfg.Log.File,
				FilePath:   cfg.Log.FilePath,
				MaxSize:    cfg.Log.MaxSize,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAge:     cfg.Log.MaxAge,
			}
			app.Logger = logging.NewLoggerWithConfig(logCfg)
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logging.SetDebugLevel()
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.Store != nil {
				return app.Store.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.ConfigDir, "config", "", "config directory (default: ~/.config/options-income)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRecomputeCmd(app))
	rootCmd.AddCommand(newRunsCmd(app))
	rootCmd.AddCommand(newEarningsCmd(app))
	rootCmd.AddCommand(newFixturesCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("optincome v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			dir := app.ConfigDir
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.ConfigPath(dir)})
			} else {
				output.Println(config.ConfigPath(dir))
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]interface{}{
					"valid":            true,
					"settings_version": app.Config.Trading.VersionID(),
				})
			} else {
				output.Success("Configuration is valid")
				output.Dim("Settings version: %s", app.Config.Trading.VersionID())
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	t := cfg.Trading
	output.Bold("Trading")
	output.Printf("  Account size:       $%.0f\n", t.AccountSize)
	output.Printf("  Max risk / trade:   %.1f%%\n", t.MaxRiskPerTradePct)
	output.Printf("  Max total risk:     %.1f%%\n", t.MaxTotalRiskPct)
	output.Printf("  Earnings window:    %d days\n", t.EarningsExclusionDays)
	output.Printf("  Min OI / volume:    %d / %d\n", t.Liquidity.MinOptionOI, t.Liquidity.MinOptionVolume)
	output.Printf("  Max bid/ask spread: %.1f%%\n", t.Liquidity.MaxBidAskSpreadPct)
	output.Println()

	output.Bold("Strategies")
	table := NewTable(output, "STRATEGY", "ENABLED", "DTE", "DELTA", "TARGET", "WIDTH")
	for _, s := range []struct {
		label string
		st    config.StrategySettings
	}{
		{"CSP", t.Strategies.CashSecuredPut},
		{"CC", t.Strategies.CoveredCall},
		{"PCS", t.Strategies.PutCreditSpread},
		{"CCS", t.Strategies.CallCreditSpread},
	} {
		width := "-"
		if s.st.SpreadWidth > 0 {
			width = fmt.Sprintf("%.1f", s.st.SpreadWidth)
		}
		table.AddRow(s.label,
			fmt.Sprintf("%v", s.st.Enabled),
			fmt.Sprintf("%d-%d", s.st.MinDTE, s.st.MaxDTE),
			fmt.Sprintf("%.2f-%.2f", s.st.MinDelta, s.st.MaxDelta),
			fmt.Sprintf("%.0f%%", s.st.ProfitTargetPct),
			width)
	}
	table.Render()
	output.Println()

	output.Bold("Ranking")
	output.Printf("  Min score: %d  Top per strategy: %d  Max per symbol: %d\n",
		cfg.Ranking.MinScore, cfg.Ranking.TopPerStrategy, cfg.Ranking.MaxPerSymbol)
	output.Println()

	output.Bold("Pipeline")
	output.Printf("  Profile:   %s\n", cfg.Pipeline.RiskProfile)
	output.Printf("  Benchmark: %s  (breadth %d symbols, %d sector proxies)\n",
		cfg.Pipeline.Benchmark, len(cfg.Pipeline.Universe), len(cfg.Pipeline.SectorProxies))
	output.Printf("  Provider:  %s\n", cfg.Data.Provider)
	output.Printf("  Redis:     %v\n", cfg.Data.Redis.Enabled)
	output.Printf("  Store:     %s\n", cfg.Store.Path)
}
