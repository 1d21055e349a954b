package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Income Configuration

[trading]
# Paper account size in USD
account_size = 100000.0
# Maximum loss of a single trade as percentage of the account
max_risk_per_trade_pct = 30.0
# Maximum combined loss of a ranked list as percentage of the account
max_total_risk_pct = 60.0
# Skip symbols reporting earnings within this many days
earnings_exclusion_days = 7

[trading.liquidity]
min_underlying_volume = 1000000
min_option_oi = 100
min_option_volume = 10
max_bid_ask_spread_pct = 10.0

[trading.strategies.cash_secured_put]
enabled = true
min_dte = 21
max_dte = 45
min_delta = 0.15
max_delta = 0.35
profit_target_pct = 50.0

[trading.strategies.covered_call]
enabled = true
min_dte = 21
max_dte = 45
min_delta = 0.15
max_delta = 0.35
profit_target_pct = 50.0

[trading.strategies.put_credit_spread]
enabled = true
min_dte = 21
max_dte = 45
min_delta = 0.15
max_delta = 0.30
profit_target_pct = 50.0
spread_width = 5.0
# Minimum net credit per spread in USD
min_credit = 50.0
preferred_volatility = ["normal", "elevated", "high"]

[trading.strategies.call_credit_spread]
enabled = true
min_dte = 21
max_dte = 45
min_delta = 0.15
max_delta = 0.30
profit_target_pct = 50.0
spread_width = 5.0
min_credit = 50.0
preferred_volatility = ["normal", "elevated", "high"]

[ranking]
min_score = 40
top_per_strategy = 3
max_per_symbol = 2

[pipeline]
workspace_id = "default"
# Risk profile: conservative, moderate, aggressive
risk_profile = "moderate"
benchmark = "SPY"
batch_size = 5
default_symbols = ["AAPL", "MSFT", "AMD", "KO", "XOM", "JPM"]

[data]
# Provider: "simulated" or "fixtures"
provider = "simulated"
fixtures_path = ""
seed = 42

[data.redis]
enabled = false
addr = "localhost:6379"
ttl = "5m"
namespace = "optincome"

[data.rate_limit]
rps = 20.0
burst = 10

[data.breaker]
max_consecutive_failures = 5
open_timeout = "30s"

[log]
# Level: debug, info, warn, error
level = "info"
console = true
file = false

[store]
# Defaults to <config dir>/options-income.db
path = ""
metrics_textfile = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

// ConfigPath returns the path of config.toml inside configDir.
func ConfigPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}
