// Package narrative renders human-readable explanations for trade packets.
package narrative

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"options-income/internal/models"
	"options-income/pkg/utils"
)

// Explainer produces explanation text for a candidate in its market context.
type Explainer interface {
	Explain(c *models.StrategyCandidate, mc *models.MarketContext) (string, error)
}

var strategyNames = map[models.StrategyType]string{
	models.StrategyCashSecuredPut:   "Cash-secured put",
	models.StrategyCoveredCall:      "Covered call",
	models.StrategyPutCreditSpread:  "Put credit spread",
	models.StrategyCallCreditSpread: "Call credit spread",
}

// StrategyName returns the display name of t.
func StrategyName(t models.StrategyType) string {
	if n, ok := strategyNames[t]; ok {
		return n
	}
	return string(t)
}

const defaultTemplate = `{{strategy .C.Strategy}} on {{.C.Symbol}}: {{legs .C}} expiring {{.C.Expiration.Format "2006-01-02"}} ({{.C.DTE}} DTE) for {{money .C.NetCredit}} credit.
Max loss {{money .C.RiskBox.MaxLoss}}, breakeven {{breakevens .C.RiskBox.Breakevens}}, {{pct .C.RiskBox.AnnualizedReturn}} annualized, {{pct .C.RiskBox.ProbabilityOfProfit}} probability of profit.
Score {{.C.Score}}/100 with confidence {{.C.Conviction.Confidence}} and uncertainty {{.C.Conviction.Uncertainty}}.
{{.C.Symbol}} is in a {{trend .M.Signals.Trend}} with {{.M.Signals.Volatility}} volatility; the market is {{trend .M.Regime.Trend}}, {{posture .M.Regime.RiskPosture}}, breadth {{.M.Regime.Breadth.Assessment}}.
{{- with passed .C.Reasons}}
Passed: {{join . ", "}}.{{end}}
{{- with failed .C.Reasons}}
Failed: {{join . ", "}}.{{end}}
{{- with .C.Conviction.Factors}}
Factors: {{join . "; "}}.{{end}}`

// TemplateExplainer renders explanations from a text/template.
type TemplateExplainer struct {
	tmpl *template.Template
}

// NewTemplateExplainer creates an explainer with the built-in template.
func NewTemplateExplainer() *TemplateExplainer {
	e, err := NewTemplateExplainerFrom(defaultTemplate)
	if err != nil {
		panic(fmt.Sprintf("narrative: default template: %v", err))
	}
	return e
}

// NewTemplateExplainerFrom parses text as the explanation template. The
// template sees .C (the candidate) and .M (the market context).
func NewTemplateExplainerFrom(text string) (*TemplateExplainer, error) {
	tmpl, err := template.New("explanation").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing explanation template: %w", err)
	}
	return &TemplateExplainer{tmpl: tmpl}, nil
}

// Explain implements Explainer.
func (e *TemplateExplainer) Explain(c *models.StrategyCandidate, mc *models.MarketContext) (string, error) {
	var buf bytes.Buffer
	data := struct {
		C *models.StrategyCandidate
		M *models.MarketContext
	}{c, mc}
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering explanation for %s %s: %w", c.Symbol, c.Strategy, err)
	}
	return buf.String(), nil
}

var funcs = template.FuncMap{
	"strategy": StrategyName,
	"money":    utils.FormatCurrency,
	"pct":      func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"join":     strings.Join,
	"trend":    func(t models.TrendCategory) string { return strings.ReplaceAll(string(t), "_", " ") },
	"posture":  func(p models.RiskPosture) string { return strings.ReplaceAll(string(p), "_", "-") },
	"legs":     describeLegs,
	"breakevens": func(xs []float64) string {
		parts := make([]string, len(xs))
		for i, x := range xs {
			parts[i] = utils.FormatCurrency(x)
		}
		return strings.Join(parts, " / ")
	},
	"passed": func(rs []models.Reason) []string { return reasonChecks(rs, true) },
	"failed": func(rs []models.Reason) []string { return reasonChecks(rs, false) },
}

func describeLegs(c *models.StrategyCandidate) string {
	parts := make([]string, 0, len(c.Legs))
	for _, l := range c.Legs {
		parts = append(parts, fmt.Sprintf("%s %d %s %s", l.Side, l.Quantity,
			utils.FormatStrike(l.Contract.Strike), l.Contract.Type))
	}
	return strings.Join(parts, ", ")
}

func reasonChecks(rs []models.Reason, passed bool) []string {
	var out []string
	for _, r := range rs {
		if r.Passed == passed {
			out = append(out, strings.ReplaceAll(r.Check, "_", " "))
		}
	}
	return out
}
