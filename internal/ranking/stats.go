package ranking

import (
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// HistogramBuckets are the score histogram labels, lowest first.
var HistogramBuckets = []string{"0-19", "20-39", "40-59", "60-79", "80-100"}

func bucket(score int) string {
	switch {
	case score >= 80:
		return "80-100"
	case score >= 60:
		return "60-79"
	case score >= 40:
		return "40-59"
	case score >= 20:
		return "20-39"
	default:
		return "0-19"
	}
}

// CalculateStats aggregates xs without filtering it.
func CalculateStats(xs []models.TradePacket) models.RankingStats {
	stats := models.RankingStats{
		Total:          len(xs),
		ByStrategy:     make(map[models.StrategyType]int),
		BySymbol:       make(map[string]int),
		ScoreHistogram: make(map[string]int, len(HistogramBuckets)),
	}
	for _, b := range HistogramBuckets {
		stats.ScoreHistogram[b] = 0
	}
	if len(xs) == 0 {
		return stats
	}

	var scoreSum, confidenceSum float64
	for _, p := range xs {
		stats.ByStrategy[p.Strategy()]++
		stats.BySymbol[p.Symbol()]++
		stats.ScoreHistogram[bucket(p.Score())]++
		scoreSum += float64(p.Score())
		confidenceSum += float64(p.Candidate.Conviction.Confidence)
		stats.TotalMaxLoss += p.MaxLoss()
		stats.TotalNetCredit += p.Candidate.NetCredit
	}

	n := float64(len(xs))
	stats.AverageScore = utils.RoundTo(scoreSum/n, 2)
	stats.AverageConfidence = utils.RoundTo(confidenceSum/n, 2)
	stats.TotalMaxLoss = utils.RoundTo(stats.TotalMaxLoss, 2)
	stats.TotalNetCredit = utils.RoundTo(stats.TotalNetCredit, 2)
	return stats
}
