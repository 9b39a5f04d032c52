package analytics

import "strings"

const (
	highRiskThreshold   = 0.8
	mediumRiskThreshold = 0.6

	// defaultScore stands in for a missing anomaly or risk score.
	defaultScore = 0.5
)

// ClassifyRisk derives a risk level for a flagged transaction. An explicit
// valid level from the backend wins. Otherwise the higher of the two scores
// is compared against the thresholds: above 0.8 is high, above 0.6 medium,
// anything else low.
func ClassifyRisk(explicit string, anomalyScore, riskScore float64) RiskLevel {
	if level := RiskLevel(strings.ToLower(strings.TrimSpace(explicit))); level.Valid() {
		return level
	}
	score := max(anomalyScore, riskScore)
	switch {
	case score > highRiskThreshold:
		return RiskHigh
	case score > mediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}
