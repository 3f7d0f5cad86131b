// Package decision derives analyst guidance from a risk label and the
// applicant's attributes. Everything here is pure: no I/O, no state.
package decision

import (
	"strings"

	"credit-risk-console/internal/scoring"
)

// Recommended actions.
const (
	ActionApprove           = "Approve"
	ActionApproveConditions = "Approve with conditions"
	ActionManualReview      = "Manual review"
)

// ResolveRiskLabel prefers a freshly fetched label over the stored one.
func ResolveRiskLabel(live *scoring.Prediction, stored string) string {
	if live != nil && live.RiskLabel != "" {
		return live.RiskLabel
	}
	return stored
}

// RecommendedAction is total: any label other than LOW or MEDIUM goes to
// manual review.
func RecommendedAction(label string) string {
	switch label {
	case scoring.RiskLow:
		return ActionApprove
	case scoring.RiskMedium:
		return ActionApproveConditions
	default:
		return ActionManualReview
	}
}

func RateBand(label string) string {
	switch label {
	case scoring.RiskLow:
		return "10% - 12% APR"
	case scoring.RiskMedium:
		return "14% - 18% APR"
	default:
		return "22% - 28% APR"
	}
}

// AnnualRate is the representative rate used for payment estimates.
func AnnualRate(label string) float64 {
	switch label {
	case scoring.RiskLow:
		return 0.11
	case scoring.RiskMedium:
		return 0.16
	default:
		return 0.25
	}
}

func Term(label string) string {
	switch label {
	case scoring.RiskLow:
		return "48 - 60 months"
	case scoring.RiskMedium:
		return "36 - 48 months"
	default:
		return "24 - 36 months"
	}
}

// TermMonths picks the upper bound of a term string.
func TermMonths(term string) int {
	switch {
	case strings.Contains(term, "60"):
		return 60
	case strings.Contains(term, "48"):
		return 48
	default:
		return 36
	}
}
