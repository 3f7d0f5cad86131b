package applications

import (
	"time"

	"credit-risk-console/internal/scoring"
)

// Decision statuses shown to analysts.
const (
	StatusAutoApproved = "Auto-Approved"
	StatusReview       = "Review"
	StatusManualHold   = "Manual Hold"
)

// Record is one assessed application. Records are replaced wholesale and
// never deleted.
type Record struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	DefaultProbability float64    `json:"defaultProbability"`
	RiskTier           string     `json:"riskTier"`
	Status             string     `json:"status"`
	Timestamp          string     `json:"timestamp"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
	Insights           Insights   `json:"insights"`
}

// Insights is the explanation stored with a record at submission time.
type Insights struct {
	Summary         string                 `json:"summary"`
	TopFactors      []scoring.RiskFactor   `json:"topFactors"`
	Recommendations []string               `json:"recommendations"`
	ApplicantData   scoring.ApplicantInput `json:"applicantData"`
}

// StatusForTier maps a risk tier to its decision status. Anything that is
// not LOW or MEDIUM is held for manual handling.
func StatusForTier(tier string) string {
	switch tier {
	case scoring.RiskLow:
		return StatusAutoApproved
	case scoring.RiskMedium:
		return StatusReview
	default:
		return StatusManualHold
	}
}

// Filter narrows a listing. Empty or "ALL" fields match everything.
type Filter struct {
	Search   string
	RiskTier string
	Status   string
}

// Stats summarises the merged record set.
type Stats struct {
	Total                 int     `json:"total"`
	Low                   int     `json:"low"`
	Medium                int     `json:"medium"`
	High                  int     `json:"high"`
	AvgDefaultProbability float64 `json:"avgDefaultProbability"`
}
