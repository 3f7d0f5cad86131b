package decision

import "credit-risk-console/internal/scoring"

// Input is what the deriver needs about one application. Live is an
// optional fresh prediction for the stored applicant snapshot.
type Input struct {
	StoredRiskTier    string
	StoredProbability float64
	StoredFactors     []scoring.RiskFactor
	Applicant         scoring.ApplicantInput
	Live              *scoring.Prediction
}

// Insight is the full decision-assistant view of one application.
type Insight struct {
	RiskLabel          string               `json:"riskLabel"`
	DefaultProbability float64              `json:"defaultProbability"`
	Live               bool                 `json:"live"`
	RecommendedAction  string               `json:"recommendedAction"`
	RateBand           string               `json:"rateBand"`
	Term               string               `json:"term"`
	Affordability      Affordability        `json:"affordability"`
	LoanToIncome       float64              `json:"loanToIncome"`
	CapacityNote       string               `json:"capacityNote"`
	Factors            []scoring.RiskFactor `json:"factors"`
	Tips               []Tip                `json:"tips"`
	WhatIf             []Scenario           `json:"whatIf"`
}

// Derive computes every piece of guidance for in. Live values win over
// stored ones; guidance is derived from whichever factor list is in use.
func Derive(in Input) Insight {
	label := ResolveRiskLabel(in.Live, in.StoredRiskTier)
	probability := in.StoredProbability
	factors := in.StoredFactors
	if in.Live != nil {
		probability = in.Live.DefaultProbability
		factors = formatFactors(in.Live.TopFactors)
	}
	if factors == nil {
		factors = []scoring.RiskFactor{}
	}

	lti := LoanToIncome(in.Applicant)
	return Insight{
		RiskLabel:          label,
		DefaultProbability: probability,
		Live:               in.Live != nil,
		RecommendedAction:  RecommendedAction(label),
		RateBand:           RateBand(label),
		Term:               Term(label),
		Affordability:      EstimateAffordability(label, in.Applicant),
		LoanToIncome:       lti,
		CapacityNote:       CapacityNote(lti),
		Factors:            factors,
		Tips:               ImprovementTips(factors),
		WhatIf:             WhatIfScenarios(factors),
	}
}

// formatFactors swaps feature ids for display labels, keeping order. The
// family patterns are case-insensitive so they still match the labels.
func formatFactors(in []scoring.RiskFactor) []scoring.RiskFactor {
	out := make([]scoring.RiskFactor, len(in))
	for i, f := range in {
		f.Feature = FormatFeature(f.Feature)
		out[i] = f
	}
	return out
}
