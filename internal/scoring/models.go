package scoring

import "encoding/json"

// Risk labels returned by the scoring service.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Factor directions.
const (
	IncreasesRisk = "increases_risk"
	DecreasesRisk = "decreases_risk"
)

// ApplicantInput is the body of POST /predict. LoanAmount and
// EmploymentLength are optional and omitted from the wire when nil. Values
// are sent as entered; range checks are the service's job.
type ApplicantInput struct {
	Name                 string   `json:"name,omitempty"`
	Age                  int      `json:"age"`
	AnnualIncome         float64  `json:"annual_income"`
	DebtToIncomeRatio    float64  `json:"debt_to_income_ratio"`
	RevolvingUtilization float64  `json:"revolving_utilization"`
	OpenCreditLines      int      `json:"open_credit_lines"`
	Delinquencies2Yrs    int      `json:"delinquencies_2yrs"`
	Dependents           int      `json:"dependents"`
	FicoScore            int      `json:"fico_score"`
	LoanAmount           *float64 `json:"loan_amount,omitempty"`
	EmploymentLength     *float64 `json:"employment_length,omitempty"`
}

// Loan returns the requested amount, or 0 when none was given.
func (a ApplicantInput) Loan() float64 {
	if a.LoanAmount == nil {
		return 0
	}
	return *a.LoanAmount
}

func (a ApplicantInput) Employment() float64 {
	if a.EmploymentLength == nil {
		return 0
	}
	return *a.EmploymentLength
}

// WithoutName returns a copy suitable for re-scoring a stored snapshot.
func (a ApplicantInput) WithoutName() ApplicantInput {
	a.Name = ""
	return a
}

// RiskFactor is one explanatory factor. The service calls the rationale
// human_readable_reason while stored records call it description; both
// decode into Reason, and Reason is always encoded as description.
type RiskFactor struct {
	Feature   string  `json:"feature"`
	Impact    float64 `json:"impact"`
	Direction string  `json:"direction"`
	Reason    string  `json:"description"`
}

func (f *RiskFactor) UnmarshalJSON(data []byte) error {
	var raw struct {
		Feature             string  `json:"feature"`
		Impact              float64 `json:"impact"`
		Direction           string  `json:"direction"`
		Description         string  `json:"description"`
		HumanReadableReason string  `json:"human_readable_reason"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Feature = raw.Feature
	f.Impact = raw.Impact
	f.Direction = raw.Direction
	f.Reason = raw.HumanReadableReason
	if f.Reason == "" {
		f.Reason = raw.Description
	}
	return nil
}

// IncreasesRisk reports whether the factor pushes the probability up.
func (f RiskFactor) IncreasesRisk() bool {
	return f.Direction == IncreasesRisk
}

// Prediction is the decoded body of POST /predict.
type Prediction struct {
	DefaultProbability float64      `json:"default_probability"`
	RiskLabel          string       `json:"risk_label"`
	TopFactors         []RiskFactor `json:"top_factors"`
	ModelVersion       string       `json:"model_version"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}

// ModelSchema is the body of GET /schema. Its contents are informational.
type ModelSchema struct {
	Features       map[string]map[string]interface{} `json:"features"`
	RiskThresholds map[string]float64                `json:"risk_thresholds"`
	ModelInfo      map[string]interface{}            `json:"model_info"`
}
