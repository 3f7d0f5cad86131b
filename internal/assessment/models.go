package assessment

import (
	"context"

	"credit-risk-console/internal/applications"
	"credit-risk-console/internal/common/validation"
	"credit-risk-console/internal/decision"
	"credit-risk-console/internal/scoring"
)

// Predictor scores one applicant. *scoring.Client satisfies it.
type Predictor interface {
	Predict(ctx context.Context, input scoring.ApplicantInput) (*scoring.Prediction, error)
}

// Result is the outcome of a submission. PersistError is set when the
// record was scored but could not be written to durable storage; it is
// still visible for this process.
type Result struct {
	Record       applications.Record          `json:"record"`
	Prediction   *scoring.Prediction          `json:"prediction"`
	Persisted    bool                         `json:"persisted"`
	PersistError error                        `json:"-"`
	Hints        []validation.ValidationError `json:"hints,omitempty"`
}

// InsightView is a stored record with its derived guidance.
type InsightView struct {
	Record    applications.Record `json:"record"`
	Insight   decision.Insight    `json:"insight"`
	// Status follows the live risk label when the re-score succeeded and
	// the stored status otherwise.
	Status    string              `json:"status"`
	LiveError string              `json:"liveError,omitempty"`
	// LiveErr is the error from a failed live re-score.
	LiveErr error `json:"-"`
}
