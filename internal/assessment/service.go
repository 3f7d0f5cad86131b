// Package assessment runs the submission flow (score, build record, store)
// and the insight read path over stored records.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credit-risk-console/internal/applications"
	"credit-risk-console/internal/common/logger"
	"credit-risk-console/internal/common/metrics"
	"credit-risk-console/internal/common/observability"
	"credit-risk-console/internal/decision"
	"credit-risk-console/internal/notify"
	"credit-risk-console/internal/scoring"
)

const (
	submittedTimestamp = "Just now"
	recommendHigh      = "Manual review recommended"
	recommendDefault   = "Proceed with standard terms"
)

type Service struct {
	config    *Config
	predictor Predictor
	store     *applications.Store
	notifier  notify.Notifier
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

// NewService wires the submission flow. notifier and obs may be nil.
func NewService(config *Config, predictor Predictor, store *applications.Store, notifier notify.Notifier, obs *observability.Observability, log logger.Logger) *Service {
	if config == nil {
		config = LoadConfig()
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Service{
		config:    config,
		predictor: predictor,
		store:     store,
		notifier:  notifier,
		obs:       obs,
		logger:    log.Named("assessment"),
		now:       time.Now,
	}
}

// Submit scores input and stores the resulting record. Scoring errors are
// returned unchanged. A storage failure does not fail the submission; it is
// reported through Result.PersistError.
func (s *Service) Submit(ctx context.Context, input scoring.ApplicantInput) (*Result, error) {
	start := s.now()

	hints := CheckRanges(input)
	if len(hints) > 0 {
		s.logger.Warn("applicant input outside form ranges", map[string]interface{}{
			"hints": len(hints),
			"first": hints[0].Field + ": " + hints[0].Message,
		})
	}

	prediction, err := s.predict(ctx, input)
	if err != nil {
		s.obs.RecordAssessment(ctx, "failed", "", s.now().Sub(start))
		s.logger.Error("assessment scoring failed", map[string]interface{}{"error": err})
		return nil, err
	}

	record := s.buildRecord(input, prediction)
	result := &Result{Record: record, Prediction: prediction, Persisted: true, Hints: hints}

	if err := s.store.Add(ctx, record); err != nil {
		result.Persisted = false
		result.PersistError = err
		s.logger.Warn("assessment stored for this session only", map[string]interface{}{
			"applicationId": record.ID,
			"error":         err,
		})
	}

	metrics.AssessmentsSubmitted.WithLabelValues(record.RiskTier).Inc()
	s.obs.RecordAssessment(ctx, "scored", record.RiskTier, s.now().Sub(start))
	s.obs.RecordProbability(ctx, record.RiskTier, record.DefaultProbability)

	if record.Status == applications.StatusManualHold {
		if err := s.notifier.ManualHold(ctx, record); err != nil {
			s.logger.Warn("manual hold notification failed", map[string]interface{}{
				"applicationId": record.ID,
				"error":         err,
			})
		}
	}

	s.logger.Info("assessment submitted", map[string]interface{}{
		"applicationId":      record.ID,
		"riskTier":           record.RiskTier,
		"status":             record.Status,
		"defaultProbability": record.DefaultProbability,
		"persisted":          result.Persisted,
	})
	return result, nil
}

// Insights derives guidance for a stored record. With live set the stored
// applicant snapshot is re-scored; if that fails the view falls back to the
// stored values and carries the error.
func (s *Service) Insights(ctx context.Context, id string, live bool) (*InsightView, error) {
	record, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	in := decision.Input{
		StoredRiskTier:    record.RiskTier,
		StoredProbability: record.DefaultProbability,
		StoredFactors:     record.Insights.TopFactors,
		Applicant:         record.Insights.ApplicantData,
	}
	view := &InsightView{Record: record}

	if live {
		prediction, err := s.predict(ctx, record.Insights.ApplicantData.WithoutName())
		if err != nil {
			view.LiveErr = err
			view.LiveError = err.Error()
			s.logger.Warn("live re-score failed, using stored insight", map[string]interface{}{
				"applicationId": id,
				"error":         err,
			})
		} else {
			in.Live = prediction
		}
	}

	view.Insight = decision.Derive(in)
	view.Status = record.Status
	if view.Insight.Live {
		view.Status = applications.StatusForTier(view.Insight.RiskLabel)
	}
	return view, nil
}

// IsNotFound reports whether err means the application id is unknown.
func IsNotFound(err error) bool {
	return errors.Is(err, applications.ErrRecordNotFound)
}

func (s *Service) predict(ctx context.Context, input scoring.ApplicantInput) (*scoring.Prediction, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}
	return s.predictor.Predict(ctx, input)
}

func (s *Service) buildRecord(input scoring.ApplicantInput, prediction *scoring.Prediction) applications.Record {
	name := input.Name
	if name == "" {
		name = s.config.DefaultName
	}
	summaryName := input.Name
	if summaryName == "" {
		summaryName = "applicant"
	}

	factors := make([]scoring.RiskFactor, len(prediction.TopFactors))
	for i, f := range prediction.TopFactors {
		f.Feature = decision.FormatFeature(f.Feature)
		factors[i] = f
	}

	status := applications.StatusForTier(prediction.RiskLabel)
	recommendation := recommendDefault
	if status == applications.StatusManualHold {
		recommendation = recommendHigh
	}

	createdAt := s.now().UTC()
	return applications.Record{
		ID:                 s.store.GenerateID(),
		Name:               name,
		DefaultProbability: prediction.DefaultProbability,
		RiskTier:           prediction.RiskLabel,
		Status:             status,
		Timestamp:          submittedTimestamp,
		CreatedAt:          &createdAt,
		Insights: applications.Insights{
			Summary:         fmt.Sprintf("AI-generated insights for %s", summaryName),
			TopFactors:      factors,
			Recommendations: []string{recommendation},
			ApplicantData:   input.WithoutName(),
		},
	}
}
