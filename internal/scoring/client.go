// Package scoring is the client for the remote credit-risk prediction service.
package scoring

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	commonhttp "credit-risk-console/internal/common/http"
	"credit-risk-console/internal/common/logger"
	"credit-risk-console/internal/common/metrics"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	endpointHealth  = "health"
	endpointSchema  = "schema"
	endpointPredict = "predict"

	// bodies larger than this are treated as malformed
	maxResponseBytes = 1 << 20
)

var (
	//go:embed schemas/prediction.json
	predictionSchemaJSON string
	//go:embed schemas/health.json
	healthSchemaJSON string

	predictionSchema = mustSchema(predictionSchemaJSON)
	healthSchema     = mustSchema(healthSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("scoring: invalid embedded schema: %v", err))
	}
	return s
}

// Client talks to the scoring service. It performs no retries and no
// caching; the caller's context bounds each call.
type Client struct {
	baseURL string
	http    *commonhttp.Client
	logger  logger.Logger
	tracer  trace.Tracer
}

// NewClient builds a client for baseURL, e.g. "http://localhost:8000/api".
func NewClient(baseURL string, httpClient *commonhttp.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = commonhttp.NewClient(0)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  log.Named("scoring"),
		tracer:  otel.Tracer("credit-risk-console/scoring"),
	}
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Predict scores one applicant.
func (c *Client) Predict(ctx context.Context, input ApplicantInput) (*Prediction, error) {
	body, err := c.do(ctx, endpointPredict, http.MethodPost, input)
	if err != nil {
		return nil, err
	}
	if err := validateBody(predictionSchema, body); err != nil {
		c.logger.Warn("prediction failed schema validation", map[string]interface{}{"error": err})
		return nil, &TransportError{Op: endpointPredict, Err: err}
	}

	var prediction Prediction
	if err := json.Unmarshal(body, &prediction); err != nil {
		return nil, &TransportError{Op: endpointPredict, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if prediction.TopFactors == nil {
		prediction.TopFactors = []RiskFactor{}
	}

	c.logger.Debug("prediction received", map[string]interface{}{
		"riskLabel":          prediction.RiskLabel,
		"defaultProbability": prediction.DefaultProbability,
		"factorCount":        len(prediction.TopFactors),
		"modelVersion":       prediction.ModelVersion,
	})
	return &prediction, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	body, err := c.do(ctx, endpointHealth, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	if err := validateBody(healthSchema, body); err != nil {
		return nil, &TransportError{Op: endpointHealth, Err: err}
	}
	var status HealthStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, &TransportError{Op: endpointHealth, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return &status, nil
}

// Schema calls GET /schema.
func (c *Client) Schema(ctx context.Context) (*ModelSchema, error) {
	body, err := c.do(ctx, endpointSchema, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	var schema ModelSchema
	if err := json.Unmarshal(body, &schema); err != nil {
		return nil, &TransportError{Op: endpointSchema, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return &schema, nil
}

// IsAvailable reduces any health-check failure to false. It never returns
// an error.
func (c *Client) IsAvailable(ctx context.Context) bool {
	if _, err := c.Health(ctx); err != nil {
		c.logger.Warn("scoring service not available", map[string]interface{}{"error": err})
		return false
	}
	return true
}

func (c *Client) do(ctx context.Context, endpoint, method string, payload interface{}) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, endpoint)

	ctx, span := c.tracer.Start(ctx, "scoring."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", url),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.ScoringDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	fail := func(err error, outcome string) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ScoringRequests.WithLabelValues(endpoint, outcome).Inc()
		return err
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fail(&TransportError{Op: endpoint, Err: fmt.Errorf("encode request: %w", err)}, metrics.OutcomeTransport)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fail(&TransportError{Op: endpoint, Err: err}, metrics.OutcomeTransport)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(&TransportError{Op: endpoint, Err: err}, metrics.OutcomeTransport)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fail(&TransportError{Op: endpoint, Err: fmt.Errorf("read body: %w", err)}, metrics.OutcomeTransport)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &ServiceError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
		c.logger.Warn("scoring service returned error status", map[string]interface{}{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
			"message":  se.Message,
		})
		return nil, fail(se, metrics.OutcomeServiceError)
	}

	metrics.ScoringRequests.WithLabelValues(endpoint, metrics.OutcomeSuccess).Inc()
	return body, nil
}

func validateBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(msgs, "; "))
	}
	return nil
}
