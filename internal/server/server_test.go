package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"credit-risk-console/internal/applications"
	"credit-risk-console/internal/assessment"
	apperrors "credit-risk-console/internal/common/errors"
	commonhttp "credit-risk-console/internal/common/http"
	"credit-risk-console/internal/common/logger/loggertest"
	"credit-risk-console/internal/scoring"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const lowPrediction = `{
	"default_probability": 0.08,
	"risk_label": "LOW",
	"top_factors": [
		{"feature": "revolving_utilization", "impact": 0.04, "direction": "increases_risk", "human_readable_reason": "Utilization slightly elevated"},
		{"feature": "fico_score", "impact": -0.2, "direction": "decreases_risk", "human_readable_reason": "Excellent credit score"}
	],
	"model_version": "1.0"
}`

type backend struct {
	status int
	body   string
}

func setupServer(t *testing.T, b *backend) (*gin.Engine, *applications.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	scoringSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/health":
			_, _ = io.WriteString(w, `{"status": "ok", "model_loaded": true, "version": "1.0"}`)
		case "/api/schema":
			_, _ = io.WriteString(w, `{"features": {}, "risk_thresholds": {"LOW": 0.33, "MEDIUM": 0.66}, "model_info": {}}`)
		default:
			w.WriteHeader(b.status)
			_, _ = io.WriteString(w, b.body)
		}
	}))
	t.Cleanup(scoringSrv.Close)

	log := loggertest.New(t)
	client := scoring.NewClient(scoringSrv.URL+"/api", commonhttp.NewClientWith(scoringSrv.Client()), log)
	store := applications.NewStore(applications.NewMemoryStorage(), applications.Seed(), log)
	svc := assessment.NewService(assessment.LoadConfig(), client, store, nil, nil, log)

	return NewServer(svc, store, client, log).SetupRouter(), store
}

func doRequest(r http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

const applicantBody = `{
	"name": "Priya Nair",
	"age": 35,
	"annual_income": 85000,
	"debt_to_income_ratio": 0.25,
	"revolving_utilization": 0.2,
	"open_credit_lines": 6,
	"delinquencies_2yrs": 0,
	"dependents": 2,
	"fico_score": 780,
	"loan_amount": 15000,
	"employment_length": 8
}`

// ==========================
// Tests
// ==========================

func TestHealthz(t *testing.T) {
	r, _ := setupServer(t, &backend{})

	w := doRequest(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDEchoed(t *testing.T) {
	r, _ := setupServer(t, &backend{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
}

func TestScoringProxy(t *testing.T) {
	r, _ := setupServer(t, &backend{})

	w := doRequest(r, http.MethodGet, "/api/scoring/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health scoring.HealthStatus
	decode(t, w, &health)
	assert.True(t, health.ModelLoaded)

	w = doRequest(r, http.MethodGet, "/api/scoring/schema", "")
	require.Equal(t, http.StatusOK, w.Code)
	var schema scoring.ModelSchema
	decode(t, w, &schema)
	assert.Equal(t, 0.66, schema.RiskThresholds["MEDIUM"])
}

func TestSubmitAssessment_Success(t *testing.T) {
	r, store := setupServer(t, &backend{status: http.StatusOK, body: lowPrediction})

	w := doRequest(r, http.MethodPost, "/api/assessments", applicantBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Record       applications.Record `json:"record"`
		Persisted    bool                `json:"persisted"`
		PersistError string              `json:"persistError"`
	}
	decode(t, w, &resp)
	assert.True(t, resp.Persisted)
	assert.Empty(t, resp.PersistError)
	assert.Equal(t, applications.StatusAutoApproved, resp.Record.Status)
	assert.Equal(t, "Priya Nair", resp.Record.Name)

	_, err := store.Find(t.Context(), resp.Record.ID)
	require.NoError(t, err)

	w = doRequest(r, http.MethodGet, "/api/applications/"+resp.Record.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got applications.Record
	decode(t, w, &got)
	assert.Equal(t, resp.Record.ID, got.ID)

	w = doRequest(r, http.MethodGet, "/api/applications?sort=recent", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Applications []applications.Record `json:"applications"`
		Count        int                   `json:"count"`
	}
	decode(t, w, &list)
	assert.Equal(t, 6, list.Count)
	assert.Equal(t, resp.Record.ID, list.Applications[0].ID)
}

func TestSubmitAssessment_Errors(t *testing.T) {
	tests := []struct {
		name           string
		backend        *backend
		body           string
		expectedStatus int
		expectedCode   apperrors.ErrorCode
		validateOutput func(t *testing.T, std apperrors.StandardError)
	}{
		{
			name:           "malformed json",
			backend:        &backend{status: http.StatusOK, body: lowPrediction},
			body:           `{"age": `,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apperrors.ErrCodeInvalidRequest,
		},
		{
			name:           "wrong type",
			backend:        &backend{status: http.StatusOK, body: lowPrediction},
			body:           `{"age": "thirty"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apperrors.ErrCodeInvalidRequest,
		},
		{
			name:           "scoring rejects input",
			backend:        &backend{status: http.StatusUnprocessableEntity, body: `{"error": "fico_score out of range"}`},
			body:           applicantBody,
			expectedStatus: http.StatusBadGateway,
			expectedCode:   apperrors.ErrCodeScoringServiceError,
			validateOutput: func(t *testing.T, std apperrors.StandardError) {
				assert.Equal(t, "fico_score out of range", std.Details)
				assert.Equal(t, float64(422), std.Metadata["upstreamStatus"])
			},
		},
		{
			name:           "scoring returns garbage",
			backend:        &backend{status: http.StatusOK, body: `{"risk_label": "LOW"}`},
			body:           applicantBody,
			expectedStatus: http.StatusBadGateway,
			expectedCode:   apperrors.ErrCodeInvalidPrediction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupServer(t, tt.backend)

			w := doRequest(r, http.MethodPost, "/api/assessments", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)

			var std apperrors.StandardError
			decode(t, w, &std)
			assert.Equal(t, tt.expectedCode, std.Code)
			if tt.validateOutput != nil {
				tt.validateOutput(t, std)
			}
		})
	}
}

func TestListApplications_Filters(t *testing.T) {
	r, _ := setupServer(t, &backend{})

	tests := []struct {
		query    string
		expected int
	}{
		{query: "", expected: 5},
		{query: "?risk=high", expected: 2},
		{query: "?risk=ALL", expected: 5},
		{query: "?status=Review", expected: 1},
		{query: "?search=WANG", expected: 1},
		{query: "?search=nobody", expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, "/api/applications"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)
			var list struct {
				Applications []applications.Record `json:"applications"`
				Count        int                   `json:"count"`
			}
			decode(t, w, &list)
			assert.Equal(t, tt.expected, list.Count)
			assert.Len(t, list.Applications, tt.expected)
		})
	}
}

func TestGetApplication_NotFound(t *testing.T) {
	r, _ := setupServer(t, &backend{})

	w := doRequest(r, http.MethodGet, "/api/applications/APP-missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var std apperrors.StandardError
	decode(t, w, &std)
	assert.Equal(t, apperrors.ErrCodeApplicationNotFound, std.Code)
	assert.Contains(t, std.Details, "APP-missing")

	w = doRequest(r, http.MethodGet, "/api/applications/APP-missing/insights", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetInsights(t *testing.T) {
	tests := []struct {
		name           string
		backend        *backend
		query          string
		validateOutput func(t *testing.T, view map[string]interface{})
	}{
		{
			name:    "stored",
			backend: &backend{},
			validateOutput: func(t *testing.T, view map[string]interface{}) {
				insight := view["insight"].(map[string]interface{})
				assert.Equal(t, false, insight["live"])
				assert.Equal(t, "Manual review", insight["recommendedAction"])
				assert.NotContains(t, view, "liveError")
			},
		},
		{
			name:    "live",
			backend: &backend{status: http.StatusOK, body: lowPrediction},
			query:   "?live=true",
			validateOutput: func(t *testing.T, view map[string]interface{}) {
				insight := view["insight"].(map[string]interface{})
				assert.Equal(t, true, insight["live"])
				assert.Equal(t, "LOW", insight["riskLabel"])
				assert.Equal(t, "Approve", insight["recommendedAction"])
			},
		},
		{
			name:    "live failure falls back",
			backend: &backend{status: http.StatusServiceUnavailable, body: `{"error": "Model not loaded"}`},
			query:   "?live=true",
			validateOutput: func(t *testing.T, view map[string]interface{}) {
				insight := view["insight"].(map[string]interface{})
				assert.Equal(t, false, insight["live"])
				assert.Equal(t, "HIGH", insight["riskLabel"])
				assert.True(t, strings.Contains(view["liveError"].(string), "Model not loaded"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupServer(t, tt.backend)
			w := doRequest(r, http.MethodGet, "/api/applications/APP-2025-001/insights"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var view map[string]interface{}
			decode(t, w, &view)
			tt.validateOutput(t, view)
		})
	}
}

func TestStats(t *testing.T) {
	r, _ := setupServer(t, &backend{})

	w := doRequest(r, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st applications.Stats
	decode(t, w, &st)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 2, st.High)
	assert.InDelta(t, 0.478, st.AvgDefaultProbability, 1e-9)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := setupServer(t, &backend{})
	doRequest(r, http.MethodGet, "/healthz", "")

	w := doRequest(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "risk_console_api_requests_total")
}
