// Package server exposes assessments and stored applications over a JSON API.
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"credit-risk-console/internal/applications"
	"credit-risk-console/internal/assessment"
	apperrors "credit-risk-console/internal/common/errors"
	"credit-risk-console/internal/common/logger"
	"credit-risk-console/internal/common/metrics"
	"credit-risk-console/internal/scoring"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestId"
)

// ScoringProbe is the read-only part of the scoring client the API proxies.
type ScoringProbe interface {
	Health(ctx context.Context) (*scoring.HealthStatus, error)
	Schema(ctx context.Context) (*scoring.ModelSchema, error)
}

type Server struct {
	assessments *assessment.Service
	store       *applications.Store
	scoring     ScoringProbe
	logger      logger.Logger
}

func NewServer(assessments *assessment.Service, store *applications.Store, probe ScoringProbe, log logger.Logger) *Server {
	return &Server{
		assessments: assessments,
		store:       store,
		scoring:     probe,
		logger:      log.Named("api"),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.observe())

	r.GET("/healthz", s.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/scoring/health", s.ScoringHealth)
	api.GET("/scoring/schema", s.ScoringSchema)
	api.POST("/assessments", s.SubmitAssessment)
	api.GET("/applications", s.ListApplications)
	api.GET("/applications/:id", s.GetApplication)
	api.GET("/applications/:id/insights", s.GetInsights)
	api.GET("/stats", s.Stats)

	return r
}

// ==========================
// Middleware
// ==========================

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.APIRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.logger.Debug("request handled", map[string]interface{}{
			"requestId": c.GetString(requestIDKey),
			"method":    c.Request.Method,
			"route":     route,
			"status":    status,
			"duration":  time.Since(start).String(),
		})
	}
}

// ==========================
// Handlers
// ==========================

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ScoringHealth(c *gin.Context) {
	status, err := s.scoring.Health(c.Request.Context())
	if err != nil {
		s.fail(c, "scoring.health", err, "")
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) ScoringSchema(c *gin.Context) {
	schema, err := s.scoring.Schema(c.Request.Context())
	if err != nil {
		s.fail(c, "scoring.schema", err, "")
		return
	}
	c.JSON(http.StatusOK, schema)
}

type submitResponse struct {
	*assessment.Result
	PersistError string `json:"persistError,omitempty"`
}

func (s *Server) SubmitAssessment(c *gin.Context) {
	var input scoring.ApplicantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.fail(c, "assessment.submit", apperrors.NewInvalidRequestError(err.Error()), "")
		return
	}

	result, err := s.assessments.Submit(c.Request.Context(), input)
	if err != nil {
		s.fail(c, "assessment.submit", err, "")
		return
	}

	resp := submitResponse{Result: result}
	if result.PersistError != nil {
		resp.PersistError = result.PersistError.Error()
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListApplications(c *gin.Context) {
	records := s.store.Query(c.Request.Context(), applications.Filter{
		Search:   c.Query("search"),
		RiskTier: strings.ToUpper(c.Query("risk")),
		Status:   c.Query("status"),
	})
	if c.Query("sort") == "recent" {
		applications.SortByRecency(records)
	}
	c.JSON(http.StatusOK, gin.H{"applications": records, "count": len(records)})
}

func (s *Server) GetApplication(c *gin.Context) {
	id := c.Param("id")
	record, err := s.store.Find(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "applications.get", err, id)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) GetInsights(c *gin.Context) {
	id := c.Param("id")
	live, _ := strconv.ParseBool(c.DefaultQuery("live", "false"))

	view, err := s.assessments.Insights(c.Request.Context(), id, live)
	if err != nil {
		s.fail(c, "applications.insights", err, id)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Stats(c.Request.Context()))
}

func (s *Server) fail(c *gin.Context, operation string, err error, id string) {
	handler := apperrors.NewErrorHandler(s.logger.WithFields(map[string]interface{}{
		"requestId": c.GetString(requestIDKey),
	}))
	std := handler.Handle(operation, assessment.Classify(err, id))
	c.JSON(apperrors.HTTPStatus(std.Code), std)
}
