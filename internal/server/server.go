// Package server implements an Azure Functions custom handler: the Functions
// host owns the timer schedule and POSTs to /{function} on every firing.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hejijunhao/octo2sent/internal/connector"
	"github.com/hejijunhao/octo2sent/internal/pipeline"
)

const (
	invocationIDHeader = "X-Azure-Functions-InvocationId"
	timerBinding       = "mytimer"
)

// InvokeRequest is the payload the Functions host sends to a custom handler.
type InvokeRequest struct {
	Data     map[string]json.RawMessage `json:"Data"`
	Metadata map[string]any             `json:"Metadata"`
}

// TimerInfo is the timer trigger binding value.
type TimerInfo struct {
	IsPastDue      bool `json:"IsPastDue"`
	ScheduleStatus *struct {
		Last        string `json:"Last"`
		Next        string `json:"Next"`
		LastUpdated string `json:"LastUpdated"`
	} `json:"ScheduleStatus"`
}

// InvokeResponse is returned to the Functions host. Logs are surfaced in the
// invocation log; a non-2xx status marks the invocation as failed.
type InvokeResponse struct {
	Outputs     map[string]any `json:"Outputs"`
	Logs        []string       `json:"Logs"`
	ReturnValue any            `json:"ReturnValue"`
}

// Server holds all handler dependencies.
type Server struct {
	pipeline *pipeline.Pipeline
	connCfg  connector.ConnectorConfig
	params   connector.QueryParams
	logger   *slog.Logger
}

// New creates a Server that runs p with the given connector settings on every invocation.
func New(p *pipeline.Pipeline, connCfg connector.ConnectorConfig, params connector.QueryParams, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{pipeline: p, connCfg: connCfg, params: params, logger: logger}
}

// Routes registers all routes on a new gin engine.
func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/:function", s.invokeHandler)

	return r
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// invokeHandler runs one pipeline invocation. Fetch failures answer 500;
// ingestion failures are already swallowed by the pipeline and answer 200.
func (s *Server) invokeHandler(c *gin.Context) {
	invocationID := c.GetHeader(invocationIDHeader)
	if invocationID == "" {
		invocationID = uuid.NewString()
	}
	logger := s.logger.With("invocation_id", invocationID, "function", c.Param("function"))

	var req InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("invalid invocation request", "error", err)
		c.JSON(http.StatusBadRequest, InvokeResponse{
			Outputs: map[string]any{},
			Logs:    []string{fmt.Sprintf("invalid invocation request: %v", err)},
		})
		return
	}
	if timer, ok := req.timer(); ok && timer.IsPastDue {
		logger.Warn("timer is past due")
	}

	res, err := s.pipeline.WithLogger(logger).Run(c.Request.Context(), s.connCfg, s.params)
	if err != nil {
		logger.Error("invocation failed", "error", err)
		c.JSON(http.StatusInternalServerError, InvokeResponse{
			Outputs: map[string]any{},
			Logs:    []string{fmt.Sprintf("fetch failed: %v", err)},
		})
		return
	}

	c.JSON(http.StatusOK, InvokeResponse{
		Outputs: map[string]any{},
		Logs:    []string{summary(res)},
	})
}

func (r InvokeRequest) timer() (TimerInfo, bool) {
	raw, ok := r.Data[timerBinding]
	if !ok {
		return TimerInfo{}, false
	}
	var t TimerInfo
	if err := json.Unmarshal(raw, &t); err != nil {
		return TimerInfo{}, false
	}
	return t, true
}

func summary(res pipeline.Result) string {
	switch {
	case res.Fetched == 0:
		return "no events to ingest"
	case res.IngestErr != nil:
		return fmt.Sprintf("fetched %d events, ingestion failed: %v", res.Fetched, res.IngestErr)
	default:
		return fmt.Sprintf("fetched %d events, ingested %d", res.Fetched, res.Ingested)
	}
}
