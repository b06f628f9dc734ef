package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/hejijunhao/octo2sent/internal/connector"
	"github.com/hejijunhao/octo2sent/internal/metrics"
	"github.com/hejijunhao/octo2sent/internal/model"
	"github.com/hejijunhao/octo2sent/internal/output"
)

// Pipeline connects a connector and an output into one fetch → map → ship run.
type Pipeline struct {
	connector connector.Connector
	output    output.Output
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source used for entries without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Result summarizes one run. IngestErr is set when the upload failed; the
// failure is logged and never returned from Run.
type Result struct {
	Fetched   int
	Ingested  int
	IngestErr error
}

// New creates a Pipeline from the given components. A nil logger uses slog.Default().
func New(conn connector.Connector, out output.Output, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		connector: conn,
		output:    out,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithLogger returns a copy of p that logs to logger.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	cp := *p
	cp.logger = logger
	return &cp
}

// Run fetches every event in the window and uploads them as one batch.
// Only fetch failures are returned. An empty fetch skips the upload, and an
// upload failure is logged and reported in Result.IngestErr.
func (p *Pipeline) Run(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) (Result, error) {
	start := time.Now()
	defer func() { metrics.RunDuration.Observe(time.Since(start).Seconds()) }()

	p.logger.Info("starting events pull",
		"provider", cfg.Provider, "space_id", cfg.Extra["space_id"], "lookback", params.Lookback.String())

	events, err := p.connector.Query(ctx, cfg, params)
	if err != nil {
		metrics.Runs.WithLabelValues(metrics.OutcomeFetchFailed).Inc()
		return Result{}, fmt.Errorf("pipeline query: %w", err)
	}
	metrics.EventsFetched.Add(float64(len(events)))
	p.logger.Info("fetched events", "count", len(events))

	res := Result{Fetched: len(events)}
	if len(events) == 0 {
		p.logger.Warn("no events to ingest")
		metrics.Runs.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return res, nil
	}

	entries := model.NewLogEntries(events, p.now())
	if err := p.output.Upload(ctx, entries); err != nil {
		res.IngestErr = err
		p.logIngestError(err)
		metrics.Runs.WithLabelValues(metrics.OutcomeIngestFailed).Inc()
		return res, nil
	}

	res.Ingested = len(entries)
	metrics.EventsIngested.Add(float64(len(entries)))
	metrics.Runs.WithLabelValues(metrics.OutcomeIngested).Inc()
	p.logger.Info("ingested events", "count", len(entries))
	return res, nil
}

func (p *Pipeline) logIngestError(err error) {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		metrics.IngestionFailures.WithLabelValues("response").Inc()
		p.logger.Error("ingestion failed",
			"status", respErr.StatusCode, "error_code", respErr.ErrorCode, "error", err)
		return
	}
	metrics.IngestionFailures.WithLabelValues("unexpected").Inc()
	p.logger.Error("unexpected error during ingestion", "error", err)
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}
