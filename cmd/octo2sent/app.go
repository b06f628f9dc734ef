package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hejijunhao/octo2sent/internal/config"
	"github.com/hejijunhao/octo2sent/internal/connector"
	"github.com/hejijunhao/octo2sent/internal/connector/octopus"
	"github.com/hejijunhao/octo2sent/internal/logging"
	"github.com/hejijunhao/octo2sent/internal/output"
	"github.com/hejijunhao/octo2sent/internal/output/file"
	"github.com/hejijunhao/octo2sent/internal/output/multi"
	"github.com/hejijunhao/octo2sent/internal/output/sentinel"
	"github.com/hejijunhao/octo2sent/internal/output/stdout"
	"github.com/hejijunhao/octo2sent/internal/pipeline"
)

// app is everything one process needs to run invocations.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	connCfg  connector.ConnectorConfig
	params   connector.QueryParams
}

// overrides carries command-line flags that take precedence over config.
type overrides struct {
	hoursBack int
	sinks     string
	dryRun    bool
	port      string
}

func (o overrides) apply(cfg *config.Config) {
	if o.hoursBack != 0 {
		cfg.Octopus.HoursBack = o.hoursBack
	}
	if o.sinks != "" {
		cfg.Output.Sinks = config.ParseList(o.sinks)
	}
	if o.dryRun {
		cfg.Output.Sinks = []string{config.SinkStdout}
	}
	if o.port != "" {
		cfg.Server.Port = o.port
	}
}

func newApp(o overrides) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	o.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	sentinel.LogSDKEvents(logger)

	ctor, err := connector.Get(octopus.Provider)
	if err != nil {
		return nil, err
	}
	out, err := buildOutput(cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline.New(ctor(), out, logger),
		connCfg: connector.ConnectorConfig{
			Provider: octopus.Provider,
			APIKey:   cfg.Octopus.APIKey,
			Endpoint: cfg.Octopus.BaseURL,
			Extra: map[string]string{
				"space_id": cfg.Octopus.SpaceID,
				"timeout":  cfg.Octopus.Timeout.String(),
			},
		},
		params: connector.QueryParams{Lookback: cfg.Octopus.Lookback()},
	}, nil
}

// buildOutput creates the configured sinks, fanning out when there is more than one.
func buildOutput(cfg config.Config) (output.Output, error) {
	var outs []output.Output
	for _, name := range cfg.Output.Sinks {
		switch name {
		case config.SinkSentinel:
			o, err := sentinel.New(sentinel.Config{
				Endpoint:   cfg.Ingestion.Endpoint,
				RuleID:     cfg.Ingestion.RuleID,
				StreamName: cfg.Ingestion.StreamName,
			})
			if err != nil {
				return nil, err
			}
			outs = append(outs, o)
		case config.SinkStdout:
			outs = append(outs, stdout.New(cfg.Output.Pretty))
		case config.SinkFile:
			o, err := file.New(cfg.Output.FilePath, file.WithMaxSize(cfg.Output.FileMaxSize))
			if err != nil {
				return nil, err
			}
			outs = append(outs, o)
		default:
			return nil, fmt.Errorf("unknown output sink %q", name)
		}
	}
	if len(outs) == 1 {
		return outs[0], nil
	}
	return multi.New(outs...), nil
}

func (a *app) close() {
	if err := a.pipeline.Close(); err != nil {
		a.logger.Warn("output close error", "error", err)
	}
}

// elapsed is a log attribute helper.
func elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}
