// Package sentinel ships log entries to Azure Monitor Logs through a Data
// Collection Endpoint (DCE) and Data Collection Rule (DCR), which is how
// custom tables reach Microsoft Sentinel.
package sentinel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	azlog "github.com/Azure/azure-sdk-for-go/sdk/azcore/log"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/monitor/ingestion/azlogs"

	"github.com/hejijunhao/octo2sent/internal/model"
	"github.com/hejijunhao/octo2sent/internal/output"
)

// Config addresses one ingestion stream.
type Config struct {
	Endpoint   string // DCE logs ingestion URL
	RuleID     string // DCR immutable id, e.g. dcr-0123...
	StreamName string // e.g. Custom-OctopusEvents_CL
}

// uploader is the subset of *azlogs.Client used here.
type uploader interface {
	Upload(ctx context.Context, ruleID string, streamName string, logs []byte, options *azlogs.UploadOptions) (azlogs.UploadResponse, error)
}

// Option configures a sentinel Output.
type Option func(*settings)

type settings struct {
	cred          azcore.TokenCredential
	clientOptions *azlogs.ClientOptions
}

// WithCredential replaces the DefaultAzureCredential chain.
func WithCredential(cred azcore.TokenCredential) Option {
	return func(s *settings) { s.cred = cred }
}

// WithClientOptions passes options through to azlogs.NewClient.
func WithClientOptions(o *azlogs.ClientOptions) Option {
	return func(s *settings) { s.clientOptions = o }
}

// Output uploads each batch with a single Logs Ingestion API call.
type Output struct {
	client     uploader
	ruleID     string
	streamName string
}

// New creates an Output. Without WithCredential it resolves credentials
// through azidentity.DefaultAzureCredential, which picks up the managed
// identity when running in Azure.
func New(cfg Config, opts ...Option) (*Output, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.cred == nil {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("sentinel output: credential: %w", err)
		}
		s.cred = cred
	}

	client, err := azlogs.NewClient(cfg.Endpoint, s.cred, s.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("sentinel output: client: %w", err)
	}
	return &Output{client: client, ruleID: cfg.RuleID, streamName: cfg.StreamName}, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Endpoint == "" {
		errs = append(errs, errors.New("missing data collection endpoint"))
	}
	if c.RuleID == "" {
		errs = append(errs, errors.New("missing DCR rule id"))
	}
	if c.StreamName == "" {
		errs = append(errs, errors.New("missing DCR stream name"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("sentinel output: %w", errors.Join(errs...))
	}
	return nil
}

// Upload sends the whole batch as one JSON array. Errors from the service
// wrap *azcore.ResponseError.
func (o *Output) Upload(ctx context.Context, entries []model.LogEntry) error {
	body, err := output.MarshalBatch(entries)
	if err != nil {
		return fmt.Errorf("sentinel output: %w", err)
	}
	if _, err := o.client.Upload(ctx, o.ruleID, o.streamName, body, nil); err != nil {
		return fmt.Errorf("sentinel output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}

// LogSDKEvents routes Azure SDK request/response logging into logger at
// debug level. The listener is process-wide.
func LogSDKEvents(logger *slog.Logger) {
	azlog.SetEvents(azlog.EventRequest, azlog.EventResponse, azlog.EventResponseError, azlog.EventRetryPolicy)
	azlog.SetListener(func(ev azlog.Event, msg string) {
		logger.Debug(msg, "component", "azure-sdk", "sdk_event", string(ev))
	})
}
