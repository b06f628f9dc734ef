package octopus

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hejijunhao/octo2sent/internal/connector"
	"github.com/hejijunhao/octo2sent/internal/connector/httpclient"
	"github.com/hejijunhao/octo2sent/internal/metrics"
	"github.com/hejijunhao/octo2sent/internal/model"
)

// Provider is the registry name of this connector.
const Provider = "octopus"

const (
	apiKeyHeader    = "X-Octopus-ApiKey"
	defaultPageSize = 1000
	defaultLookback = time.Hour
	fromLayout      = "01/02/2006" // MM/DD/YYYY
)

func init() {
	connector.Register(Provider, func() connector.Connector {
		return New()
	})
}

// Option configures a Connector.
type Option func(*Connector)

// WithPageSize sets the "take" value per request. Default: 1000.
func WithPageSize(n int) Option {
	return func(c *Connector) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithClock overrides the time source used for the from-date.
func WithClock(now func() time.Time) Option {
	return func(c *Connector) { c.now = now }
}

// Connector pages through the Octopus Deploy events API of one space.
type Connector struct {
	pageSize int
	now      func() time.Time
}

// New creates an Octopus connector.
func New(opts ...Option) *Connector {
	c := &Connector{
		pageSize: defaultPageSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromDate returns the "from" query value for a lookback window ending at now.
// The API only takes a calendar date, so the window is widened to midnight UTC.
func FromDate(now time.Time, lookback time.Duration) string {
	return now.UTC().Add(-lookback).Format(fromLayout)
}

// Query fetches all events since now-params.Lookback. Pages are requested
// with an increasing skip until a page shorter than the page size arrives.
// Any request failure aborts the whole query.
func (c *Connector) Query(ctx context.Context, cfg connector.ConnectorConfig, params connector.QueryParams) ([]model.Event, error) {
	spaceID := cfg.Extra["space_id"]
	if spaceID == "" {
		return nil, fmt.Errorf("octopus connector: missing required config key \"space_id\" in Extra")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("octopus connector: missing endpoint")
	}

	opts := []httpclient.Option{httpclient.WithHeader(apiKeyHeader, cfg.APIKey)}
	if raw := cfg.Extra["timeout"]; raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			opts = append(opts, httpclient.WithTimeout(d))
		}
	}
	client := httpclient.New(strings.TrimRight(cfg.Endpoint, "/"), opts...)
	path := "/api/" + url.PathEscape(spaceID) + "/events"

	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultLookback
	}
	from := FromDate(c.now(), lookback)

	results := []model.Event{}
	for skip := 0; ; skip += c.pageSize {
		q := url.Values{}
		q.Set("from", from)
		q.Set("take", strconv.Itoa(c.pageSize))
		q.Set("skip", strconv.Itoa(skip))

		var page model.EventPage
		if err := client.GetJSON(ctx, path, q, &page); err != nil {
			return nil, fmt.Errorf("octopus connector: %w", err)
		}
		metrics.PagesFetched.Inc()

		results = append(results, page.Items...)
		if len(page.Items) < c.pageSize {
			break
		}
	}

	return results, nil
}
