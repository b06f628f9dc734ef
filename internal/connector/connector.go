package connector

import (
	"context"
	"time"

	"github.com/hejijunhao/octo2sent/internal/model"
)

// Connector defines the interface event source connectors implement.
type Connector interface {
	// Query fetches every event inside the lookback window, in API order.
	Query(ctx context.Context, cfg ConnectorConfig, params QueryParams) ([]model.Event, error)
}

// ConnectorConfig holds provider-specific connection settings.
type ConnectorConfig struct {
	Provider string
	APIKey   string
	Endpoint string
	Extra    map[string]string
}

// QueryParams bounds a query.
type QueryParams struct {
	Lookback time.Duration
}
