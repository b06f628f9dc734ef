package output

import (
	"context"

	"github.com/hejijunhao/octo2sent/internal/model"
)

// Output defines the interface for log entry destinations.
// Upload receives the whole batch of one invocation in a single call.
type Output interface {
	Upload(ctx context.Context, entries []model.LogEntry) error
	Close() error
}
