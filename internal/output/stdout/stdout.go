package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hejijunhao/octo2sent/internal/model"
)

// Output writes JSON-encoded log entries to stdout, one per line.
// Used for dry runs in place of the ingestion endpoint.
type Output struct {
	enc *json.Encoder
}

// New creates a new stdout Output with optional pretty-printed JSON.
func New(pretty bool) *Output {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{enc: enc}
}

func (o *Output) Upload(_ context.Context, entries []model.LogEntry) error {
	for _, e := range entries {
		if err := o.enc.Encode(e); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
