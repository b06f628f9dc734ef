package multi

import (
	"context"
	"errors"

	"github.com/hejijunhao/octo2sent/internal/model"
	"github.com/hejijunhao/octo2sent/internal/output"
)

// Multi fans out a batch to multiple output.Output implementations.
// Each Upload call delivers the batch to every wrapped output sequentially.
// If one output fails, the remaining outputs still receive the batch.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi that fans out to the given outputs.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// Upload delivers the batch to every wrapped output. Errors are collected
// but do not prevent delivery to subsequent outputs.
func (m *Multi) Upload(ctx context.Context, entries []model.LogEntry) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Upload(ctx, entries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
