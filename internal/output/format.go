package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hejijunhao/octo2sent/internal/model"
)

// MarshalBatch encodes entries as a single JSON array. A nil slice encodes as "[]".
func MarshalBatch(entries []model.LogEntry) ([]byte, error) {
	if entries == nil {
		entries = []model.LogEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}
	return data, nil
}

// WriteNDJSON writes one JSON object per line and returns the bytes written.
func WriteNDJSON(w io.Writer, entries []model.LogEntry) (int64, error) {
	var written int64
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return written, fmt.Errorf("marshal entry %s: %w", e.EventID, err)
		}
		data = append(data, '\n')
		n, err := w.Write(data)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
