package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hejijunhao/octo2sent/internal/model"
)

func testEntries() []model.LogEntry {
	return []model.LogEntry{
		{Time: "2026-03-04T10:00:00Z", EventID: "Events-1", Category: "DeploymentStarted"},
		{Time: "2026-03-04T10:05:00Z", EventID: "Events-2", Category: "DeploymentSucceeded", ProjectName: "Web"},
	}
}

func TestMarshalBatch(t *testing.T) {
	data, err := MarshalBatch(testEntries())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []model.LogEntry
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("expected JSON array, got %s", data)
	}
	if len(got) != 2 || got[1].ProjectName != "Web" {
		t.Fatalf("unexpected decoded batch: %+v", got)
	}
}

func TestMarshalBatch_Nil(t *testing.T) {
	data, err := MarshalBatch(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected [], got %s", data)
	}
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteNDJSON(&buf, testEntries())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("reported %d bytes, buffer holds %d", n, buf.Len())
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for i, line := range lines {
		var e model.LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Errorf("line %d: invalid JSON: %v", i, err)
		}
	}
}
