package formatter

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressReporter(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)

	p.Start(2)
	p.Update("First conversation", "3 messages")
	p.Update(strings.Repeat("very long title ", 10), "")
	p.Finish()

	out := buf.String()
	if !strings.Contains(out, "(1/2)") || !strings.Contains(out, "(2/2)") {
		t.Errorf("progress output missing counters: %q", out)
	}
	if !strings.Contains(out, "First conversation (3 messages)") {
		t.Errorf("progress output missing title: %q", out)
	}
	if !strings.Contains(out, "...") {
		t.Errorf("long title not truncated: %q", out)
	}
	if !strings.Contains(out, "processed 2 conversations") {
		t.Errorf("missing completion line: %q", out)
	}
}

func TestProgressReporter_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)

	p.Start(0)
	p.Update("ignored", "")
	p.Finish()

	if strings.Contains(buf.String(), "[") {
		t.Errorf("progress bar drawn for empty run: %q", buf.String())
	}
}
