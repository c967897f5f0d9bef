package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressCallback defines the interface for progress reporting
type ProgressCallback interface {
	Start(total int)
	Update(title string, detail string)
	Finish()
}

// ProgressReporter draws a progress bar while conversations are formatted
type ProgressReporter struct {
	writer    io.Writer
	total     int
	current   int
	startTime time.Time
	lastMsg   string
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(w io.Writer) *ProgressReporter {
	return &ProgressReporter{
		writer:    w,
		startTime: time.Now(),
	}
}

// Start resets the reporter for a run over total conversations
func (p *ProgressReporter) Start(total int) {
	p.total = total
	p.current = 0
	p.startTime = time.Now()
}

// Update advances the progress bar by one conversation
func (p *ProgressReporter) Update(title string, detail string) {
	p.current++
	if p.total <= 0 {
		return
	}

	pct := float64(p.current) / float64(p.total) * 100

	// Draw progress bar (40 chars wide)
	barWidth := 40
	filled := int(float64(barWidth) * float64(p.current) / float64(p.total))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	// Truncate display text to fit terminal
	displayText := title
	if detail != "" {
		displayText += " (" + detail + ")"
	}
	if runes := []rune(displayText); len(runes) > 50 {
		displayText = string(runes[:47]) + "..."
	}

	// Calculate ETA
	eta := time.Duration(0)
	if elapsed := time.Since(p.startTime); elapsed > 0 {
		rate := float64(p.current) / elapsed.Seconds()
		eta = time.Duration(float64(p.total-p.current)/rate) * time.Second
	}

	// Pad to clear leftovers from a longer previous line
	line := fmt.Sprintf("[%s] %3.0f%% (%d/%d) ETA: %s | %s",
		bar, pct, p.current, p.total, eta.Round(time.Second), displayText)
	if pad := len(p.lastMsg) - len(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	_, _ = fmt.Fprintf(p.writer, "\r%s", line)

	p.lastMsg = line
}

// Finish completes the progress display
func (p *ProgressReporter) Finish() {
	elapsed := time.Since(p.startTime)
	_, _ = fmt.Fprintf(p.writer, "\nCompleted: processed %d conversations in %s\n", p.current, elapsed.Round(time.Millisecond))
}
