package publish

import (
	"fmt"
	"io"
	"log"

	"github.com/tamzrod/ema-gateway/internal/instrument"
)

// HTMLSink is a minimal stand-in for the legacy HTML status-page renderer
// (spec.md §6, non-goal: "rendering the HTML page itself is out of scope").
// It writes one line per publish so the render step can be swapped in later
// without touching the fan-out logic in Fanout.
type HTMLSink struct {
	w      io.Writer
	logger *log.Logger
}

func NewHTMLSink(w io.Writer, logger *log.Logger) *HTMLSink {
	if logger == nil {
		logger = log.Default()
	}
	return &HTMLSink{w: w, logger: logger}
}

func (h *HTMLSink) WriteCurrent(channel string, s instrument.Snapshot) {
	if _, err := fmt.Fprintf(h.w, "%s current=%v average=%v unit=%s missing=%v\n",
		channel, s.Current, s.Average, s.Unit, s.Missing); err != nil {
		h.logger.Printf("publish: html sink write: %v", err)
	}
}
