package publish

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tamzrod/ema-gateway/internal/instrument"
)

func TestNewCurrentStatePayload(t *testing.T) {
	at := time.Now()
	s := instrument.Snapshot{Current: 12.3, Average: 12.1, Unit: "V", At: at}
	p := NewCurrentStatePayload("ema-gateway", "voltmeter", s)

	if p.Channel != "voltmeter" || p.Current != 12.3 || p.Unit != "V" {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if p.Rev != schemaRev {
		t.Errorf("Rev = %d, want %d", p.Rev, schemaRev)
	}
}

func TestHTMLSink_WriteCurrent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewHTMLSink(&buf, nil)

	sink.WriteCurrent("voltmeter", instrument.Snapshot{Current: 12.5, Unit: "V"})

	if got := buf.String(); !strings.Contains(got, "voltmeter") || !strings.Contains(got, "12.5") {
		t.Fatalf("unexpected html sink output: %q", got)
	}
}

func TestTopicNames(t *testing.T) {
	if RegisterTopic() != "EMA/register" {
		t.Errorf("RegisterTopic = %q", RegisterTopic())
	}
	if got := EventsTopic("ch1"); got != "EMA/ch1/events" {
		t.Errorf("EventsTopic = %q", got)
	}
	if got := CurrentTopic("ch1"); got != "EMA/ch1/current/state" {
		t.Errorf("CurrentTopic = %q", got)
	}
}
