package tod

import (
	"testing"
	"time"

	"github.com/tamzrod/ema-gateway/internal/config"
)

func at(hh, mm int) time.Time {
	return time.Date(2026, 1, 1, hh, mm, 0, 0, time.UTC)
}

func TestEvaluator_EntersAndLeavesWindow(t *testing.T) {
	e := New([]config.TODInterval{{StartMinute: 22 * 60, EndMinute: 23*60 + 30}})

	tr := e.Evaluate(at(21, 59))
	if tr.Active || tr.Entered {
		t.Fatalf("21:59 should be outside the window: %+v", tr)
	}

	tr = e.Evaluate(at(22, 0))
	if !tr.Active || !tr.Entered {
		t.Fatalf("22:00 should enter the window: %+v", tr)
	}

	tr = e.Evaluate(at(22, 30))
	if !tr.Active || tr.Entered {
		t.Fatalf("22:30 should be inside without a fresh Entered edge: %+v", tr)
	}

	tr = e.Evaluate(at(23, 30))
	if tr.Active || !tr.Left {
		t.Fatalf("23:30 (exclusive end) should leave the window: %+v", tr)
	}
}

func TestEvaluator_MultipleWindows(t *testing.T) {
	e := New([]config.TODInterval{
		{StartMinute: 0, EndMinute: 60},
		{StartMinute: 12 * 60, EndMinute: 13 * 60},
	})

	if !e.Evaluate(at(0, 30)).Active {
		t.Errorf("00:30 should be active")
	}
	if e.Evaluate(at(6, 0)).Active {
		t.Errorf("06:00 should be inactive")
	}
	if !e.Evaluate(at(12, 30)).Active {
		t.Errorf("12:30 should be active")
	}
}
