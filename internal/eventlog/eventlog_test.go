package eventlog

import (
	"testing"
	"time"
)

func TestLog_RecentOrdersOldestToNewest(t *testing.T) {
	l := New(3)
	for i := 0; i < 5; i++ {
		l.Append(Entry{At: time.Now(), Name: string(rune('a' + i))})
	}

	entries := l.Recent(10)
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3 (capacity-bounded)", len(entries))
	}
	if entries[len(entries)-1].Name != "e" {
		t.Fatalf("newest entry = %q, want e", entries[len(entries)-1].Name)
	}
	if entries[0].Name != "c" {
		t.Fatalf("oldest surviving entry = %q, want c", entries[0].Name)
	}
}

func TestLog_RecentBeforeFull(t *testing.T) {
	l := New(5)
	l.Append(Entry{Name: "only"})

	entries := l.Recent(10)
	if len(entries) != 1 || entries[0].Name != "only" {
		t.Fatalf("entries = %+v", entries)
	}
}
