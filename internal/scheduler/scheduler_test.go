package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestScheduler_FiresDutyOnItsOwnCadence(t *testing.T) {
	var mu sync.Mutex
	var calls int

	s := New(5*time.Millisecond, []Duty{
		{Name: "fast", Every: 10 * time.Millisecond, Run: func(ctx context.Context, now time.Time) {
			mu.Lock()
			calls++
			mu.Unlock()
		}},
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if calls < 3 || calls > 7 {
		t.Fatalf("calls = %d, want roughly 5 over 55ms at a 10ms cadence", calls)
	}
}

func TestSelectRole(t *testing.T) {
	if got := SelectRole(context.Background(), true, nil); got != RoleSlave {
		t.Errorf("host RTC present: got %v, want slave", got)
	}
	reachable := func(ctx context.Context) bool { return true }
	if got := SelectRole(context.Background(), false, reachable); got != RoleSlave {
		t.Errorf("internet reachable: got %v, want slave", got)
	}
	unreachable := func(ctx context.Context) bool { return false }
	if got := SelectRole(context.Background(), false, unreachable); got != RoleMaster {
		t.Errorf("no rtc, no internet: got %v, want master", got)
	}
}
