package command

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"
)

type fakeResponder struct {
	mu    sync.Mutex
	sends int
	fail  bool
}

func (f *fakeResponder) Send(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("fake responder: write failed")
	}
	f.sends++
	return nil
}

func (f *fakeResponder) Sends() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

func TestEngine_SubmitAndMatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := NewEngine(nil)
	go e.Run(ctx)

	responder := &fakeResponder{}
	cmd := NewCommand("(k)", []byte("(k)\r\n"), []*regexp.Regexp{regexp.MustCompile(`^\(K\d+\)$`)}, 2, 100*time.Millisecond, responder)

	resCh := e.Submit(ctx, cmd)
	if resCh == nil {
		t.Fatalf("Submit returned nil channel")
	}

	e.Deliver(ctx, []byte("(K001)"))

	select {
	case res := <-resCh:
		if res.State != Done {
			t.Fatalf("state = %v, want Done", res.State)
		}
		if len(res.Responses) != 1 {
			t.Fatalf("responses = %d, want 1", len(res.Responses))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}

	if responder.Sends() != 1 {
		t.Fatalf("sends = %d, want 1 (no retry expected on a match)", responder.Sends())
	}
}

func TestEngine_RetriesThenFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := NewEngine(nil)
	go e.Run(ctx)

	responder := &fakeResponder{}
	cmd := NewCommand("(k)", []byte("(k)\r\n"), []*regexp.Regexp{regexp.MustCompile(`^\(K\d+\)$`)}, 2, 20*time.Millisecond, responder)

	resCh := e.Submit(ctx, cmd)

	select {
	case res := <-resCh:
		if res.State != Failed {
			t.Fatalf("state = %v, want Failed", res.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for failure")
	}

	if got := responder.Sends(); got != 3 {
		t.Fatalf("sends = %d, want 3 (1 initial + 2 retries)", got)
	}
}

func TestEngine_RejectsBeyondMaxInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := NewEngine(nil, WithMaxInFlight(1))
	go e.Run(ctx)

	responder := &fakeResponder{}
	blocking := NewCommand("(a)", []byte("(a)\r\n"), []*regexp.Regexp{regexp.MustCompile(`^\(A\)$`)}, 0, time.Second, responder)
	e.Submit(ctx, blocking)

	second := NewCommand("(b)", []byte("(b)\r\n"), []*regexp.Regexp{regexp.MustCompile(`^\(B\)$`)}, 0, time.Second, responder)
	resCh := e.Submit(ctx, second)

	select {
	case res := <-resCh:
		if res.State != Failed {
			t.Fatalf("state = %v, want Failed", res.State)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for rejection")
	}
}

func TestEngine_UnmatchedFrameGoesToBulletinHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []byte
	done := make(chan struct{})
	e := NewEngine(func(frame []byte) {
		got = frame
		close(done)
	})
	go e.Run(ctx)

	e.Deliver(ctx, []byte("(bulletin-shaped-frame)"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bulletin callback")
	}

	if string(got) != "(bulletin-shaped-frame)" {
		t.Fatalf("got = %q", got)
	}
}
