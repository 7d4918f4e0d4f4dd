package command

import (
	"context"
	"log"
	"time"
)

// DefaultMaxInFlight is N_MAX from spec.md §4.3: the most commands the
// engine will track concurrently before rejecting new submissions.
const DefaultMaxInFlight = 1

// Hooks lets an observer (the diagnostics surface's Prometheus counters, in
// practice) learn about engine activity without the command package having
// to import a metrics library itself.
type Hooks struct {
	OnSubmit  func(name string)
	OnRetry   func(name string, attempt int)
	OnDone    func(name string, d time.Duration)
	OnFailed  func(name string, err error)
	OnDropped func(frame []byte)
}

// Engine is the single in-flight command list described in spec.md §4.3. A
// single goroutine (Run) owns every mutable field of every Command it
// tracks, so no mutex guards the in-flight list; Submit and Deliver hand
// work to that goroutine over channels instead.
type Engine struct {
	maxInFlight int
	logger      *log.Logger
	hooks       Hooks

	submitCh chan *Command
	frameCh  chan []byte

	onBulletin func(frame []byte)

	inflight []*Command
}

// Option configures an Engine at construction time.
type Option func(*Engine)

func WithMaxInFlight(n int) Option {
	return func(e *Engine) { e.maxInFlight = n }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithHooks(h Hooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// NewEngine builds an Engine. onBulletin is invoked, from the Run
// goroutine, for every inbound frame that does not match any in-flight
// command's next expected pattern; the engine does not check the frame's
// shape itself, so recognizing a real status bulletin is left to
// onBulletin. When onBulletin is nil, unmatched frames are logged and
// dropped.
func NewEngine(onBulletin func(frame []byte), opts ...Option) *Engine {
	e := &Engine{
		maxInFlight: DefaultMaxInFlight,
		logger:      log.Default(),
		submitCh:    make(chan *Command),
		frameCh:     make(chan []byte, 16),
		onBulletin:  onBulletin,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit enqueues cmd for transmission and returns a channel that receives
// exactly one Result once the command reaches Done or Failed. Submit itself
// never blocks on engine internals beyond handing the command to Run's
// select loop; if ctx is cancelled before Run accepts it, Submit returns nil
// and the command is never transmitted.
func (e *Engine) Submit(ctx context.Context, cmd *Command) <-chan Result {
	select {
	case e.submitCh <- cmd:
		return cmd.resultCh
	case <-ctx.Done():
		return nil
	}
}

// Deliver hands one inbound frame from the serial channel (or UDP
// companion) to the engine's dispatch loop. It blocks only as long as it
// takes Run to drain its frame queue.
func (e *Engine) Deliver(ctx context.Context, frame []byte) {
	select {
	case e.frameCh <- frame:
	case <-ctx.Done():
	}
}

// Run drives the command state machine until ctx is cancelled. It must run
// in exactly one goroutine for the lifetime of the Engine.
func (e *Engine) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		e.resetTimer(timer)

		select {
		case <-ctx.Done():
			e.drain(ctx.Err())
			return

		case cmd := <-e.submitCh:
			e.handleSubmit(ctx, cmd)

		case frame := <-e.frameCh:
			e.handleFrame(frame)

		case <-timer.C:
			e.handleTimeout()
		}
	}
}

func (e *Engine) resetTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	deadline, ok := e.nextDeadline()
	if !ok {
		timer.Reset(time.Hour)
		return
	}
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	timer.Reset(d)
}

func (e *Engine) nextDeadline() (time.Time, bool) {
	var best time.Time
	found := false
	for _, c := range e.inflight {
		if !found || c.deadline.Before(best) {
			best = c.deadline
			found = true
		}
	}
	return best, found
}

func (e *Engine) handleSubmit(ctx context.Context, cmd *Command) {
	if len(e.inflight) >= e.maxInFlight {
		cmd.state = Failed
		cmd.resultCh <- Result{State: Failed, Err: errTooManyInFlight}
		return
	}

	cmd.state = InFlight
	cmd.attempt = 1
	cmd.idx = 0
	cmd.deadline = time.Now().Add(cmd.Timeout)
	e.inflight = append(e.inflight, cmd)

	if e.hooks.OnSubmit != nil {
		e.hooks.OnSubmit(cmd.Name)
	}
	if err := cmd.Responder.Send(ctx, cmd.Request); err != nil {
		e.fail(cmd, err)
	}
}

func (e *Engine) handleFrame(frame []byte) {
	// First-submitted-wins tie-break: scan in insertion order (spec.md §4.3,
	// invariant 3) and only ever test the next pattern a command expects.
	for _, cmd := range e.inflight {
		if cmd.idx >= len(cmd.Patterns) {
			continue
		}
		if cmd.Patterns[cmd.idx].Match(frame) {
			cmd.responses = append(cmd.responses, frame)
			cmd.idx++
			if cmd.idx == len(cmd.Patterns) {
				e.complete(cmd)
			}
			return
		}
	}

	if e.onBulletin != nil {
		e.onBulletin(frame)
		return
	}
	if e.hooks.OnDropped != nil {
		e.hooks.OnDropped(frame)
	}
	e.logger.Printf("command: dropped unmatched frame: %q", frame)
}

func (e *Engine) handleTimeout() {
	now := time.Now()
	for _, cmd := range e.inflight {
		if cmd.deadline.After(now) {
			continue
		}
		if cmd.attempt > cmd.Retries {
			e.fail(cmd, errTimeout)
			continue
		}
		cmd.attempt++
		cmd.idx = 0
		cmd.responses = nil
		cmd.deadline = now.Add(cmd.Timeout)
		if e.hooks.OnRetry != nil {
			e.hooks.OnRetry(cmd.Name, cmd.attempt)
		}
		if err := cmd.Responder.Send(context.Background(), cmd.Request); err != nil {
			e.fail(cmd, err)
		}
	}
	e.inflight = e.removeFailed(e.inflight)
}

func (e *Engine) complete(cmd *Command) {
	cmd.state = Done
	cmd.resultCh <- Result{State: Done, Responses: cmd.responses}
	e.inflight = e.removeOne(e.inflight, cmd)
	if e.hooks.OnDone != nil {
		e.hooks.OnDone(cmd.Name, cmd.Timeout)
	}
}

func (e *Engine) fail(cmd *Command, err error) {
	if cmd.state == Failed {
		return
	}
	cmd.state = Failed
	cmd.resultCh <- Result{State: Failed, Err: err}
	if e.hooks.OnFailed != nil {
		e.hooks.OnFailed(cmd.Name, err)
	}
}

func (e *Engine) removeOne(list []*Command, target *Command) []*Command {
	out := list[:0]
	for _, c := range list {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) removeFailed(list []*Command) []*Command {
	out := list[:0]
	for _, c := range list {
		if c.state != Failed {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) drain(err error) {
	for _, c := range e.inflight {
		e.fail(c, err)
	}
	e.inflight = nil
}
