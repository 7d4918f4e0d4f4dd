// Package command implements the serial protocol engine's command/response
// state machine described in spec.md §4.3: a single in-flight list shared
// by every requester, matched against inbound frames in submission order,
// with bounded retries and a per-command deadline.
package command

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// State is one of the four states a Command moves through.
type State int

const (
	Pending State = iota
	InFlight
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case InFlight:
		return "INFLIGHT"
	case Done:
		return "DONE"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Responder is the capability a Command writes its request through. The
// serial channel (serialio.Channel) is the concrete implementation; the UDP
// companion submits its commands through that same channel and sends its
// reply datagram itself once the Result arrives.
type Responder interface {
	Send(ctx context.Context, payload []byte) error
}

// Result is delivered on a Command's result channel exactly once, when the
// command reaches Done or Failed.
type Result struct {
	Responses [][]byte
	State     State
	Err       error
}

// Command is the single shared definition used for every request the
// gateway issues, whether it originates from the Sync Engine, the
// Scheduler, or a passthrough UDP datagram.
type Command struct {
	ID        uuid.UUID
	Name      string
	Request   []byte
	Patterns  []*regexp.Regexp
	Retries   int
	Timeout   time.Duration
	Responder Responder

	resultCh chan Result

	state    State
	attempt  int
	idx      int
	deadline time.Time
	responses [][]byte
}

// NewCommand constructs a Command ready for Submit. retries is the number
// of retransmissions after the first attempt (spec.md §4.3: total attempts
// = retries + 1).
func NewCommand(name string, request []byte, patterns []*regexp.Regexp, retries int, timeout time.Duration, responder Responder) *Command {
	return &Command{
		ID:        uuid.New(),
		Name:      name,
		Request:   request,
		Patterns:  patterns,
		Retries:   retries,
		Timeout:   timeout,
		Responder: responder,
		resultCh:  make(chan Result, 1),
		state:     Pending,
	}
}

// Attempts returns how many times the request has been transmitted so far.
// Used by tests to check the retry-bound invariant (spec.md §8, invariant 4).
func (c *Command) Attempts() int {
	return c.attempt
}
