// Package syncengine performs the startup parameter reconciliation
// described in spec.md §4.6: for every instrument whose config section has
// sync=true, get the device's current value of a parameter, compare it
// against the configured value, and set+re-verify it if they differ. It
// reuses the shared Command Engine rather than talking to the serial link
// directly.
package syncengine

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/tamzrod/ema-gateway/internal/command"
)

// Param is one device-side setting the engine can reconcile: a GET request
// pattern-matched by getPattern, and a SET request built from the
// configured value, pattern-matched by setPattern once transmitted.
type Param struct {
	Name       string
	Want       float64
	GetRequest []byte
	GetPattern *regexp.Regexp
	// BuildSet renders the SET request for the wanted value.
	BuildSet func(want float64) []byte
	SetPattern *regexp.Regexp
	// Parse extracts the numeric value the device reports from a matched
	// GET or SET response.
	Parse func(resp []byte) (float64, error)
}

// Engine reconciles a list of Params against the device on startup.
type Engine struct {
	cmds      *command.Engine
	responder command.Responder
	retries   int
	timeout   time.Duration
	logger    *log.Logger
}

func New(cmds *command.Engine, responder command.Responder, retries int, timeout time.Duration, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{cmds: cmds, responder: responder, retries: retries, timeout: timeout, logger: logger}
}

// Reconcile runs get->compare->set->re-verify for every param in order,
// stopping at the first failure and returning it. The re-verify step checks
// the value the device echoes in its SET response. Callers log the error
// and carry on; startup is not aborted.
func (e *Engine) Reconcile(ctx context.Context, params []Param) error {
	for _, p := range params {
		if err := e.reconcileOne(ctx, p); err != nil {
			return fmt.Errorf("syncengine: %s: %w", p.Name, err)
		}
	}
	return nil
}

func (e *Engine) reconcileOne(ctx context.Context, p Param) error {
	got, err := e.get(ctx, p)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if got == p.Want {
		e.logger.Printf("syncengine: %s already at %v, no set needed", p.Name, p.Want)
		return nil
	}

	e.logger.Printf("syncengine: %s device=%v config=%v, setting", p.Name, got, p.Want)
	setResp, err := e.roundTrip(ctx, p.Name+":set", p.BuildSet(p.Want), []*regexp.Regexp{p.SetPattern})
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}
	confirmed, err := p.Parse(setResp[0])
	if err != nil {
		return fmt.Errorf("set: parse response: %w", err)
	}
	if confirmed != p.Want {
		return fmt.Errorf("set: device reports %v after set, want %v", confirmed, p.Want)
	}
	return nil
}

func (e *Engine) get(ctx context.Context, p Param) (float64, error) {
	responses, err := e.roundTrip(ctx, p.Name+":get", p.GetRequest, []*regexp.Regexp{p.GetPattern})
	if err != nil {
		return 0, err
	}
	return p.Parse(responses[0])
}

func (e *Engine) roundTrip(ctx context.Context, name string, request []byte, patterns []*regexp.Regexp) ([][]byte, error) {
	cmd := command.NewCommand(name, request, patterns, e.retries, e.timeout, e.responder)
	resCh := e.cmds.Submit(ctx, cmd)
	if resCh == nil {
		return nil, ctx.Err()
	}
	select {
	case res := <-resCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Responses, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
