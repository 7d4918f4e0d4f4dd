// Package script launches external scripts in response to alarms and relay
// events, per spec.md §7. Modes mirror the original device's
// Never/Once/Many notifier (original_source/ema/scripts.py: MODES =
// {'Never': NEVER, 'Once': ONCE, 'Many': MANY}).
package script

import (
	"fmt"
	"log"
	"os/exec"
	"sync"
)

// Mode is one of Never/Once/Many.
type Mode int

const (
	Never Mode = iota
	Once
	Many
)

// Entry is one configured (path, mode) launch target for a named alarm.
type Entry struct {
	Name string
	Path string
	Mode Mode
}

// Launcher tracks, per alarm name, whether its Once-mode script has already
// fired and whether its Many-mode script is still running, so a fast
// sequence of the same alarm cannot overlap two invocations (spec.md §7,
// edge case: "an alarm re-fires while its script from the previous firing
// is still running").
type Launcher struct {
	mu      sync.Mutex
	fired   map[string]bool
	running map[string]bool
	logger  *log.Logger
	run     func(name string, args []string) error
}

func New(logger *log.Logger) *Launcher {
	if logger == nil {
		logger = log.Default()
	}
	l := &Launcher{
		fired:   make(map[string]bool),
		running: make(map[string]bool),
		logger:  logger,
	}
	l.run = l.execCommand
	return l
}

// Launch fires entry's script with args if its mode allows it right now.
// It returns immediately; the script runs in its own goroutine.
func (l *Launcher) Launch(entry Entry, args []string) {
	if entry.Mode == Never || entry.Path == "" {
		return
	}

	l.mu.Lock()
	if entry.Mode == Once && l.fired[entry.Name] {
		l.mu.Unlock()
		return
	}
	if entry.Mode == Many && l.running[entry.Name] {
		l.mu.Unlock()
		return
	}
	l.fired[entry.Name] = true
	l.running[entry.Name] = true
	l.mu.Unlock()

	go func() {
		defer func() {
			l.mu.Lock()
			l.running[entry.Name] = false
			l.mu.Unlock()
		}()
		if err := l.run(entry.Path, args); err != nil {
			l.logger.Printf("script: %s (%s): %v", entry.Name, entry.Path, err)
		}
	}()
}

func (l *Launcher) execCommand(path string, args []string) error {
	cmd := exec.Command(path, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
