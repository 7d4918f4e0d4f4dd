// Package serialio opens the serial link to the weather station controller
// and turns its byte stream into discrete CR-LF-terminated frames. It is
// the one place in the gateway that talks to github.com/goburrow/serial,
// promoted here from the teacher's indirect Modbus-RTU transport dependency
// to the gateway's own ASCII line framing.
package serialio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/goburrow/serial"
)

// maxFrameBytes bounds the accumulator so a device that never sends CR-LF
// cannot grow the buffer without limit (spec.md §4.1, edge case: "oversize
// frame without a terminator").
const maxFrameBytes = 4096

// Channel is a single-reader, single-writer line-framed connection to the
// controller. Outbound writes are paced so that no two writes start less
// than WritePace apart, matching the controller's own turnaround budget
// (spec.md §4.1, invariant 2).
type Channel struct {
	port      io.ReadWriteCloser
	logger    *log.Logger
	writePace time.Duration

	writeMu  sync.Mutex
	lastSend time.Time

	frames chan []byte
}

// Config describes the serial endpoint, mirrored one-to-one from
// config.SerialSection so this package does not import internal/config.
type Config struct {
	Endpoint  string
	BaudRate  int
	WritePace time.Duration
}

// Open opens the named serial endpoint with the controller's fixed framing
// (8 data bits, no parity, 1 stop bit) and starts the reader goroutine that
// feeds Frames(). The returned Channel must be closed with Close.
func Open(cfg Config, logger *log.Logger) (*Channel, error) {
	if logger == nil {
		logger = log.Default()
	}
	port, err := serial.Open(&serial.Config{
		Address:  cfg.Endpoint,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   "N",
		StopBits: 1,
		Timeout:  0,
	})
	if err != nil {
		return nil, fmt.Errorf("serialio: open %s: %w", cfg.Endpoint, err)
	}
	return newChannel(port, cfg.WritePace, logger), nil
}

// newChannel wires an already-open port; split out of Open so tests can
// supply an in-memory io.ReadWriteCloser instead of a real device.
func newChannel(port io.ReadWriteCloser, writePace time.Duration, logger *log.Logger) *Channel {
	c := &Channel{
		port:      port,
		logger:    logger,
		writePace: writePace,
		frames:    make(chan []byte, 16),
	}
	go c.readLoop()
	return c
}

// Frames returns the channel of complete, delimiter-stripped frames. It is
// closed when the reader goroutine exits (on a read error or port close).
func (c *Channel) Frames() <-chan []byte {
	return c.frames
}

// Send transmits payload, blocking until WritePace has elapsed since the
// previous send. It implements command.Responder so the Command Engine can
// use a Channel directly.
func (c *Channel) Send(ctx context.Context, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if wait := c.writePace - time.Since(c.lastSend); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	_, err := c.port.Write(payload)
	c.lastSend = time.Now()
	if err != nil {
		return fmt.Errorf("serialio: write: %w", err)
	}
	return nil
}

// Close closes the underlying port, which unblocks the reader goroutine.
func (c *Channel) Close() error {
	return c.port.Close()
}

func (c *Channel) readLoop() {
	defer close(c.frames)

	var acc bytes.Buffer
	buf := make([]byte, 256)

	for {
		n, err := c.port.Read(buf)
		if n > 0 {
			c.consume(&acc, buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				c.logger.Printf("serialio: read error: %v", err)
			}
			return
		}
	}
}

// consume appends chunk to acc, slicing off and emitting one frame per
// CR-LF found. Once more than maxFrameBytes bytes have accumulated without
// a terminator, those bytes are logged and dropped and framing resumes with
// the bytes that follow (spec.md §4.1).
func (c *Channel) consume(acc *bytes.Buffer, chunk []byte) {
	acc.Write(chunk)

	for {
		data := acc.Bytes()
		idx := bytes.Index(data, []byte("\r\n"))
		if idx > maxFrameBytes || (idx < 0 && len(data) > maxFrameBytes) {
			prefix := data
			if len(prefix) > 64 {
				prefix = prefix[:64]
			}
			c.logger.Printf("serialio: WARNING: frame exceeded %d bytes without a terminator, dropping; prefix=%q", maxFrameBytes, prefix)
			acc.Next(maxFrameBytes + 1)
			continue
		}
		if idx < 0 {
			break
		}
		frame := make([]byte, idx)
		copy(frame, data[:idx])
		rest := make([]byte, len(data)-idx-2)
		copy(rest, data[idx+2:])
		acc.Reset()
		acc.Write(rest)

		if len(frame) > 0 {
			c.frames <- frame
		}
	}
}
