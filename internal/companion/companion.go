// Package companion implements the UDP passthrough interface (spec.md
// §4.10) that lets an external CLI tool submit raw device commands through
// the same Command Engine the gateway itself uses, and get the matched
// response(s) back as a reply datagram.
package companion

import (
	"context"
	"log"
	"net"
	"regexp"
	"time"

	"github.com/tamzrod/ema-gateway/internal/command"
)

// Config mirrors config.UDPSection.
type Config struct {
	RxPort         int
	TxPort         int
	MulticastGroup string
	MulticastPort  int
}

// Server listens for command datagrams on RxPort and replies on TxPort,
// submitting each request through the shared Command Engine so a UDP
// client and the gateway's own duties never race on the serial link.
type Server struct {
	cfg     Config
	cmds    *command.Engine
	respond command.Responder
	retries int
	timeout time.Duration
	logger  *log.Logger
	pattern *regexp.Regexp
}

func New(cfg Config, cmds *command.Engine, respond command.Responder, retries int, timeout time.Duration, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:     cfg,
		cmds:    cmds,
		respond: respond,
		retries: retries,
		timeout: timeout,
		logger:  logger,
		pattern: regexp.MustCompile(`^\([^)]*\)$`),
	}
}

// Run listens until ctx is cancelled. Each datagram is treated as one raw
// command frame; the reply (or a timeout/error marker) is sent back to the
// sender's address on TxPort.
func (s *Server) Run(ctx context.Context) error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: s.cfg.RxPort})
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 512)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Printf("companion: read: %v", err)
			continue
		}
		frame := append([]byte(nil), buf[:n]...)
		go s.handle(ctx, frame, addr)
	}
}

func (s *Server) handle(ctx context.Context, frame []byte, addr *net.UDPAddr) {
	cmd := command.NewCommand("udp-passthrough", frame, []*regexp.Regexp{s.pattern}, s.retries, s.timeout, s.respond)
	resCh := s.cmds.Submit(ctx, cmd)
	if resCh == nil {
		return
	}

	var reply []byte
	select {
	case res := <-resCh:
		if res.Err != nil {
			reply = []byte("(ERR)")
		} else if len(res.Responses) > 0 {
			reply = res.Responses[0]
		}
	case <-ctx.Done():
		return
	}

	if err := s.reply(addr, reply); err != nil {
		s.logger.Printf("companion: reply to %s: %v", addr, err)
	}
}

func (s *Server) reply(addr *net.UDPAddr, payload []byte) error {
	conn, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: addr.IP, Port: s.cfg.TxPort, Zone: addr.Zone})
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write(payload)
	return err
}
