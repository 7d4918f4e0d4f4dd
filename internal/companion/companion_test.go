package companion

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/tamzrod/ema-gateway/internal/command"
)

type fakeResponder struct{}

func (fakeResponder) Send(ctx context.Context, payload []byte) error { return nil }

func TestServer_PassesThroughToCommandEngine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := command.NewEngine(nil)
	go engine.Run(ctx)

	srv := New(Config{RxPort: 21801, TxPort: 21802}, engine, fakeResponder{}, 1, 200*time.Millisecond, nil)
	go srv.Run(ctx)
	time.Sleep(50 * time.Millisecond) // let the listener come up

	rx, err := net.ListenUDP("udp", &net.UDPAddr{Port: 21802})
	if err != nil {
		t.Fatalf("listen reply port: %v", err)
	}
	defer rx.Close()

	tx, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 21801})
	if err != nil {
		t.Fatalf("dial request port: %v", err)
	}
	defer tx.Close()

	if _, err := tx.Write([]byte("(K)")); err != nil {
		t.Fatalf("write: %v", err)
	}

	rx.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, _, err := rx.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if string(buf[:n]) != "(ERR)" {
		t.Fatalf("reply = %q, want (ERR) since nothing ever answers this request", buf[:n])
	}
}
