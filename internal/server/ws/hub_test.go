package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmfarina/betscan/internal/domain"
)

// stubBus hands each Subscribe call a buffered channel and lets the test
// feed events through Announce.
type stubBus struct {
	mu   sync.Mutex
	subs map[string]chan []byte
}

func newStubBus() *stubBus {
	return &stubBus{subs: map[string]chan []byte{}}
}

func (b *stubBus) Announce(ctx context.Context, channel string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	b.mu.Lock()
	ch := b.subs[channel]
	b.mu.Unlock()
	if ch != nil {
		ch <- payload
	}
	return nil
}

func (b *stubBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 8)
	b.mu.Lock()
	b.subs[channel] = ch
	b.mu.Unlock()
	return ch, nil
}

func (b *stubBus) StreamRead(ctx context.Context, stream, lastID string, count int) ([]domain.StreamMessage, error) {
	return nil, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return env
}

func TestHubBroadcastsBusEvents(t *testing.T) {
	bus := newStubBus()
	hub := NewHub(bus, func() any { return map[string]string{"mode": "scan"} }, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- hub.Run(ctx) }()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	if env := readEnvelope(t, conn); env.Type != "status" {
		t.Fatalf("greeting type = %q, want status", env.Type)
	}

	// Wait for the forwarder to subscribe before announcing.
	deadline := time.Now().Add(time.Second)
	for {
		bus.mu.Lock()
		_, ok := bus.subs[domain.ChannelSurebets]
		bus.mu.Unlock()
		if ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("hub never subscribed to surebets channel")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := bus.Announce(ctx, domain.ChannelSurebets, map[string]string{"id": "sb-1"}); err != nil {
		t.Fatalf("announce: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Type != domain.ChannelSurebets {
		t.Fatalf("frame type = %q, want %q", env.Type, domain.ChannelSurebets)
	}
	var got map[string]string
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got["id"] != "sb-1" {
		t.Fatalf("payload = %v", got)
	}
}

func TestHubShutdownReleasesClients(t *testing.T) {
	bus := newStubBus()
	hub := NewHub(bus, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- hub.Run(ctx) }()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()
	readEnvelope(t, conn) // greeting

	cancel()
	select {
	case err := <-runDone:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after cancel")
	}

	// The hub closed the client's send channel; the write pump turns that
	// into a close frame, so the next read must fail promptly rather than
	// hang on a wedged connection.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected read error after hub shutdown")
	}

	// Dropping the connection drives the read pump's unregister handoff,
	// which must not block now that the hub loop is gone.
	conn.Close()

	// A connection arriving after shutdown is refused without hanging the
	// handler.
	late := dialHub(t, srv)
	defer late.Close()
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := late.ReadMessage(); err == nil {
		t.Fatal("expected late connection to be closed")
	}
}
