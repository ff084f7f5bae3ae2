package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

// capturePayload decodes the request body into a map behind a mutex so
// the test goroutine can read it after the call returns.
type capturePayload struct {
	mu  sync.Mutex
	got map[string]string
}

func (c *capturePayload) handle(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := json.NewDecoder(r.Body).Decode(&c.got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (c *capturePayload) field(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.got[key]
}

func TestDiscordSenderPostsContent(t *testing.T) {
	var rec capturePayload
	srv := httptest.NewServer(rec.handle(t))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	if err := s.Send(context.Background(), "Surebet 1.92%", "details"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := rec.field("content"); !strings.HasPrefix(got, "**Surebet 1.92%**\n") {
		t.Errorf("content = %q", got)
	}
}

func TestDiscordSenderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid webhook", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	err := s.Send(context.Background(), "t", "m")
	if err == nil {
		t.Fatal("expected error on 401")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestTelegramSenderClipsLongMessage(t *testing.T) {
	var rec capturePayload
	inner := rec.handle(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("path = %q", r.URL.Path)
		}
		inner(w, r)
	}))
	defer srv.Close()

	s := NewTelegramSender("token", "chat")
	s.api = srv.URL

	long := strings.Repeat("leg line\n", 1000)
	if err := s.Send(context.Background(), "Surebet", long); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if text := rec.field("text"); len(text) > telegramTextLimit {
		t.Errorf("text length = %d, want <= %d", len(text), telegramTextLimit)
	}
	if rec.field("disable_web_page_preview") != "true" {
		t.Errorf("previews not disabled")
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		in  string
		max int
	}{
		{"short", 10},
		{"exactly10!", 10},
		{"this one is longer than the limit", 10},
		{"héllo wörld with multibyte runes", 12},
	}
	for _, tt := range tests {
		out := clip(tt.in, tt.max)
		if len(out) > tt.max {
			t.Errorf("clip(%q, %d) = %q, exceeds limit", tt.in, tt.max, out)
		}
		if !utf8.ValidString(out) {
			t.Errorf("clip(%q, %d) = %q, broken utf-8", tt.in, tt.max, out)
		}
		if len(tt.in) <= tt.max && out != tt.in {
			t.Errorf("clip(%q, %d) = %q, want unchanged", tt.in, tt.max, out)
		}
	}
}
