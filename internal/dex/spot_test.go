package dex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestNativeUSDRequestsEveryKnownCoin(t *testing.T) {
	var (
		mu     sync.Mutex
		hits   int
		gotIDs string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		gotIDs = r.URL.Query().Get("ids")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ethereum":{"usd":3000},"binancecoin":{"usd":600}}`))
	}))
	defer srv.Close()

	c := NewSpotClient(srv.URL)

	price, err := c.NativeUSD(context.Background(), "bsc")
	if err != nil {
		t.Fatalf("NativeUSD: %v", err)
	}
	if price != 600 {
		t.Errorf("bsc native price = %v, want 600", price)
	}

	// One request must cover every chain the monitor can run on, so adding
	// a chain to nativeCoinIDs is the only edit needed.
	mu.Lock()
	requested := strings.Split(gotIDs, ",")
	mu.Unlock()
	for chain, coin := range nativeCoinIDs {
		found := false
		for _, id := range requested {
			if id == coin {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("ids query %q missing %s coin %q", gotIDs, chain, coin)
		}
	}

	// A second lookup inside the cache TTL is served locally.
	price, err = c.NativeUSD(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("NativeUSD: %v", err)
	}
	if price != 3000 {
		t.Errorf("ethereum native price = %v, want 3000", price)
	}
	mu.Lock()
	n := hits
	mu.Unlock()
	if n != 1 {
		t.Errorf("spot api hits = %d, want 1", n)
	}
}

func TestNativeUSDUnknownChain(t *testing.T) {
	c := NewSpotClient("http://unreachable.invalid")
	if _, err := c.NativeUSD(context.Background(), "solana"); err == nil {
		t.Fatal("expected error for unmapped chain")
	}
}
