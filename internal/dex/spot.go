package dex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// nativeCoinIDs maps chain names to the spot API's coin identifiers.
var nativeCoinIDs = map[string]string{
	"ethereum": "ethereum",
	"bsc":      "binancecoin",
}

// spotCacheTTL bounds how often the spot API is hit. Native token prices
// move far slower than pool prices; a minute of staleness is acceptable in
// a gas estimate.
const spotCacheTTL = time.Minute

// SpotClient fetches native-token USD prices from a CoinGecko-compatible
// simple-price endpoint, with a small in-process cache.
type SpotClient struct {
	host       string
	httpClient *http.Client

	mu      sync.Mutex
	cached  map[string]float64
	fetched time.Time
}

// NewSpotClient creates a SpotClient for the given API host, e.g.
// "https://api.coingecko.com".
func NewSpotClient(host string) *SpotClient {
	return &SpotClient{
		host:       host,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cached:     map[string]float64{},
	}
}

// NativeUSD returns the USD price of the chain's native token.
func (s *SpotClient) NativeUSD(ctx context.Context, chain string) (float64, error) {
	coin, ok := nativeCoinIDs[chain]
	if !ok {
		return 0, fmt.Errorf("dex: no native coin mapping for chain %q", chain)
	}

	s.mu.Lock()
	if time.Since(s.fetched) < spotCacheTTL {
		if price, ok := s.cached[coin]; ok {
			s.mu.Unlock()
			return price, nil
		}
	}
	s.mu.Unlock()

	prices, err := s.fetchAll(ctx)
	if err != nil {
		return 0, err
	}

	price, ok := prices[coin]
	if !ok {
		return 0, fmt.Errorf("dex: spot api returned no price for %q", coin)
	}
	return price, nil
}

// spotQueryIDs joins every coin from nativeCoinIDs into the spot API's ids
// parameter, sorted so the request URL is stable.
func spotQueryIDs() string {
	ids := make([]string, 0, len(nativeCoinIDs))
	for _, coin := range nativeCoinIDs {
		ids = append(ids, coin)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// fetchAll refreshes every known native coin in one request.
func (s *SpotClient) fetchAll(ctx context.Context) (map[string]float64, error) {
	url := s.host + "/api/v3/simple/price?ids=" + spotQueryIDs() + "&vs_currencies=usd"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dex: create spot request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dex: spot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dex: spot api status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dex: read spot response: %w", err)
	}

	var decoded map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("dex: decode spot response: %w", err)
	}

	prices := make(map[string]float64, len(decoded))
	for coin, entry := range decoded {
		prices[coin] = entry.USD
	}

	s.mu.Lock()
	s.cached = prices
	s.fetched = time.Now()
	s.mu.Unlock()

	return prices, nil
}
