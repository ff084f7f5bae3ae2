package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
)

// APISource fetches odds from one bookmaker's JSON odds endpoint. Requests
// are gated through a distributed rate limiter so multiple scanner
// instances share one per-bookmaker budget.
type APISource struct {
	name       string
	baseURL    string
	leagues    []string
	limiter    domain.RateLimiter
	limit      int
	window     time.Duration
	httpClient *http.Client
}

// APISourceConfig configures a bookmaker API source.
type APISourceConfig struct {
	// Name is the bookmaker identifier, e.g. "betwarrior".
	Name string

	// BaseURL is the odds API root.
	BaseURL string

	// Leagues restricts the fetch to the given league slugs. Empty means
	// everything the endpoint returns.
	Leagues []string

	// Limiter, RequestLimit, and Window gate outgoing requests. Limiter
	// may be nil, in which case requests are not rate limited.
	Limiter      domain.RateLimiter
	RequestLimit int
	Window       time.Duration

	// Timeout bounds a single HTTP request. Zero means 30s.
	Timeout time.Duration
}

// NewAPISource creates an odds source for one bookmaker endpoint.
func NewAPISource(cfg APISourceConfig) *APISource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := cfg.RequestLimit
	if limit <= 0 {
		limit = 10
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	return &APISource{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		leagues: cfg.Leagues,
		limiter: cfg.Limiter,
		limit:   limit,
		window:  window,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name implements Source.
func (s *APISource) Name() string { return s.name }

// apiQuote is one outcome price in the bookmaker API response.
type apiQuote struct {
	Outcome string  `json:"outcome"`
	Odds    float64 `json:"odds"`
}

// apiMarket is one market in the bookmaker API response.
type apiMarket struct {
	Name   string     `json:"name"`
	Quotes []apiQuote `json:"quotes"`
}

// apiMatch is one match entry in the bookmaker API response.
type apiMatch struct {
	HomeTeam  string      `json:"home_team"`
	AwayTeam  string      `json:"away_team"`
	League    string      `json:"league"`
	Country   string      `json:"country"`
	StartTime time.Time   `json:"start_time"`
	Markets   []apiMarket `json:"markets"`
}

// Fetch implements Source. Each returned quote carries this source's name
// and the fetch timestamp.
func (s *APISource) Fetch(ctx context.Context) ([]domain.MatchOdds, error) {
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, "feed:"+s.name, s.limit, s.window)
		if err != nil {
			return nil, fmt.Errorf("feed/%s: rate limiter: %w", s.name, err)
		}
		if !ok {
			return nil, fmt.Errorf("feed/%s: %w", s.name, domain.ErrRateLimited)
		}
	}

	params := url.Values{}
	for _, l := range s.leagues {
		params.Add("league", l)
	}
	path := "/matches"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := s.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("feed/%s: fetch matches: %w", s.name, err)
	}

	var apiMatches []apiMatch
	if err := json.Unmarshal(body, &apiMatches); err != nil {
		return nil, fmt.Errorf("feed/%s: decode matches: %w", s.name, err)
	}

	now := time.Now().UTC()
	matches := make([]domain.MatchOdds, 0, len(apiMatches))
	for _, am := range apiMatches {
		matches = append(matches, s.toDomain(am, now))
	}
	return matches, nil
}

func (s *APISource) toDomain(am apiMatch, ts time.Time) domain.MatchOdds {
	m := domain.MatchOdds{
		HomeTeam:  am.HomeTeam,
		AwayTeam:  am.AwayTeam,
		League:    am.League,
		Country:   am.Country,
		StartTime: am.StartTime,
	}
	for _, mk := range am.Markets {
		mb := domain.MarketBook{Market: mk.Name}
		for _, q := range mk.Quotes {
			mb.Outcomes = append(mb.Outcomes, domain.OutcomeQuotes{
				Label: q.Outcome,
				Quotes: []domain.Quote{{
					Bookmaker: s.name,
					Outcome:   q.Outcome,
					Odds:      q.Odds,
					Timestamp: ts,
				}},
			})
		}
		m.Markets = append(m.Markets, mb)
	}
	return m
}

func (s *APISource) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
