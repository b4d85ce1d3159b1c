package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/polyarb/arbot/internal/domain"
)

// gammaRateKey is the shared rate-limit bucket for Gamma API requests.
const gammaRateKey = "polymarket:gamma"

// Limiter throttles outbound requests. Satisfied by the Redis rate limiter;
// nil means no throttling.
type Limiter interface {
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and current pricing. It implements
// domain.SnapshotSource.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    Limiter
	rateLimit  int
	rateWindow time.Duration

	now func() time.Time

	// OnMarket, when set, is invoked for every market accepted by Snapshots.
	// The executor uses it to learn CLOB token IDs without a second fetch.
	OnMarket func(m *APIMarket)
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// limiter may be nil to disable request throttling.
func NewGammaClient(baseURL string, limiter Limiter) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:    limiter,
		rateLimit:  10,
		rateWindow: time.Second,
		now:        time.Now,
	}
}

// Snapshots fetches active markets and converts them to snapshots, paging
// through the API until limit markets have been collected or the listing is
// exhausted. Multi-outcome and closed markets are skipped. An empty category
// disables category filtering.
func (g *GammaClient) Snapshots(ctx context.Context, category string, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = 100
	}

	const pageSize = 100
	fetchedAt := g.now().UTC()
	snaps := make([]domain.Snapshot, 0, limit)

	for offset := 0; len(snaps) < limit; offset += pageSize {
		markets, err := g.getMarkets(ctx, category, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(markets) == 0 {
			break
		}

		for i := range markets {
			m := &markets[i]
			if m.Closed || !m.Binary() {
				continue
			}
			if g.OnMarket != nil {
				g.OnMarket(m)
			}
			snaps = append(snaps, m.ToSnapshot(fetchedAt))
			if len(snaps) == limit {
				break
			}
		}

		if len(markets) < pageSize {
			break
		}
	}

	return snaps, nil
}

// GetMarket returns a single market by its ID.
func (g *GammaClient) GetMarket(ctx context.Context, id string) (APIMarket, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(id))

	body, err := g.doGet(ctx, path)
	if err != nil {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}

	var m APIMarket
	if err := json.Unmarshal(body, &m); err != nil {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}
	return m, nil
}

// getMarkets returns one page of active markets.
func (g *GammaClient) getMarkets(ctx context.Context, category string, limit, offset int) ([]APIMarket, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("active", "true")
	params.Set("closed", "false")
	if category != "" {
		params.Set("tag", category)
	}

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}

	var markets []APIMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}
	return markets, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, gammaRateKey, g.rateLimit, g.rateWindow); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx responses to errors, preserving the rate
// limit sentinel so callers can back off.
func checkHTTPStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %w", status, domain.ErrRateLimited)
	default:
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return fmt.Errorf("status %d: %s", status, msg)
	}
}

// Compile-time interface check.
var _ domain.SnapshotSource = (*GammaClient)(nil)
