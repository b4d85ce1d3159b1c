package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/polyarb/arbot/internal/domain"
	"github.com/polyarb/arbot/internal/executor"
)

// ClobClient is the REST client for the Polymarket CLOB (Central Limit
// Order Book) API. It translates executor order requests into CLOB order
// submissions and implements executor.OrderPlacer.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	auth       *HMACAuth

	mu     sync.RWMutex
	tokens map[string][2]string // market ID -> [YES token, NO token]

	now func() time.Time
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(baseURL string, auth *HMACAuth) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		auth:   auth,
		tokens: make(map[string][2]string),
		now:    time.Now,
	}
}

// RegisterMarket records the CLOB token IDs for a market, YES first. The
// snapshot poller calls this so later order requests can resolve outcome
// tokens without another metadata fetch.
func (c *ClobClient) RegisterMarket(marketID string, tokenIDs []string) {
	if len(tokenIDs) != 2 {
		return
	}
	c.mu.Lock()
	c.tokens[marketID] = [2]string{tokenIDs[0], tokenIDs[1]}
	c.mu.Unlock()
}

// tokenFor resolves the CLOB token ID for one side of a market.
func (c *ClobClient) tokenFor(marketID string, outcome domain.Outcome) (string, error) {
	c.mu.RLock()
	pair, ok := c.tokens[marketID]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("polymarket/clob: no token mapping for market %s: %w", marketID, domain.ErrNotFound)
	}
	if outcome == domain.OutcomeYes {
		return pair[0], nil
	}
	return pair[1], nil
}

// PlaceOrder submits one order to the CLOB API and returns the resulting
// fill. Limit orders rest as GTC; market orders are submitted fill-or-kill.
func (c *ClobClient) PlaceOrder(ctx context.Context, req executor.OrderRequest) (domain.Trade, error) {
	tokenID, err := c.tokenFor(req.MarketID, req.Outcome)
	if err != nil {
		return domain.Trade{}, err
	}

	orderType := "GTC"
	if req.Type == domain.OrderTypeMarket {
		orderType = "FOK"
	}

	payload := map[string]any{
		"tokenID":   tokenID,
		"price":     req.Price,
		"size":      req.Size,
		"side":      strings.ToUpper(string(req.Side)),
		"orderType": orderType,
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodPost, "/order", payload)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("polymarket/clob: post order: %w", err)
	}

	var result APIOrderResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return domain.Trade{}, fmt.Errorf("polymarket/clob: decode order result: %w", err)
	}
	if !result.Success {
		return domain.Trade{}, fmt.Errorf("polymarket/clob: order rejected: %s", result.ErrorMsg)
	}

	tradeID := result.OrderID
	if tradeID == "" {
		tradeID = uuid.New().String()
	}

	return domain.Trade{
		ID:        tradeID,
		MarketID:  req.MarketID,
		Outcome:   req.Outcome,
		Side:      req.Side,
		Price:     req.Price,
		Size:      req.Size,
		Timestamp: c.now().UTC(),
		Strategy:  req.Strategy,
	}, nil
}

// CancelOrder cancels a single order by its ID.
func (c *ClobClient) CancelOrder(ctx context.Context, orderID string) error {
	body := map[string]any{"orderID": orderID}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodDelete, "/order", body)
	if err != nil {
		return fmt.Errorf("polymarket/clob: cancel order %s: %w", orderID, err)
	}

	var result struct {
		Success  bool   `json:"success"`
		ErrorMsg string `json:"errorMsg"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("polymarket/clob: decode cancel response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("polymarket/clob: cancel failed: %s", result.ErrorMsg)
	}
	return nil
}

// doAuthenticatedRequest sends an HMAC-authenticated request to the CLOB API.
func (c *ClobClient) doAuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyStr string
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyStr = string(data)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.auth != nil {
		for k, v := range c.auth.Headers(method, path, bodyStr) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// Compile-time interface check.
var _ executor.OrderPlacer = (*ClobClient)(nil)
