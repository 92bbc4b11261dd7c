package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/piyushdaiya/address-classifier/internal/core"
)

// Client queries a running watchlist engine.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient uses a short timeout: classification should not hang on a
// sanctions engine that is down.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Second},
	}
}

// CheckWatchlist asks the engine whether address is sanctioned.
func (c *Client) CheckWatchlist(ctx context.Context, address string) (*core.Sanction, error) {
	u := fmt.Sprintf("%s/check?address=%s", c.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("watchlist engine unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watchlist engine: HTTP %d", resp.StatusCode)
	}

	var result core.Sanction
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode watchlist response: %w", err)
	}
	return &result, nil
}
