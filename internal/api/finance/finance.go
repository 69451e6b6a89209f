// Package finance is the adapter for the stock-data API. It carries two API
// keys and fails over to the second when the first is rate limited.
package finance

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"aria/internal/apierr"
	"aria/internal/httpclient"
)

const defaultBaseURL = "https://api.stockdata.org/v1"

// Change holds pre-formatted percentage moves with a leading sign, e.g.
// "-1.92%".
type Change struct {
	Day  string `json:"24h"`
	Week string `json:"5D"`
}

// Client queries the stock-data API.
type Client struct {
	http    *httpclient.Client
	baseURL string
	keys    []string
}

// New returns a finance client. Empty keys are dropped; at least one key is
// required at call time.
func New(http *httpclient.Client, primaryKey, secondaryKey string) *Client {
	var keys []string
	for _, key := range []string{primaryKey, secondaryKey} {
		if key != "" {
			keys = append(keys, key)
		}
	}
	return &Client{http: http, baseURL: defaultBaseURL, keys: keys}
}

// WithBaseURL redirects the client, for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// StockPrice returns the current price of symbol in currency ("USD" when
// empty).
func (c *Client) StockPrice(ctx context.Context, symbol, currency string) (float64, error) {
	if currency == "" {
		currency = "USD"
	}
	var parsed struct {
		Data []struct {
			Price float64 `json:"price"`
		} `json:"data"`
	}
	query := url.Values{"symbols": {symbol}, "currency": {currency}}
	if err := c.fetch(ctx, "/data/quote", query, &parsed); err != nil {
		return 0, err
	}
	if len(parsed.Data) == 0 {
		return 0, fmt.Errorf("quote %s: %w", symbol, apierr.ErrNotFound)
	}
	return parsed.Data[0].Price, nil
}

// StockPriceChange returns the 24-hour and 5-day moves of symbol,
// pre-formatted with a leading sign.
func (c *Client) StockPriceChange(ctx context.Context, symbol string) (Change, error) {
	var parsed struct {
		Data []struct {
			Change Change `json:"change"`
		} `json:"data"`
	}
	query := url.Values{"symbols": {symbol}}
	if err := c.fetch(ctx, "/data/change", query, &parsed); err != nil {
		return Change{}, err
	}
	if len(parsed.Data) == 0 {
		return Change{}, fmt.Errorf("change %s: %w", symbol, apierr.ErrNotFound)
	}
	return parsed.Data[0].Change, nil
}

// StockRating returns the analyst rating of symbol, e.g. "S- (Strong Buy)".
func (c *Client) StockRating(ctx context.Context, symbol string) (string, error) {
	var parsed struct {
		Data []struct {
			Rating string `json:"rating"`
		} `json:"data"`
	}
	query := url.Values{"symbols": {symbol}}
	if err := c.fetch(ctx, "/data/rating", query, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Data) == 0 || parsed.Data[0].Rating == "" {
		return "", fmt.Errorf("rating %s: %w", symbol, apierr.ErrNotFound)
	}
	return parsed.Data[0].Rating, nil
}

// NewsBySymbol returns recent headline titles concerning symbol.
func (c *Client) NewsBySymbol(ctx context.Context, symbol string) ([]string, error) {
	var parsed struct {
		Data []struct {
			Title string `json:"title"`
		} `json:"data"`
	}
	query := url.Values{"symbols": {symbol}}
	if err := c.fetch(ctx, "/news/all", query, &parsed); err != nil {
		return nil, err
	}
	var titles []string
	for _, item := range parsed.Data {
		titles = append(titles, item.Title)
	}
	return titles, nil
}

// fetch tries each configured key in order, moving on when the current one
// is rate limited. Any other error stops the failover immediately.
func (c *Client) fetch(ctx context.Context, path string, query url.Values, out any) error {
	if len(c.keys) == 0 {
		return errors.New("finance: no API key configured")
	}
	var lastErr error
	for _, key := range c.keys {
		query.Set("api_token", key)
		err := c.http.GetJSON(ctx, "finance", c.baseURL+path, query, nil, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, apierr.ErrRateLimited) {
			return err
		}
	}
	return lastErr
}
