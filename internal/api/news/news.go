// Package news is the adapter for the NewsAPI headline endpoints.
package news

import (
	"context"
	"net/url"
	"strconv"

	"aria/internal/httpclient"
)

const defaultBaseURL = "https://newsapi.org/v2"

// Article is a reduced headline record.
type Article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

type response struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// Client queries NewsAPI.
type Client struct {
	http    *httpclient.Client
	baseURL string
	key     string
}

// New returns a news client.
func New(http *httpclient.Client, key string) *Client {
	return &Client{http: http, baseURL: defaultBaseURL, key: key}
}

// WithBaseURL redirects the client, for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// TopHeadlines returns up to n current headlines for an ISO-3166 country code.
func (c *Client) TopHeadlines(ctx context.Context, country string, n int) ([]Article, error) {
	query := url.Values{
		"country":  {country},
		"pageSize": {strconv.Itoa(n)},
	}
	return c.fetch(ctx, c.baseURL+"/top-headlines", query)
}

// KeywordSearch returns up to n recent articles matching keyword.
func (c *Client) KeywordSearch(ctx context.Context, keyword string, n int) ([]Article, error) {
	query := url.Values{
		"q":        {keyword},
		"sortBy":   {"publishedAt"},
		"pageSize": {strconv.Itoa(n)},
	}
	return c.fetch(ctx, c.baseURL+"/everything", query)
}

func (c *Client) fetch(ctx context.Context, endpoint string, query url.Values) ([]Article, error) {
	var parsed response
	err := c.http.GetJSON(ctx, "news", endpoint, query, map[string]string{"X-Api-Key": c.key}, &parsed)
	if err != nil {
		return nil, err
	}
	return parsed.Articles, nil
}
