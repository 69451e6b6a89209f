package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"aria/internal/httpclient"
)

const tokenEndpoint = "https://oauth2.googleapis.com/token"

// cachedToken mirrors the token file written by the one-time authorization
// flow.
type cachedToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Expiry       time.Time `json:"expiry"`
}

// tokenSource serves access tokens from the cache file, refreshing and
// re-persisting them when expired.
type tokenSource struct {
	http     *httpclient.Client
	path     string
	endpoint string

	mu     sync.Mutex
	cached cachedToken
}

func loadTokenSource(http *httpclient.Client, path string) (*tokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("calendar token cache missing (run the authorization flow first): %w", err)
	}
	var token cachedToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("calendar token cache malformed: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("calendar token cache malformed: no tokens present")
	}
	return &tokenSource{http: http, path: path, endpoint: tokenEndpoint, cached: token}, nil
}

// token returns a valid access token, refreshing it if necessary.
func (s *tokenSource) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached.AccessToken != "" && time.Until(s.cached.Expiry) > time.Minute {
		return s.cached.AccessToken, nil
	}
	if s.cached.RefreshToken == "" {
		return "", fmt.Errorf("calendar token expired and no refresh token cached")
	}

	var refreshed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {s.cached.RefreshToken},
		"client_id":     {s.cached.ClientID},
		"client_secret": {s.cached.ClientSecret},
	}
	if err := s.http.PostForm(ctx, "calendar-auth", s.endpoint, form, &refreshed); err != nil {
		return "", fmt.Errorf("refreshing calendar token: %w", err)
	}
	if refreshed.AccessToken == "" {
		return "", fmt.Errorf("refreshing calendar token: empty access token")
	}

	s.cached.AccessToken = refreshed.AccessToken
	s.cached.Expiry = time.Now().Add(time.Duration(refreshed.ExpiresIn) * time.Second)
	s.persist()
	return s.cached.AccessToken, nil
}

// persist rewrites the cache file; failures are non-fatal since the token is
// still valid in memory.
func (s *tokenSource) persist() {
	data, err := json.MarshalIndent(s.cached, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, data, 0o600)
}
