package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aria/internal/apierr"
)

func TestGetJSONDecodesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("n"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer server.Close()

	client := New(time.Second, nil)
	var out struct {
		Value string `json:"value"`
	}
	err := client.GetJSON(context.Background(), "test", server.URL,
		url.Values{"n": {"42"}}, map[string]string{"X-Api-Key": "secret"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
}

func TestPostFormSendsEncodedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Empty(t, r.URL.RawQuery)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer server.Close()

	client := New(time.Second, nil)
	var out struct {
		Value string `json:"value"`
	}
	err := client.PostForm(context.Background(), "test", server.URL,
		url.Values{"grant_type": {"client_credentials"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, apierr.ErrNotFound},
		{http.StatusTooManyRequests, apierr.ErrRateLimited},
		{http.StatusPaymentRequired, apierr.ErrQuotaExceeded},
		{http.StatusForbidden, apierr.ErrQuotaExceeded},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		client := New(time.Second, nil)
		err := client.GetJSON(context.Background(), "test", server.URL, nil, nil, nil)
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
		server.Close()
	}
}

func TestServerErrorIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(time.Second, nil)
	err := client.GetJSON(context.Background(), "test", server.URL, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, apierr.IsTransport(err))
}

func TestUnreachableHostIsTransport(t *testing.T) {
	client := New(100*time.Millisecond, nil)
	err := client.GetJSON(context.Background(), "test", "http://127.0.0.1:1", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, apierr.IsTransport(err))
}

func TestReadAllWithLimit(t *testing.T) {
	data, err := ReadAllWithLimit(strings.NewReader("hello"), 10)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = ReadAllWithLimit(strings.NewReader("hello world"), 5)
	var tooLarge ResponseTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.EqualValues(t, 5, tooLarge.Limit)
}
