package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aria/internal/httpclient"
)

func writeToken(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token.json")
	doc := `{"access_token": "tok", "refresh_token": "ref", "expiry": "2099-01-01T00:00:00Z"}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestNewRequiresTokenCache(t *testing.T) {
	_, err := New(httpclient.New(time.Second, nil), filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestEventsInParsesOffsets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"items": [
		  {"summary": "Standup", "location": "Office",
		   "start": {"dateTime": "2026-08-29T09:00:00+02:00"},
		   "end": {"dateTime": "2026-08-29T09:30:00+02:00"}},
		  {"summary": "Holiday", "start": {"date": "2026-08-29"}, "end": {"date": "2026-08-30"}},
		  {"summary": "Call",
		   "start": {"dateTime": "2026-08-29T03:00:00-05:00"},
		   "end": {"dateTime": "2026-08-29T04:00:00-05:00"}}
		]}`))
	}))
	defer server.Close()

	client, err := New(httpclient.New(time.Second, nil), writeToken(t))
	require.NoError(t, err)
	client.WithBaseURL(server.URL)

	from := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	events, err := client.EventsIn(context.Background(), from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, events, 3)

	// The +02:00 and -05:00 offsets come from the wire, not a fixed zone.
	standup := events[1]
	assert.Equal(t, "Standup", standup.Title)
	_, offset := standup.Start.Zone()
	assert.Equal(t, 2*3600, offset)

	call := events[2]
	assert.Equal(t, "Call", call.Title)
	_, offset = call.Start.Zone()
	assert.Equal(t, -5*3600, offset)
	// 09:00+02:00 is 07:00 UTC and sorts before 03:00-05:00 (08:00 UTC).
	assert.True(t, standup.Start.Before(call.Start))

	holiday := events[0]
	assert.True(t, holiday.FullDay)
	assert.Equal(t, "2026-08-29", holiday.Date)
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	event := Event{Start: base, End: base.Add(time.Hour)}

	assert.True(t, event.Overlaps(base.Add(30*time.Minute), base.Add(2*time.Hour)))
	assert.False(t, event.Overlaps(base.Add(time.Hour), base.Add(2*time.Hour)))
	assert.False(t, event.Overlaps(base.Add(-time.Hour), base))

	fullDay := Event{FullDay: true, Date: "2026-08-29"}
	assert.True(t, fullDay.Overlaps(base, base.Add(time.Hour)))
	assert.False(t, fullDay.Overlaps(base.AddDate(0, 0, 2), base.AddDate(0, 0, 3)))
}

func TestNextEventTodaySkipsPastAndFullDay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [
		  {"summary": "Holiday", "start": {"date": "2026-08-29"}, "end": {"date": "2026-08-30"}},
		  {"summary": "Past",
		   "start": {"dateTime": "2026-08-29T08:00:00+02:00"},
		   "end": {"dateTime": "2026-08-29T09:00:00+02:00"}},
		  {"summary": "Upcoming",
		   "start": {"dateTime": "2026-08-29T15:00:00+02:00"},
		   "end": {"dateTime": "2026-08-29T16:00:00+02:00"}}
		]}`))
	}))
	defer server.Close()

	client, err := New(httpclient.New(time.Second, nil), writeToken(t))
	require.NoError(t, err)
	client.WithBaseURL(server.URL)
	client.now = func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	}

	event, err := client.NextEventToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Upcoming", event.Title)
}
