package ics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icalyse/internal/config"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Test//EN\r\n" +
	"X-WR-CALNAME:Work\r\n" +
	"X-WR-CALDESC:Billable hours\r\n" +
	"X-WR-TIMEZONE:Europe/Paris\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:1\r\n" +
	"SUMMARY:Standup\\, daily\r\n" +
	"DESCRIPTION:Sync\r\n" +
	"LOCATION:Room 1\r\n" +
	"DTSTART:20240102T090000Z\r\n" +
	"DTEND:20240102T091500Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:2\r\n" +
	"SUMMARY:Planning\r\n" +
	"DTSTART;TZID=America/New_York:20240103T100000\r\n" +
	"DTEND;TZID=America/New_York:20240103T113000\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:3\r\n" +
	"DTSTART:20240104T140000\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseRejectsEmptyBody(t *testing.T) {
	_, err := Parse([]byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("<html>not a calendar</html>"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	cal, err := Parse([]byte(sampleICS))
	require.NoError(t, err)

	got := Normalize(cal, time.UTC)

	assert.Equal(t, "Work", got.Name)
	assert.Equal(t, "Billable hours", got.Description)
	assert.Equal(t, "Europe/Paris", got.Timezone)
	require.Len(t, got.Events, 3)

	first := got.Events[0]
	assert.Equal(t, "Standup, daily", first.Summary)
	assert.Equal(t, "Sync", first.Description)
	assert.Equal(t, "Room 1", first.Location)
	assert.True(t, first.Start.Equal(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)))
	assert.True(t, first.End.Equal(time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)))

	second := got.Events[1]
	assert.True(t, second.Start.Equal(time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)), second.Start)
	assert.InDelta(t, 1.5, second.Hours(), 1e-9)

	// Floating time is read in the feed's X-WR-TIMEZONE; DTEND is absent.
	third := got.Events[2]
	assert.Empty(t, third.Summary)
	assert.True(t, third.Start.Equal(time.Date(2024, 1, 4, 13, 0, 0, 0, time.UTC)), third.Start)
	assert.False(t, third.HasEnd())
}

func TestNormalizeWithoutMetadata(t *testing.T) {
	cal, err := Parse([]byte("BEGIN:VCALENDAR\nVERSION:2.0\nEND:VCALENDAR\n"))
	require.NoError(t, err)

	got := Normalize(cal, time.UTC)

	assert.Empty(t, got.Name)
	assert.Empty(t, got.Timezone)
	assert.NotNil(t, got.Events)
	assert.Empty(t, got.Events)
}

func TestNormalizeNil(t *testing.T) {
	got := Normalize(nil, nil)
	assert.Empty(t, got.Events)
}

type fakeDoer struct {
	resp *http.Response
	err  error
}

func (f fakeDoer) Do(*http.Request) (*http.Response, error) { return f.resp, f.err }

func TestClientLoadCalendar(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = io.WriteString(w, sampleICS)
	}))
	defer srv.Close()

	c := NewClient(config.FetchConfig{Timeout: time.Second, UserAgent: "icalyse-test"}, nil, time.UTC)
	cal, err := c.LoadCalendar(context.Background(), srv.URL+"/cal.ics")
	require.NoError(t, err)

	assert.Equal(t, "icalyse-test", gotUA)
	assert.Equal(t, "Work", cal.Name)
	assert.Len(t, cal.Events, 3)
}

func TestClientFetchErrors(t *testing.T) {
	c := NewClient(config.FetchConfig{}, fakeDoer{err: errors.New("dial tcp: refused")}, time.UTC)
	_, err := c.Fetch(context.Background(), "https://example.com/a.ics")
	assert.ErrorContains(t, err, "refused")

	c = NewClient(config.FetchConfig{}, fakeDoer{resp: &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("nope")),
	}}, time.UTC)
	_, err = c.Fetch(context.Background(), "https://example.com/a.ics")
	assert.ErrorContains(t, err, "404")

	_, err = c.Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestClientRejectsOversizedBody(t *testing.T) {
	c := NewClient(config.FetchConfig{MaxBodyBytes: 8}, fakeDoer{resp: &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(sampleICS)),
	}}, time.UTC)

	_, err := c.Fetch(context.Background(), "https://example.com/a.ics")
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestClientParseFailure(t *testing.T) {
	c := NewClient(config.FetchConfig{}, fakeDoer{resp: &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("")),
	}}, time.UTC)

	_, err := c.LoadCalendar(context.Background(), "https://example.com/a.ics")
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestMergeRaw(t *testing.T) {
	a, err := Parse([]byte(sampleICS))
	require.NoError(t, err)
	b, err := Parse([]byte("BEGIN:VCALENDAR\nVERSION:2.0\nBEGIN:VEVENT\nUID:b1\nSUMMARY:Other\nDTSTART:20240105T090000Z\nEND:VEVENT\nEND:VCALENDAR\n"))
	require.NoError(t, err)

	merged := MergeRaw([]*ical.Calendar{a, nil, b})

	events := merged.Events()
	require.Len(t, events, 4)
	assert.Equal(t, "1", events[0].Id())
	assert.Equal(t, "b1", events[3].Id())

	out := merged.Serialize()
	assert.Contains(t, out, "PRODID:"+ProductID)
	assert.Equal(t, 4, strings.Count(out, "BEGIN:VEVENT"))
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", RedactURL("https://example.com/private/cal.ics?token=abc"))
	assert.Equal(t, "https://example.com/...(redacted)", RedactURL("https://example.com?token=abc"))
	assert.Equal(t, "ics://...(redacted)", RedactURL("not a url"))
}

func TestClientFetchErrorHidesURL(t *testing.T) {
	c := NewClient(config.FetchConfig{}, fakeDoer{err: &url.Error{
		Op:  "Get",
		URL: "https://example.com/a.ics?token=secret",
		Err: errors.New("connection refused"),
	}}, time.UTC)

	_, err := c.Fetch(context.Background(), "https://example.com/a.ics?token=secret")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
	assert.Contains(t, err.Error(), "connection refused")
}
