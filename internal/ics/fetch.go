package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	ical "github.com/arran4/golang-ical"

	"icalyse/internal/config"
	appLog "icalyse/internal/log"
	"icalyse/internal/metrics"
	"icalyse/internal/model"
)

// ErrBodyTooLarge is returned when a feed exceeds the configured size cap.
var ErrBodyTooLarge = errors.New("calendar body exceeds size limit")

// HTTPDoer is the subset of *http.Client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client downloads and parses ICS feeds. It keeps no cache and performs no
// retries: every call hits the network.
type Client struct {
	client       HTTPDoer
	maxBodyBytes int64
	userAgent    string
	// location interprets floating (zone-less) timestamps when the feed has
	// no usable X-WR-TIMEZONE.
	location *time.Location
}

// NewClient creates a Client from fetch settings. A nil doer uses an
// *http.Client with cfg.Timeout.
func NewClient(cfg config.FetchConfig, doer HTTPDoer, loc *time.Location) *Client {
	if doer == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		doer = &http.Client{Timeout: timeout}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		client:       doer,
		maxBodyBytes: cfg.MaxBodyBytes,
		userAgent:    cfg.UserAgent,
		location:     loc,
	}
}

// Fetch downloads the raw body of a single feed.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("source URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	appLog.Debug("ics fetch start", "url", RedactURL(url))

	resp, err := c.client.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, which may carry a token.
		var uerr *neturl.Error
		if errors.As(err, &uerr) {
			return nil, fmt.Errorf("%s request failed: %w", uerr.Op, uerr.Err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body []byte
	if c.maxBodyBytes > 0 {
		body, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
		if err == nil && int64(len(body)) > c.maxBodyBytes {
			return nil, ErrBodyTooLarge
		}
	} else {
		body, err = io.ReadAll(resp.Body)
	}
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	appLog.Debug("ics fetch success", "url", RedactURL(url), "bytes", len(body))
	return body, nil
}

// FetchCalendar downloads and parses a single feed into its component tree.
func (c *Client) FetchCalendar(ctx context.Context, url string) (*ical.Calendar, error) {
	started := time.Now()
	body, err := c.Fetch(ctx, url)
	if err != nil {
		metrics.RecordFetch("fetch_error", time.Since(started))
		return nil, err
	}
	cal, err := Parse(body)
	if err != nil {
		metrics.RecordFetch("parse_error", time.Since(started))
		return nil, err
	}
	metrics.RecordFetch("ok", time.Since(started))
	return cal, nil
}

// LoadCalendar fetches, parses and normalizes a single feed.
func (c *Client) LoadCalendar(ctx context.Context, url string) (model.Calendar, error) {
	cal, err := c.FetchCalendar(ctx, url)
	if err != nil {
		return model.Calendar{}, err
	}
	out := Normalize(cal, c.location)
	appLog.Info("ics calendar loaded", "url", RedactURL(url), "event_count", len(out.Events))
	return out, nil
}

// RedactURL hides sensitive parts of an ICS URL for logging purposes.
//
//	https://example.com/path/to/private.ics?token=abcd
//	-> https://example.com/...(redacted)
func RedactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	// Find scheme separator.
	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "ics://...(redacted)"
	}

	// Find next slash after host.
	j := i
	for j < len(u) && u[j] != '/' && u[j] != '?' {
		j++
	}

	return u[:j] + redactedSuffix
}
