// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
)

// feedCacheEntry keeps the last body of a feed for conditional requests.
type feedCacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// ICSProvider implements domain.CalendarProvider over the ICS feeds listed in
// Sources. Feeds are fetched with conditional GETs and bodies are cached in
// memory so unchanged calendars are not downloaded twice.
type ICSProvider struct {
	client  *http.Client
	sources *Sources
	cache   *lru.Cache[string, feedCacheEntry]
}

var _ domain.CalendarProvider = (*ICSProvider)(nil)

// NewICSProvider creates a provider. A nil client gets one with the configured
// fetch timeout.
func NewICSProvider(sources *Sources, client *http.Client) (*ICSProvider, error) {
	if sources == nil {
		sources = DefaultSources()
	}
	if client == nil {
		client = &http.Client{Timeout: sources.FetchTimeout}
	}
	cache, err := lru.New[string, feedCacheEntry](sources.FeedCacheSize)
	if err != nil {
		return nil, err
	}
	return &ICSProvider{
		client:  client,
		sources: sources,
		cache:   cache,
	}, nil
}

// FetchBusyEvents downloads every feed of participantID and returns the busy
// events overlapping window. A participant without feeds has no events. When
// some feeds fail the events of the others are still returned together with
// the joined error; only a total failure returns no events.
func (p *ICSProvider) FetchBusyEvents(ctx context.Context, participantID string, window models.Interval) ([]models.BusyEvent, error) {
	sources := p.sources.For(participantID)
	if len(sources) == 0 {
		return []models.BusyEvent{}, nil
	}

	ctx = logging.AppendCtx(ctx, slog.String("participant_id", participantID))

	events := []models.BusyEvent{}
	var errs []error
	for _, src := range sources {
		body, err := p.fetch(ctx, src)
		if err != nil {
			slog.WarnContext(ctx, "calendar feed fetch failed",
				"source_id", src.ID, "url", redactURL(src.URL), logging.ErrKey, err)
			errs = append(errs, fmt.Errorf("source %s: %w", src.ID, err))
			continue
		}

		result, err := ParseFeed(bytes.NewReader(body), ParseOptions{
			OwnerID:        participantID,
			Window:         window,
			Location:       src.Location(),
			MaxOccurrences: p.sources.MaxOccurrencesPerEvent,
		})
		if err != nil {
			slog.WarnContext(ctx, "calendar feed parse failed", "source_id", src.ID, logging.ErrKey, err)
			errs = append(errs, fmt.Errorf("source %s: %w", src.ID, err))
			continue
		}
		if result.Skipped > 0 || len(result.Truncated) > 0 {
			slog.WarnContext(ctx, "calendar feed partially imported",
				"source_id", src.ID, "skipped", result.Skipped, "truncated_uids", result.Truncated)
		}
		slog.DebugContext(ctx, "calendar feed imported", "source_id", src.ID, "events", len(result.Events))
		events = append(events, result.Events...)
	}

	if len(errs) == len(sources) {
		return nil, domain.NewUnavailableError(
			fmt.Sprintf("no calendar feed of participant %s could be read", participantID), errs...)
	}
	return events, errors.Join(errs...)
}

func (p *ICSProvider) fetch(ctx context.Context, src Source) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")

	cached, hasCached := p.cache.Get(src.URL)
	if hasCached {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && hasCached:
		return cached.body, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.sources.MaxFeedBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > p.sources.MaxFeedBytes {
		return nil, fmt.Errorf("feed exceeds %d bytes", p.sources.MaxFeedBytes)
	}

	entry := feedCacheEntry{
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		body:         body,
	}
	if entry.etag != "" || entry.lastModified != "" {
		p.cache.Add(src.URL, entry)
	}
	return body, nil
}

// redactURL drops the query string, which often carries a private token.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
