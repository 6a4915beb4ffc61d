// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package calendar imports participant busy time from ICS calendar feeds.
package calendar

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultFetchTimeout           = 15 * time.Second
	defaultMaxOccurrencesPerEvent = 5000
	defaultMaxFeedBytes           = 10 << 20
	defaultFeedCacheSize          = 128
)

// Source is one ICS feed linked to a participant.
type Source struct {
	// ID identifies the feed in logs. Defaults to "<participant>-<n>".
	ID string `yaml:"id"`
	// URL is the ICS endpoint. Only http and https are accepted.
	URL string `yaml:"url"`
	// Timezone anchors floating times in the feed. Defaults to UTC.
	Timezone string `yaml:"timezone,omitempty"`
}

// Location resolves the source timezone, falling back to UTC.
func (s Source) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Sources is the calendar feed configuration file.
type Sources struct {
	FetchTimeout           time.Duration       `yaml:"fetch_timeout"`
	MaxOccurrencesPerEvent int                 `yaml:"max_occurrences_per_event"`
	MaxFeedBytes           int64               `yaml:"max_feed_bytes"`
	FeedCacheSize          int                 `yaml:"feed_cache_size"`
	Participants           map[string][]Source `yaml:"participants"`
}

// DefaultSources returns a configuration without any feeds.
func DefaultSources() *Sources {
	s := &Sources{}
	s.Normalize()
	return s
}

// Normalize fills in zero values with defaults, drops sources without a URL
// and assigns missing source IDs.
func (s *Sources) Normalize() {
	if s.FetchTimeout <= 0 {
		s.FetchTimeout = defaultFetchTimeout
	}
	if s.MaxOccurrencesPerEvent <= 0 {
		s.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}
	if s.MaxFeedBytes <= 0 {
		s.MaxFeedBytes = defaultMaxFeedBytes
	}
	if s.FeedCacheSize <= 0 {
		s.FeedCacheSize = defaultFeedCacheSize
	}
	if s.Participants == nil {
		s.Participants = map[string][]Source{}
	}

	for participant, sources := range s.Participants {
		kept := make([]Source, 0, len(sources))
		for _, src := range sources {
			src.URL = strings.TrimSpace(src.URL)
			if src.URL == "" {
				continue
			}
			if src.ID == "" {
				src.ID = fmt.Sprintf("%s-%d", participant, len(kept)+1)
			}
			kept = append(kept, src)
		}
		s.Participants[participant] = kept
	}
}

// Validate rejects feeds whose URL is not absolute http(s) and unknown
// timezones.
func (s *Sources) Validate() error {
	var errs []error
	for participant, sources := range s.Participants {
		for _, src := range sources {
			u, err := url.Parse(src.URL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, fmt.Errorf("participant %s source %s: invalid url", participant, src.ID))
			}
			if src.Timezone != "" {
				if _, err := time.LoadLocation(src.Timezone); err != nil {
					errs = append(errs, fmt.Errorf("participant %s source %s: %w", participant, src.ID, err))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// For returns the feeds linked to participantID.
func (s *Sources) For(participantID string) []Source {
	if s == nil {
		return nil
	}
	return s.Participants[participantID]
}

// ParseSources decodes, normalizes and validates a YAML sources document.
func ParseSources(data []byte) (*Sources, error) {
	var s Sources
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode calendar sources: %w", err)
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSources reads the sources file at path. An empty path or a missing file
// yields the default configuration.
func LoadSources(path string) (*Sources, error) {
	if path == "" {
		return DefaultSources(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSources(), nil
		}
		return nil, err
	}
	return ParseSources(data)
}
