// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

const teamFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//lfx//availability test//EN
BEGIN:VEVENT
UID:standup@example.com
DTSTAMP:20240301T000000Z
DTSTART:20240304T090000Z
DTEND:20240304T093000Z
RRULE:FREQ=DAILY;COUNT=5
EXDATE:20240306T090000Z
SUMMARY:Standup
END:VEVENT
BEGIN:VEVENT
UID:standup@example.com
DTSTAMP:20240301T000000Z
RECURRENCE-ID:20240305T090000Z
DTSTART:20240305T100000Z
DTEND:20240305T103000Z
SUMMARY:Standup (moved)
END:VEVENT
BEGIN:VEVENT
UID:offsite@example.com
DTSTAMP:20240301T000000Z
DTSTART;VALUE=DATE:20240307
DTEND;VALUE=DATE:20240308
SUMMARY:Offsite
END:VEVENT
BEGIN:VEVENT
UID:cancelled@example.com
DTSTAMP:20240301T000000Z
DTSTART:20240304T120000Z
DTEND:20240304T130000Z
STATUS:CANCELLED
SUMMARY:Lunch
END:VEVENT
BEGIN:VEVENT
UID:focus@example.com
DTSTAMP:20240301T000000Z
DTSTART:20240304T140000Z
DTEND:20240304T150000Z
TRANSP:TRANSPARENT
SUMMARY:Focus
END:VEVENT
BEGIN:VEVENT
UID:later@example.com
DTSTAMP:20240301T000000Z
DTSTART:20240320T090000Z
DTEND:20240320T100000Z
SUMMARY:Later
END:VEVENT
END:VCALENDAR
`

func utc(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC)
}

func week() models.Interval {
	return models.NewInterval(utc(4, 0, 0), utc(9, 0, 0))
}

func TestParseFeed(t *testing.T) {
	result, err := ParseFeed(strings.NewReader(teamFeed), ParseOptions{OwnerID: "alice", Window: week()})
	require.NoError(t, err)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Truncated)

	type got struct {
		title  string
		start  time.Time
		end    time.Time
		allDay bool
	}
	var events []got
	for _, e := range result.Events {
		assert.Equal(t, "alice", e.OwnerID)
		events = append(events, got{e.Title, e.Start().UTC(), e.End().UTC(), e.IsAllDay})
	}

	assert.Equal(t, []got{
		{"Standup", utc(4, 9, 0), utc(4, 9, 30), false},
		{"Standup (moved)", utc(5, 10, 0), utc(5, 10, 30), false},
		{"Offsite", utc(7, 0, 0), utc(8, 0, 0), true},
		{"Standup", utc(7, 9, 0), utc(7, 9, 30), false},
		{"Standup", utc(8, 9, 0), utc(8, 9, 30), false},
	}, events)
}

func TestParseFeed_WindowFiltersOccurrences(t *testing.T) {
	window := models.NewInterval(utc(7, 9, 15), utc(7, 12, 0))
	result, err := ParseFeed(strings.NewReader(teamFeed), ParseOptions{OwnerID: "alice", Window: window})
	require.NoError(t, err)

	titles := []string{}
	for _, e := range result.Events {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"Offsite", "Standup"}, titles, "an occurrence started before the window still overlaps it")
}

func TestParseFeed_FloatingTimesUseLocation(t *testing.T) {
	feed := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//lfx//availability test//EN
BEGIN:VEVENT
UID:floating@example.com
DTSTAMP:20240301T000000Z
DTSTART:20240304T090000
DTEND:20240304T100000
SUMMARY:Dentist
END:VEVENT
END:VCALENDAR
`
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	result, err := ParseFeed(strings.NewReader(feed), ParseOptions{
		OwnerID:  "bob",
		Window:   week(),
		Location: ny,
	})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, utc(4, 14, 0), result.Events[0].Start().UTC())
}

func TestParseFeed_SkipsBrokenEvents(t *testing.T) {
	feed := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//lfx//availability test//EN
BEGIN:VEVENT
DTSTAMP:20240301T000000Z
DTSTART:20240304T090000Z
DTEND:20240304T100000Z
SUMMARY:No UID
END:VEVENT
BEGIN:VEVENT
UID:backwards@example.com
DTSTAMP:20240301T000000Z
DTSTART:20240304T110000Z
DTEND:20240304T100000Z
SUMMARY:Backwards
END:VEVENT
BEGIN:VEVENT
UID:ok@example.com
DTSTAMP:20240301T000000Z
DTSTART:20240304T120000Z
SUMMARY:Reminder
END:VEVENT
END:VCALENDAR
`
	result, err := ParseFeed(strings.NewReader(feed), ParseOptions{OwnerID: "bob", Window: week()})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Events, 1)
	assert.True(t, result.Events[0].Interval.IsEmpty(), "an event without DTEND is an instant")
}

func TestParseFeed_TruncatesRecurrence(t *testing.T) {
	feed := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//lfx//availability test//EN
BEGIN:VEVENT
UID:hourly@example.com
DTSTAMP:20240301T000000Z
DTSTART:20240304T000000Z
DTEND:20240304T001500Z
RRULE:FREQ=HOURLY
SUMMARY:Ping
END:VEVENT
END:VCALENDAR
`
	result, err := ParseFeed(strings.NewReader(feed), ParseOptions{OwnerID: "bob", Window: week(), MaxOccurrences: 10})
	require.NoError(t, err)
	assert.Len(t, result.Events, 10)
	assert.Equal(t, []string{"hourly@example.com"}, result.Truncated)
}

func TestParseFeed_InvalidWindow(t *testing.T) {
	_, err := ParseFeed(strings.NewReader(teamFeed), ParseOptions{
		Window: models.NewInterval(utc(9, 0, 0), utc(4, 0, 0)),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
}

func TestParseFeed_NotACalendar(t *testing.T) {
	_, err := ParseFeed(strings.NewReader("<html>login required</html>"), ParseOptions{Window: week()})
	assert.Error(t, err)
}
