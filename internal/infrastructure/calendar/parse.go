// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package calendar

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/availability"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
)

// ParseOptions controls how a feed is turned into busy events.
type ParseOptions struct {
	OwnerID string
	Window  models.Interval
	// Location anchors floating and date-only values.
	Location *time.Location
	// MaxOccurrences caps the expansion of a single recurring event.
	MaxOccurrences int
}

// ParseResult is the outcome of parsing one feed.
type ParseResult struct {
	Events []models.BusyEvent
	// Skipped counts VEVENTs that could not be read.
	Skipped int
	// Truncated lists the UIDs whose recurrence hit MaxOccurrences.
	Truncated []string
}

type vevent struct {
	uid        string
	summary    string
	start      time.Time
	end        time.Time
	allDay     bool
	rrule      string
	exDates    []time.Time
	recurrence *time.Time
}

// ParseFeed reads an ICS payload and returns the busy events overlapping
// opts.Window, owned by opts.OwnerID and sorted by start. Cancelled and
// transparent events do not block time and are ignored.
func ParseFeed(r io.Reader, opts ParseOptions) (ParseResult, error) {
	var result ParseResult
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxOccurrences <= 0 {
		opts.MaxOccurrences = defaultMaxOccurrencesPerEvent
	}
	if err := availability.ValidateWindow(opts.Window); err != nil {
		return result, err
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return result, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var base []vevent
	overrides := map[string][]vevent{}
	for _, ve := range cal.Events() {
		if !blocksTime(ve) {
			continue
		}
		ev, err := readVEvent(ve, opts.Location)
		if err != nil {
			result.Skipped++
			continue
		}
		if ev.recurrence != nil {
			overrides[ev.uid] = append(overrides[ev.uid], ev)
		}
		base = append(base, ev)
	}

	events := make([]models.BusyEvent, 0, len(base))
	for _, ev := range base {
		intervals, truncated := occurrences(ev, overrides[ev.uid], opts)
		if truncated {
			result.Truncated = append(result.Truncated, ev.uid)
		}
		for _, iv := range intervals {
			if !iv.Overlaps(opts.Window) {
				continue
			}
			events = append(events, models.BusyEvent{
				Title:    ev.summary,
				Interval: iv,
				IsAllDay: ev.allDay,
				OwnerID:  opts.OwnerID,
			})
		}
	}

	result.Events = availability.SortEvents(events)
	return result, nil
}

func blocksTime(ve *ical.VEvent) bool {
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
		return false
	}
	if p := ve.GetProperty(ical.ComponentPropertyTransp); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		return false
	}
	return true
}

func readVEvent(ve *ical.VEvent, loc *time.Location) (vevent, error) {
	var ev vevent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, errors.New("missing UID")
	}
	ev.uid = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.summary = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, errors.New("missing DTSTART")
	}
	ev.allDay = isDateValue(dtStart)

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, err
	}
	ev.start = anchor(start, dtStart, loc)

	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		end, err := ve.GetEndAt()
		if err != nil {
			return ev, err
		}
		ev.end = anchor(end, dtEnd, loc)
	} else if ev.allDay {
		ev.end = ev.start.AddDate(0, 0, 1)
	} else {
		ev.end = ev.start
	}
	if ev.end.Before(ev.start) {
		return ev, fmt.Errorf("event %s ends before it starts", ev.uid)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.rrule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part), tzLocation(p, ev.start.Location())); err == nil {
				ev.exDates = append(ev.exDates, t)
			}
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyRecurrenceId); p != nil {
		if t, err := parseICSTime(p.Value, tzLocation(p, ev.start.Location())); err == nil {
			ev.recurrence = &t
		}
	}
	return ev, nil
}

// occurrences expands ev into concrete intervals. Instances replaced by an
// override are skipped; the override itself is emitted as its own event.
func occurrences(ev vevent, overrides []vevent, opts ParseOptions) ([]models.Interval, bool) {
	duration := ev.end.Sub(ev.start)
	if ev.rrule == "" || ev.recurrence != nil {
		return []models.Interval{models.NewInterval(ev.start, ev.end)}, false
	}

	rule, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		return []models.Interval{models.NewInterval(ev.start, ev.end)}, false
	}
	rule.DTStart(ev.start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.exDates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	// Occurrences starting before the window can still reach into it.
	from := opts.Window.Start.Add(-duration).In(ev.start.Location())
	to := opts.Window.End.In(ev.start.Location())
	starts := set.Between(from, to, true)

	truncated := false
	if len(starts) > opts.MaxOccurrences {
		starts = starts[:opts.MaxOccurrences]
		truncated = true
	}

	out := make([]models.Interval, 0, len(starts))
	for _, s := range starts {
		if isOverridden(s, overrides) {
			continue
		}
		if ev.allDay {
			s = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
			out = append(out, models.NewInterval(s, s.AddDate(0, 0, 1)))
			continue
		}
		out = append(out, models.NewInterval(s, s.Add(duration)))
	}
	return out, truncated
}

func isOverridden(start time.Time, overrides []vevent) bool {
	for _, o := range overrides {
		if o.recurrence != nil && o.recurrence.Equal(start) {
			return true
		}
	}
	return false
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// anchor moves floating values, which the parser reads in time.Local, into loc.
func anchor(t time.Time, p *ical.IANAProperty, loc *time.Location) time.Time {
	if _, ok := p.ICalParameters["TZID"]; ok || strings.HasSuffix(p.Value, "Z") {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func tzLocation(p *ical.IANAProperty, fallback *time.Location) *time.Location {
	if tz, ok := p.ICalParameters["TZID"]; ok && len(tz) == 1 {
		if loc, err := time.LoadLocation(tz[0]); err == nil {
			return loc
		}
	}
	return fallback
}

func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
