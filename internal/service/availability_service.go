// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/availability"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/concurrent"
)

const instrumentationName = "github.com/linuxfoundation/lfx-v2-availability-service/internal/service"

// AvailabilityRequest selects what a recompute covers.
type AvailabilityRequest struct {
	SessionUID string
	// Excluded participants are hidden from this view only.
	Excluded models.VisibilitySet
	// Window narrows the session window when set.
	Window *models.Interval
	// Timezone overrides the session timezone for day sections.
	Timezone string
	// LiveCalendars merges freshly fetched participant calendars into the
	// stored events.
	LiveCalendars bool
}

// AvailabilityService computes busy and open time for a session. Every call is
// a full recompute from the stored session; nothing derived is persisted.
type AvailabilityService struct {
	SessionRepository domain.SessionRepository
	// CalendarProvider is optional. Without it live calendar requests only see
	// the stored events.
	CalendarProvider domain.CalendarProvider
	Clock            domain.Clock
	Config           ServiceConfig

	pool            *concurrent.WorkerPool
	recomputes      metric.Int64Counter
	recomputeTiming metric.Float64Histogram
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	sessionRepository domain.SessionRepository,
	calendarProvider domain.CalendarProvider,
	clock domain.Clock,
	config ServiceConfig,
) *AvailabilityService {
	config = config.withDefaults()
	if clock == nil {
		clock = domain.SystemClock
	}

	meter := otel.Meter(instrumentationName)
	recomputes, err := meter.Int64Counter("availability.recompute.count",
		metric.WithDescription("Number of availability recomputes"))
	if err != nil {
		slog.Warn("failed to create recompute counter", logging.ErrKey, err)
	}
	recomputeTiming, err := meter.Float64Histogram("availability.recompute.duration",
		metric.WithDescription("Duration of availability recomputes"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("failed to create recompute histogram", logging.ErrKey, err)
	}

	return &AvailabilityService{
		SessionRepository: sessionRepository,
		CalendarProvider:  calendarProvider,
		Clock:             clock,
		Config:            config,
		pool:              concurrent.NewWorkerPool(config.CalendarFetchWorkers),
		recomputes:        recomputes,
		recomputeTiming:   recomputeTiming,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *AvailabilityService) ServiceReady() bool {
	return s.SessionRepository != nil
}

// ComputeAvailability loads the session, optionally merges live calendars,
// applies the visibility filter and aggregates the visible events over the
// requested window.
func (s *AvailabilityService) ComputeAvailability(ctx context.Context, req AvailabilityRequest) (*models.AvailabilityView, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("availability service is not ready")
	}

	started := time.Now()
	ctx = logging.AppendCtx(ctx, slog.String("session_uid", req.SessionUID))

	view, err := s.compute(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = domain.GetErrorType(err).String()
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("live_calendars", req.LiveCalendars),
	)
	if s.recomputes != nil {
		s.recomputes.Add(ctx, 1, attrs)
	}
	if s.recomputeTiming != nil {
		s.recomputeTiming.Record(ctx, time.Since(started).Seconds(), attrs)
	}

	return view, err
}

func (s *AvailabilityService) compute(ctx context.Context, req AvailabilityRequest) (*models.AvailabilityView, error) {
	if req.SessionUID == "" {
		return nil, domain.NewValidationError("session uid is required")
	}

	session, err := s.SessionRepository.Get(ctx, req.SessionUID)
	if err != nil {
		logLoadError(ctx, err)
		return nil, err
	}

	window, err := resolveWindow(session, req.Window)
	if err != nil {
		return nil, err
	}

	loc, timezone := session.Location(), session.Location().String()
	if req.Timezone != "" {
		loc, err = time.LoadLocation(req.Timezone)
		if err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("unknown timezone %q", req.Timezone), err)
		}
		timezone = req.Timezone
	}

	events := slices.Clone(session.Events)
	var fetchErrors []string
	if req.LiveCalendars {
		live, errs := s.fetchLiveCalendars(ctx, session, window, req.Excluded)
		events = mergeEvents(events, live)
		fetchErrors = errs
	}

	visible := availability.Visible(events, req.Excluded)
	agg, err := availability.Aggregate(visible, window)
	if err != nil {
		slog.WarnContext(ctx, "session holds events that cannot be aggregated", logging.ErrKey, err)
		return nil, err
	}

	busyEntries := availability.SegmentEvents(clipEvents(visible, window), loc)
	openEntries := availability.SegmentOpen(agg.Open, loc)

	view := &models.AvailabilityView{
		SessionUID:  session.UID,
		Window:      agg.Window,
		Timezone:    timezone,
		Busy:        agg.Busy,
		Open:        agg.Open,
		BusyDays:    availability.GroupByDay(busyEntries, loc),
		OpenDays:    availability.GroupByDay(openEntries, loc),
		Excluded:    req.Excluded.IDs(),
		ComputedAt:  s.Clock.Now(),
		FetchErrors: fetchErrors,
	}

	slog.DebugContext(ctx, "computed availability",
		"busy_blocks", len(view.Busy),
		"open_intervals", len(view.Open),
		"excluded", len(view.Excluded))

	return view, nil
}

// resolveWindow returns the session window, or the requested window clipped to
// it.
func resolveWindow(session *models.Session, requested *models.Interval) (models.Interval, error) {
	window := session.Window()
	if err := availability.ValidateWindow(window); err != nil {
		return models.Interval{}, err
	}
	if requested == nil {
		return window, nil
	}
	if err := availability.ValidateWindow(*requested); err != nil {
		return models.Interval{}, err
	}
	clipped, ok := requested.Clip(window)
	if !ok {
		return models.Interval{}, domain.NewValidationError(
			fmt.Sprintf("window %s does not overlap session window %s", requested, window),
			domain.ErrInvalidWindow)
	}
	return clipped, nil
}

// fetchLiveCalendars fetches the calendars of every visible participant on the
// worker pool. A participant whose fetch fails is reported and skipped; any
// events a partial failure still returned are kept.
func (s *AvailabilityService) fetchLiveCalendars(
	ctx context.Context,
	session *models.Session,
	window models.Interval,
	excluded models.VisibilitySet,
) ([]models.BusyEvent, []string) {
	if s.CalendarProvider == nil {
		slog.DebugContext(ctx, "live calendars requested but no calendar provider is configured")
		return nil, nil
	}

	participants := make([]string, 0, len(session.ParticipantIDs))
	for _, id := range session.ParticipantIDs {
		if !excluded.Excludes(id) {
			participants = append(participants, id)
		}
	}

	results := concurrent.Map(ctx, s.pool, participants,
		func(ctx context.Context, participantID string) ([]models.BusyEvent, error) {
			ctx, cancel := context.WithTimeout(ctx, s.Config.CalendarFetchTimeout)
			defer cancel()
			return s.CalendarProvider.FetchBusyEvents(ctx, participantID, window)
		})

	var events []models.BusyEvent
	var fetchErrors []string
	for _, r := range results {
		if r.Err != nil {
			slog.WarnContext(ctx, "failed to fetch participant calendar",
				"participant_id", r.Input, logging.ErrKey, r.Err)
			fetchErrors = append(fetchErrors, fmt.Sprintf("%s: %v", r.Input, r.Err))
		}
		for _, e := range r.Value {
			events = append(events, e.WithOwner(r.Input))
		}
	}
	return events, fetchErrors
}

// mergeEvents appends the extra events not already present by structural key.
func mergeEvents(stored, extra []models.BusyEvent) []models.BusyEvent {
	seen := make(map[models.EventKey]struct{}, len(stored)+len(extra))
	out := make([]models.BusyEvent, 0, len(stored)+len(extra))
	for _, e := range stored {
		seen[e.Key()] = struct{}{}
		out = append(out, e)
	}
	for _, e := range extra {
		if _, ok := seen[e.Key()]; ok {
			continue
		}
		seen[e.Key()] = struct{}{}
		out = append(out, e)
	}
	return out
}

// clipEvents restricts the real busy events to window for display, dropping
// placeholders and events outside it.
func clipEvents(events []models.BusyEvent, window models.Interval) []models.BusyEvent {
	out := make([]models.BusyEvent, 0, len(events))
	for _, e := range availability.SortEvents(events) {
		if e.IsSystemGenerated {
			continue
		}
		if iv, ok := e.Interval.Clip(window); ok {
			out = append(out, e.WithInterval(iv))
		}
	}
	return out
}
