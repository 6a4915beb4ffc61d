// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the availability service API. It answers NATS requests about
// shared availability sessions and serves health probes over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/infrastructure/cache"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/infrastructure/calendar"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/utils"
)

func main() {
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry SDK")
		return
	}

	// Calendar feeds are optional; without a sources file calendar sync is
	// reported unavailable.
	sources, err := calendar.LoadSources(env.CalendarSourcesFile)
	if err != nil {
		slog.With(logging.ErrKey, err, "path", env.CalendarSourcesFile).Error("error loading calendar sources")
		return
	}
	var calendarProvider domain.CalendarProvider
	if len(sources.Participants) > 0 {
		provider, err := calendar.NewICSProvider(sources, nil)
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting up calendar provider")
			return
		}
		calendarProvider = provider
	}

	// Setup NATS connection
	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	// Get the key-value stores for the service.
	sessionStore, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		return
	}
	var sessionRepository domain.SessionRepository = sessionStore
	if env.SessionCacheSize > 0 {
		sessionRepository = store.NewCachedSessionRepository(
			sessionStore,
			cache.NewLRUSessionCache(env.SessionCacheSize, constants.DefaultSessionCacheTTL),
		)
	}

	// Initialize services
	serviceConfig := service.ServiceConfig{
		CalendarFetchWorkers: env.CalendarFetchWorkers,
		CalendarFetchTimeout: sources.FetchTimeout,
	}
	messageBuilder := messaging.NewMessageBuilder(natsConn)
	clock := domain.SystemClock
	availabilityService := service.NewAvailabilityService(sessionRepository, calendarProvider, clock, serviceConfig)
	sessionService := service.NewSessionService(sessionRepository, messageBuilder, clock, serviceConfig)
	var calendarSyncService *service.CalendarSyncService
	if calendarProvider != nil {
		calendarSyncService = service.NewCalendarSyncService(calendarProvider, sessionService)
	}

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(availabilityService, sessionService, calendarSyncService)

	httpServer := setupHTTPServer(flags, newHealthHandler(natsConn, sessionHandler), &gracefulCloseWG)

	// Create NATS subscriptions for the service.
	err = createNatsSubscriptions(ctx, natsConn, sessionHandler, sessionHandler.Subjects())
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		return
	}

	slog.Info("availability service started",
		"calendar_participants", len(sources.Participants),
		"session_cache_size", env.SessionCacheSize,
	)

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, &gracefulCloseWG, cancel, otelShutdown)
}
