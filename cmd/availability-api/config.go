// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/constants"
)

const (
	defaultPort              = "8080"
	defaultNatsTimeout       = 10 * time.Second
	defaultNatsMaxReconnect  = 3
	defaultNatsReconnectWait = 2 * time.Second
)

// flags are the command line flags for the availability service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the availability service.
type environment struct {
	Port                 string
	NatsURL              string
	NatsTimeout          time.Duration
	NatsMaxReconnect     int
	NatsReconnectWait    time.Duration
	CalendarSourcesFile  string
	SessionCacheSize     int
	CalendarFetchWorkers int
}

// parseFlags parses command line flags for the availability service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the availability service
func parseEnv() environment {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	return environment{
		Port:                 envString("PORT", defaultPort),
		NatsURL:              natsURL,
		NatsTimeout:          envDuration("NATS_TIMEOUT", defaultNatsTimeout),
		NatsMaxReconnect:     envInt("NATS_MAX_RECONNECT", defaultNatsMaxReconnect),
		NatsReconnectWait:    envDuration("NATS_RECONNECT_WAIT", defaultNatsReconnectWait),
		CalendarSourcesFile:  os.Getenv("CALENDAR_SOURCES_FILE"),
		SessionCacheSize:     envInt("SESSION_CACHE_SIZE", constants.DefaultSessionCacheSize),
		CalendarFetchWorkers: envInt("CALENDAR_FETCH_WORKERS", constants.DefaultCalendarFetchWorkers),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		slog.With(logging.ErrKey, err, "key", key, "value", raw).Warn("invalid integer environment variable, using default")
		return fallback
	}
	return v
}

// envDuration accepts Go durations ("5s") and bare seconds ("5").
func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	slog.With("key", key, "value", raw).Warn("invalid duration environment variable, using default")
	return fallback
}
