// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"time"

	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/constants"
)

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// CalendarFetchWorkers bounds the concurrent calendar fetches of one recompute.
	CalendarFetchWorkers int
	// CalendarFetchTimeout bounds the calendar fetch of a single participant.
	CalendarFetchTimeout time.Duration
}

// DefaultServiceConfig returns the configuration used when nothing is set.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		CalendarFetchWorkers: constants.DefaultCalendarFetchWorkers,
		CalendarFetchTimeout: constants.DefaultCalendarFetchTimeout,
	}
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.CalendarFetchWorkers <= 0 {
		c.CalendarFetchWorkers = constants.DefaultCalendarFetchWorkers
	}
	if c.CalendarFetchTimeout <= 0 {
		c.CalendarFetchTimeout = constants.DefaultCalendarFetchTimeout
	}
	return c
}
