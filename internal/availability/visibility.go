// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package availability contains the pure scheduling algorithms: visibility
// filtering, busy/open aggregation, day segmentation, calendar reconciliation
// and the session edit history. Nothing in this package performs I/O or logs.
package availability

import "github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"

// Visible returns the events whose owner is not excluded, preserving order.
func Visible(events []models.BusyEvent, excluded models.VisibilitySet) []models.BusyEvent {
	out := make([]models.BusyEvent, 0, len(events))
	for _, e := range events {
		if excluded.Excludes(e.OwnerID) {
			continue
		}
		out = append(out, e)
	}
	return out
}
