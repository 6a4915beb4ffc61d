// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextMappingConsistency(t *testing.T) {
	assert.Equal(t, RequestIDHeader, string(RequestIDContextID))
}

func TestIsHealthCheckPath(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/livez", true},
		{"/readyz", true},
		{"/readyz/", false},
		{"/", false},
		{"/metrics", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsHealthCheckPath(tt.path))
		})
	}
}
