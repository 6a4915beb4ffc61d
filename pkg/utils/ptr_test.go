// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPtrDerefRoundTrip(t *testing.T) {
	s := Ptr("hello")
	require.NotNil(t, s)
	assert.Equal(t, "hello", Deref(s))

	n := Ptr(42)
	assert.Equal(t, 42, Deref(n))

	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, now, Deref(Ptr(now)))
}

func TestPointerIndependence(t *testing.T) {
	value := "original"
	p := Ptr(value)
	value = "changed"

	assert.Equal(t, "original", *p)
	assert.Equal(t, "changed", value)
}

func TestDerefNil(t *testing.T) {
	assert.Equal(t, "", Deref[string](nil))
	assert.Equal(t, 0, Deref[int](nil))
	assert.False(t, Deref[bool](nil))
	assert.True(t, Deref[time.Time](nil).IsZero())
}
