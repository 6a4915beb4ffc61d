// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"bytes"
	"errors"
	"testing"

	"github.com/akamensky/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestNewJoinCode(t *testing.T) {
	src := bytes.NewReader([]byte{1, 2, 3, 4, 5, 6})

	code, err := NewJoinCode(src, 6)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode([]byte{1, 2, 3, 4, 5, 6}), code)
	assert.True(t, IsJoinCode(code))

	decoded, err := base58.Decode(code)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, decoded)
}

func TestNewJoinCode_Random(t *testing.T) {
	a, err := NewJoinCode(nil, 8)
	require.NoError(t, err)
	b, err := NewJoinCode(nil, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewJoinCode_Errors(t *testing.T) {
	_, err := NewJoinCode(nil, 0)
	assert.Error(t, err)

	_, err = NewJoinCode(failingReader{}, 4)
	assert.ErrorContains(t, err, "entropy exhausted")

	_, err = NewJoinCode(bytes.NewReader([]byte{1}), 4)
	assert.Error(t, err, "short reads fail")
}

func TestIsJoinCode(t *testing.T) {
	tests := []struct {
		code     string
		expected bool
	}{
		{"", false},
		{"3mJr7AoUXx2Wqd", true},
		{"0OIl", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsJoinCode(tt.code))
		})
	}
	assert.Equal(t, "abc", NormalizeJoinCode("  abc\n"))
}
