// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validNatsKey mirrors the key rule enforced by the NATS server.
var validNatsKey = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

func TestKeyBuilder_EntityKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected string
	}{
		{name: "without prefix", prefix: "", expected: "session/uid-1"},
		{name: "with prefix", prefix: "tenant", expected: "tenant/session/uid-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.prefix)
			key := kb.EntityKey(KeyPrefixSession, "uid-1")
			assert.Equal(t, tt.expected, key)

			uid, ok := kb.UIDFromEntityKey(KeyPrefixSession, key)
			assert.True(t, ok)
			assert.Equal(t, "uid-1", uid)
		})
	}
}

func TestKeyBuilder_IndexKey(t *testing.T) {
	kb := NewKeyBuilder("")

	for _, value := range []string{"8fJ2kQ", "has space", "weird*>chars", "ünïcode"} {
		t.Run(value, func(t *testing.T) {
			key := kb.IndexKey(KeyPrefixIndexCode, value)
			assert.Regexp(t, validNatsKey, key)
			assert.True(t, kb.IsIndexKey(key))
			assert.False(t, kb.IsIndexKey(kb.EntityKey(KeyPrefixSession, value)))

			decoded, err := DecodeToken(key[len("index/code/"):])
			require.NoError(t, err)
			assert.Equal(t, value, decoded)
		})
	}
}

func TestDecodeToken_Invalid(t *testing.T) {
	_, err := DecodeToken("")
	assert.Error(t, err)

	_, err = DecodeToken("not base64!")
	assert.Error(t, err)
}
