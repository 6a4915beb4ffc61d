// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

// Common key prefixes
const (
	KeyPrefixSession = "session"

	KeyPrefixIndex     = "index"
	KeyPrefixIndexCode = "code"
)

// KeyBuilder provides utilities for building consistent NATS KV keys
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with an optional prefix
func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{
		prefix: prefix,
	}
}

// EntityKey builds a key for an entity (e.g., "session/uid-123")
func (kb *KeyBuilder) EntityKey(entityType, uid string) string {
	return kb.applyPrefix(fmt.Sprintf("%s/%s", entityType, uid))
}

// IndexKey builds a key for a unique index (e.g., "index/code/8fJ2kQ").
// Index values are base64 encoded so that any user supplied value is a
// legal NATS key token.
func (kb *KeyBuilder) IndexKey(indexType, indexValue string) string {
	return kb.applyPrefix(fmt.Sprintf("%s/%s/%s", KeyPrefixIndex, indexType, EncodeToken(indexValue)))
}

// IsIndexKey reports whether key was built by IndexKey.
func (kb *KeyBuilder) IsIndexKey(key string) bool {
	return strings.HasPrefix(key, kb.applyPrefix(KeyPrefixIndex+"/"))
}

// UIDFromEntityKey extracts the uid from a key built by EntityKey.
func (kb *KeyBuilder) UIDFromEntityKey(entityType, key string) (string, bool) {
	return strings.CutPrefix(key, kb.applyPrefix(entityType+"/"))
}

func (kb *KeyBuilder) applyPrefix(key string) string {
	if kb.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", kb.prefix, key)
}

// EncodeToken encodes one key token using URL safe base64 without padding,
// which only produces characters NATS accepts in keys.
//
// NATS limitations: https://docs.nats.io/nats-concepts/jetstream/key-value-store#notes
func EncodeToken(token string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(token))
}

// DecodeToken reverses EncodeToken.
func DecodeToken(token string) (string, error) {
	if token == "" {
		return "", nats.ErrInvalidKey
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
