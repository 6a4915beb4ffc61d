// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/akamensky/base58"
)

// NewJoinCode returns a random base58 code encoding n bytes read from r. A nil
// reader uses crypto/rand.
func NewJoinCode(r io.Reader, n int) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	if n <= 0 {
		return "", fmt.Errorf("join code length must be positive, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base58.Encode(buf), nil
}

// NormalizeJoinCode trims surrounding whitespace. Base58 is case sensitive so
// the case is kept.
func NormalizeJoinCode(code string) string {
	return strings.TrimSpace(code)
}

// IsJoinCode reports whether code decodes as base58.
func IsJoinCode(code string) bool {
	if code == "" {
		return false
	}
	_, err := base58.Decode(code)
	return err == nil
}
