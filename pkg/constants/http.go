// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// RequestIDHeader is the header name for the request ID
const RequestIDHeader string = "X-REQUEST-ID"

// contextRequestID is the type for the request ID context key
type contextRequestID string

// RequestIDContextID is the context ID for the request ID
const RequestIDContextID contextRequestID = "X-REQUEST-ID"

// Health check paths served by the probe server.
const (
	LivenessPath  = "/livez"
	ReadinessPath = "/readyz"
)

// IsHealthCheckPath reports whether path is one of the probe endpoints.
func IsHealthCheckPath(path string) bool {
	return path == LivenessPath || path == ReadinessPath
}
