// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/constants"
)

func TestRequestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		requestID      string
		status         int
		expectedStatus int
	}{
		{
			name:           "liveness probe",
			path:           constants.LivenessPath,
			status:         http.StatusOK,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "keeps the caller's request id",
			path:           constants.ReadinessPath,
			requestID:      "req-42",
			status:         http.StatusServiceUnavailable,
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "handler without explicit status",
			path:           "/",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenID any
			handler := RequestLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenID = r.Context().Value(constants.RequestIDContextID)
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				_, _ = w.Write([]byte("OK\n"))
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.requestID != "" {
				req.Header.Set(constants.RequestIDHeader, tt.requestID)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			id := rec.Header().Get(constants.RequestIDHeader)
			assert.Equal(t, id, seenID)
			if tt.requestID != "" {
				assert.Equal(t, tt.requestID, id)
			} else {
				_, err := uuid.Parse(id)
				assert.NoError(t, err)
			}
		})
	}
}
