// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-availability-service/pkg/constants"
)

const gracefulShutdownSeconds = 25

// healthChecker reports whether a dependency is usable.
type healthChecker interface {
	IsConnected() bool
}

// newHealthHandler serves the liveness and readiness probes. The service is
// ready once NATS is connected and the message handler has its services.
func newHealthHandler(conn healthChecker, handler domain.MessageHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(constants.LivenessPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK\n"))
	})
	mux.HandleFunc(constants.ReadinessPath, func(w http.ResponseWriter, _ *http.Request) {
		if conn == nil || !conn.IsConnected() || !handler.HandlerReady() {
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("OK\n"))
	})

	var h http.Handler = mux
	h = middleware.RequestLoggerMiddleware()(h)
	return otelhttp.NewHandler(h, "availability-api")
}

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(flags flags, handler http.Handler, gracefulCloseWG *sync.WaitGroup) *http.Server {
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// ErrServerClosed is returned as soon as Shutdown is called, so the
		// wait group is released by gracefulShutdown instead.
	}()

	return httpServer
}

// gracefulShutdown stops the HTTP server, drains NATS and flushes telemetry.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc, otelShutdown func(context.Context) error) {
	slog.Info("graceful shutdown started")
	cancel()

	ctx, timeoutCancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer timeoutCancel()

	go func() {
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.With(logging.ErrKey, err).Error("http shutdown error")
		}
		gracefulCloseWG.Done()
	}()

	if natsConn != nil && !natsConn.IsClosed() && !natsConn.IsDraining() {
		slog.Info("draining NATS connections")
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
		}
	}

	waited := make(chan struct{})
	go func() {
		gracefulCloseWG.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		slog.Error("graceful shutdown timed out")
	}

	if otelShutdown != nil {
		if err := otelShutdown(ctx); err != nil {
			slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry")
		}
	}
	slog.Info("graceful shutdown complete")
}
