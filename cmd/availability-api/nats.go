// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
)

// setupNATS connects to NATS. When the connection is closed for good the
// service is asked to shut down through done.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	slog.With("nats_url", env.NatsURL).InfoContext(ctx, "connecting to NATS")

	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.Name("availability-api"),
		nats.Timeout(env.NatsTimeout),
		nats.DrainTimeout(env.NatsTimeout),
		nats.MaxReconnects(env.NatsMaxReconnect),
		nats.ReconnectWait(env.NatsReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.With(logging.ErrKey, err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.With("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue).Error("async NATS error")
				return
			}
			slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if ctx.Err() != nil {
				// Expected after a drain.
				gracefulCloseWG.Done()
				return
			}
			slog.Error("NATS connection closed unexpectedly", logging.PriorityCritical())
			gracefulCloseWG.Done()
			select {
			case done <- os.Interrupt:
			default:
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	gracefulCloseWG.Add(1)

	return natsConn, nil
}

// getKeyValueStores opens the session buckets, creating them when missing.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*store.NatsSessionRepository, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	sessions, err := keyValue(ctx, js, store.KVStoreNameSessions)
	if err != nil {
		return nil, err
	}
	history, err := keyValue(ctx, js, store.KVStoreNameSessionHistory)
	if err != nil {
		return nil, err
	}

	return store.NewNatsSessionRepository(sessions, history), nil
}

func keyValue(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("opening key-value bucket %s: %w", bucket, err)
	}

	slog.With("bucket", bucket).InfoContext(ctx, "creating key-value bucket")
	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  bucket,
		History: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("creating key-value bucket %s: %w", bucket, err)
	}
	return kv, nil
}

// createNatsSubscriptions subscribes handler to every subject it answers in
// the service queue group so replicas share the load. Messages still pending
// when ctx is cancelled are drained with a context that outlives it.
func createNatsSubscriptions(ctx context.Context, natsConn *nats.Conn, handler domain.MessageHandler, subjects []string) error {
	msgCtx := context.WithoutCancel(ctx)
	for _, subject := range subjects {
		_, err := natsConn.QueueSubscribe(subject, models.AvailabilityAPIQueue, func(msg *nats.Msg) {
			m := messaging.NewNatsMessage(msg)
			handler.HandleMessage(m.Context(msgCtx), m)
		})
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		slog.With("subject", subject, "queue", models.AvailabilityAPIQueue).DebugContext(ctx, "subscribed to NATS subject")
	}
	return nil
}
