// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linuxfoundation/lfx-v2-availability-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NatsBaseRepository provides the typed KV operations shared by the
// repositories: traced reads and writes with revision checks, mapped onto
// domain errors.
type NatsBaseRepository[T any] struct {
	kvStore    INatsKeyValue
	codec      Codec
	entityName string // Used in error messages (e.g., "session", "history")
}

// NewNatsBaseRepository creates a base repository storing T with codec.
// A nil codec selects JSON.
func NewNatsBaseRepository[T any](kvStore INatsKeyValue, entityName string, codec Codec) *NatsBaseRepository[T] {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &NatsBaseRepository[T]{
		kvStore:    kvStore,
		codec:      codec,
		entityName: entityName,
	}
}

// IsReady checks if the repository is ready for use
func (r *NatsBaseRepository[T]) IsReady() bool {
	return r.kvStore != nil
}

func (r *NatsBaseRepository[T]) startSpan(ctx context.Context, op, key string, extra ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", "nats"),
		attribute.String("db.operation", op),
		attribute.String("db.nats.entity", r.entityName),
		attribute.String("db.nats.codec", r.codec.Name()),
	}
	if key != "" {
		attrs = append(attrs, attribute.String("db.nats.key", key))
	}
	return otel.Tracer(tracerName).Start(ctx, "nats.kv."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, extra...)...),
	)
}

// fail records err on span and returns it.
func fail(span trace.Span, err error, status string) error {
	if status == "" {
		status = err.Error()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}

func (r *NatsBaseRepository[T]) unavailable() error {
	return domain.NewUnavailableError(fmt.Sprintf("%s repository is not available", r.entityName))
}

// mapWriteError translates JetStream write failures. Revision mismatches
// surface as conflicts so callers can re-read and retry.
func (r *NatsBaseRepository[T]) mapWriteError(ctx context.Context, span trace.Span, err error, op, key string) error {
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return fail(span, domain.NewNotFoundError(fmt.Sprintf("%s not found", r.entityName), err), "not found")
	}
	if errors.Is(err, jetstream.ErrKeyExists) || strings.Contains(err.Error(), "wrong last sequence") {
		return fail(span, domain.NewConflictError(fmt.Sprintf("%s has been modified", r.entityName), err), "conflict")
	}
	slog.ErrorContext(ctx, fmt.Sprintf("error during %s of %s in NATS KV", op, r.entityName),
		logging.ErrKey, err, "key", key)
	return fail(span, domain.NewInternalError(fmt.Sprintf("failed to %s %s in store", op, r.entityName), err), "")
}

// GetRaw retrieves the raw entry stored under key.
func (r *NatsBaseRepository[T]) GetRaw(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	ctx, span := r.startSpan(ctx, "get", key)
	defer span.End()

	if !r.IsReady() {
		return nil, fail(span, r.unavailable(), "")
	}

	entry, err := r.kvStore.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fail(span, domain.NewNotFoundError(
				fmt.Sprintf("%s with key '%s' not found", r.entityName, key), err), "not found")
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error getting %s from NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		return nil, fail(span, domain.NewInternalError(
			fmt.Sprintf("failed to retrieve %s from store", r.entityName), err), "")
	}

	span.SetStatus(codes.Ok, "")
	return entry, nil
}

// Get retrieves and decodes the entity stored under key.
func (r *NatsBaseRepository[T]) Get(ctx context.Context, key string) (*T, error) {
	entity, _, err := r.GetWithRevision(ctx, key)
	return entity, err
}

// GetWithRevision retrieves an entity with its revision from NATS KV store
func (r *NatsBaseRepository[T]) GetWithRevision(ctx context.Context, key string) (*T, uint64, error) {
	entry, err := r.GetRaw(ctx, key)
	if err != nil {
		return nil, 0, err
	}

	entity, err := r.Decode(ctx, entry.Value())
	if err != nil {
		return nil, 0, domain.NewInternalError(
			fmt.Sprintf("failed to decode %s data", r.entityName), err)
	}

	return entity, entry.Revision(), nil
}

// Decode turns stored bytes into the entity type.
func (r *NatsBaseRepository[T]) Decode(ctx context.Context, data []byte) (*T, error) {
	var entity T
	if err := r.codec.Unmarshal(data, &entity); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error decoding %s", r.entityName),
			logging.ErrKey, err, "codec", r.codec.Name())
		return nil, err
	}
	return &entity, nil
}

// Encode turns the entity into stored bytes.
func (r *NatsBaseRepository[T]) Encode(ctx context.Context, entity *T) ([]byte, error) {
	data, err := r.codec.Marshal(entity)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error encoding %s", r.entityName),
			logging.ErrKey, err, "codec", r.codec.Name())
		return nil, err
	}
	return data, nil
}

// Exists checks if an entity exists in the store
func (r *NatsBaseRepository[T]) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.GetRaw(ctx, key)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Put stores entity under key unconditionally and returns the new revision.
func (r *NatsBaseRepository[T]) Put(ctx context.Context, key string, entity *T) (uint64, error) {
	ctx, span := r.startSpan(ctx, "put", key)
	defer span.End()

	if !r.IsReady() {
		return 0, fail(span, r.unavailable(), "")
	}

	data, err := r.Encode(ctx, entity)
	if err != nil {
		return 0, fail(span, domain.NewInternalError(fmt.Sprintf("failed to encode %s", r.entityName), err), "")
	}

	revision, err := r.kvStore.Put(ctx, key, data)
	if err != nil {
		return 0, r.mapWriteError(ctx, span, err, "put", key)
	}

	span.SetAttributes(attribute.Int64("db.nats.revision", int64(revision)))
	span.SetStatus(codes.Ok, "")
	return revision, nil
}

// Update replaces the entity under key if the stored revision still matches.
func (r *NatsBaseRepository[T]) Update(ctx context.Context, key string, entity *T, revision uint64) (uint64, error) {
	ctx, span := r.startSpan(ctx, "update", key, attribute.Int64("db.nats.revision", int64(revision)))
	defer span.End()

	if !r.IsReady() {
		return 0, fail(span, r.unavailable(), "")
	}

	data, err := r.Encode(ctx, entity)
	if err != nil {
		return 0, fail(span, domain.NewInternalError(fmt.Sprintf("failed to encode %s", r.entityName), err), "")
	}

	next, err := r.kvStore.Update(ctx, key, data, revision)
	if err != nil {
		return 0, r.mapWriteError(ctx, span, err, "update", key)
	}

	span.SetStatus(codes.Ok, "")
	return next, nil
}

// Delete removes the entity under key. A zero revision skips the check.
func (r *NatsBaseRepository[T]) Delete(ctx context.Context, key string, revision uint64) error {
	ctx, span := r.startSpan(ctx, "delete", key, attribute.Int64("db.nats.revision", int64(revision)))
	defer span.End()

	if !r.IsReady() {
		return fail(span, r.unavailable(), "")
	}

	var opts []jetstream.KVDeleteOpt
	if revision > 0 {
		opts = append(opts, jetstream.LastRevision(revision))
	}
	if err := r.kvStore.Delete(ctx, key, opts...); err != nil {
		return r.mapWriteError(ctx, span, err, "delete", key)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListKeys lists every key in the bucket.
func (r *NatsBaseRepository[T]) ListKeys(ctx context.Context) ([]string, error) {
	ctx, span := r.startSpan(ctx, "list_keys", "")
	defer span.End()

	if !r.IsReady() {
		return nil, fail(span, r.unavailable(), "")
	}

	lister, err := r.kvStore.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			span.SetStatus(codes.Ok, "")
			return []string{}, nil
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error listing %s keys from NATS KV", r.entityName),
			logging.ErrKey, err)
		return nil, fail(span, domain.NewInternalError(
			fmt.Sprintf("failed to list %s keys from store", r.entityName), err), "")
	}
	defer func() { _ = lister.Stop() }()

	keys := []string{}
	for key := range lister.Keys() {
		keys = append(keys, key)
	}

	span.SetAttributes(attribute.Int("db.nats.keys_count", len(keys)))
	span.SetStatus(codes.Ok, "")
	return keys, nil
}

// PutIndex writes an index entry whose value is the uid it points to.
func (r *NatsBaseRepository[T]) PutIndex(ctx context.Context, indexKey, uid string) error {
	if !r.IsReady() {
		return r.unavailable()
	}

	if _, err := r.kvStore.Put(ctx, indexKey, []byte(uid)); err != nil {
		slog.ErrorContext(ctx, "error creating index",
			logging.ErrKey, err, "index_key", indexKey)
		return domain.NewInternalError("failed to create index", err)
	}
	return nil
}

// LookupIndex returns the uid an index entry points to.
func (r *NatsBaseRepository[T]) LookupIndex(ctx context.Context, indexKey string) (string, error) {
	entry, err := r.GetRaw(ctx, indexKey)
	if err != nil {
		return "", err
	}
	return string(entry.Value()), nil
}

// DeleteIndex removes an index entry. A missing entry is not an error.
func (r *NatsBaseRepository[T]) DeleteIndex(ctx context.Context, indexKey string) error {
	if !r.IsReady() {
		return r.unavailable()
	}

	err := r.kvStore.Delete(ctx, indexKey)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		slog.WarnContext(ctx, "error deleting index",
			logging.ErrKey, err, "index_key", indexKey)
		return domain.NewInternalError("failed to delete index", err)
	}
	return nil
}
