// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

const instrumentationName = "github.com/linuxfoundation/lfx-v2-availability-service/internal/logging"

// OtelBridgeHandler forwards slog records to the global OpenTelemetry logger
// provider. The provider is resolved per record so the handler can be built
// before telemetry is configured.
type OtelBridgeHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewOtelBridgeHandler creates a bridge emitting records at or above level.
func NewOtelBridgeHandler(level slog.Leveler) *OtelBridgeHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &OtelBridgeHandler{level: level}
}

func (h *OtelBridgeHandler) logger() otellog.Logger {
	return global.GetLoggerProvider().Logger(instrumentationName)
}

func (h *OtelBridgeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.level.Level() {
		return false
	}
	return h.logger().Enabled(ctx, otellog.EnabledParameters{Severity: severity(level)})
}

func (h *OtelBridgeHandler) Handle(ctx context.Context, r slog.Record) error {
	var rec otellog.Record
	rec.SetTimestamp(r.Time)
	rec.SetObservedTimestamp(r.Time)
	rec.SetSeverity(severity(r.Level))
	rec.SetSeverityText(r.Level.String())
	rec.SetBody(otellog.StringValue(r.Message))

	kvs := make([]otellog.KeyValue, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		kvs = append(kvs, h.convert(a))
	}
	r.Attrs(func(a slog.Attr) bool {
		kvs = append(kvs, h.convert(a))
		return true
	})
	rec.AddAttributes(kvs...)

	h.logger().Emit(ctx, rec)
	return nil
}

func (h *OtelBridgeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &cp
}

func (h *OtelBridgeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	cp := *h
	cp.groups = append(append([]string{}, h.groups...), name)
	return &cp
}

func (h *OtelBridgeHandler) convert(a slog.Attr) otellog.KeyValue {
	key := a.Key
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	return otellog.KeyValue{Key: key, Value: value(a.Value)}
}

func value(v slog.Value) otellog.Value {
	switch v.Kind() {
	case slog.KindString:
		return otellog.StringValue(v.String())
	case slog.KindInt64:
		return otellog.Int64Value(v.Int64())
	case slog.KindUint64:
		return otellog.Int64Value(int64(v.Uint64()))
	case slog.KindFloat64:
		return otellog.Float64Value(v.Float64())
	case slog.KindBool:
		return otellog.BoolValue(v.Bool())
	case slog.KindDuration:
		return otellog.Int64Value(int64(v.Duration()))
	case slog.KindTime:
		return otellog.StringValue(v.Time().String())
	case slog.KindGroup:
		group := v.Group()
		kvs := make([]otellog.KeyValue, 0, len(group))
		for _, a := range group {
			kvs = append(kvs, otellog.KeyValue{Key: a.Key, Value: value(a.Value)})
		}
		return otellog.MapValue(kvs...)
	case slog.KindLogValuer:
		return value(v.Resolve())
	default:
		if e, ok := v.Any().(error); ok {
			return otellog.StringValue(e.Error())
		}
		return otellog.StringValue(fmt.Sprint(v.Any()))
	}
}

func severity(level slog.Level) otellog.Severity {
	switch {
	case level >= slog.LevelError:
		return otellog.SeverityError
	case level >= slog.LevelWarn:
		return otellog.SeverityWarn
	case level >= slog.LevelInfo:
		return otellog.SeverityInfo
	default:
		return otellog.SeverityDebug
	}
}

// fanoutHandler sends each record to every handler that accepts its level.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
