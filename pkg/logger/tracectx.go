package logger

import (
	"context"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/trace"
)

type attrsKey struct{}

// WithAttrs кладёт в ctx атрибуты, которые Ctx добавит к каждой записи,
// например req_id запроса.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	prev, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	return context.WithValue(ctx, attrsKey{}, append(slices.Clip(prev), attrs...))
}

// AttrsFromCtx returns the attrs stored by WithAttrs followed by trace ids of
// the active span, if any.
func AttrsFromCtx(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return attrs
	}
	return append(slices.Clip(attrs),
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
