package logger

import (
	"context"

	"go.uber.org/zap"
)

type logKey struct{}

// From returns the logger carried by ctx, a nop logger when there is none.
func From(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(logKey{}).(*zap.Logger)
	if !ok {
		return zap.NewNop()
	}
	return l
}

func With(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, l)
}
