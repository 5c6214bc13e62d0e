package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ContextKeyCorrelationId contextKey = "correlationId"
)

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationId, correlationId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyCorrelationId).(string)
	return v, ok
}

// CorrelationIdFromContextOrNew returns the correlation id carried by
// ctx, minting a fresh one when absent.
func CorrelationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
