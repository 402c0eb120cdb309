// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"

	"github.com/engramhq/engram/pkg/api/middleware"
)

// handlerLogger is the minimal logger interface handlers need.
type handlerLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func getRequestID(ctx context.Context) string {
	return middleware.GetRequestID(ctx)
}
