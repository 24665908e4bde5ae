package ctxutil

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// NewContextWithRequest enriches a request context with tracking metadata used
// by the logger: request ID, client info, start time and the handling operation.
func NewContextWithRequest(ctx context.Context, r *http.Request, module, function string) context.Context {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	ctx = context.WithValue(ctx, ClientIPKey, clientIP(r))
	ctx = context.WithValue(ctx, UserAgentKey, r.UserAgent())
	ctx = context.WithValue(ctx, StartTimeKey, time.Now())
	return WithOperation(ctx, module, function)
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
