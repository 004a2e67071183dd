// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// CrisisIDKey is the context key for crisis ID
	CrisisIDKey contextKey = "crisis_id"
	// AgencyIDKey is the context key for agency ID
	AgencyIDKey contextKey = "agency_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id, crisis_id, and agency_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if crisisID, ok := ctx.Value(CrisisIDKey).(string); ok && crisisID != "" {
		newLogger = newLogger.WithCrisisID(crisisID)
	}

	if agencyID, ok := ctx.Value(AgencyIDKey).(string); ok && agencyID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("agency_id", agencyID))}
	}

	return newLogger
}

// WithCrisisID returns a logger scoped to a crisis.
func (l *Logger) WithCrisisID(crisisID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("crisis_id", crisisID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// DispatchEvent logs a dispatch lifecycle event (crisis created, response
// recorded, escalation, closure).
func (l *Logger) DispatchEvent(event, crisisID string, attrs ...slog.Attr) {
	args := make([]any, 0, 2+len(attrs))
	args = append(args, slog.String("event", event), slog.String("crisis_id", crisisID))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	l.Info("dispatch_event", args...)
}

// AgencyEvent logs agency directory status changes.
func (l *Logger) AgencyEvent(event, agencyID, status string) {
	l.Info("agency_event",
		slog.String("event", event),
		slog.String("agency_id", agencyID),
		slog.String("status", status),
	)
}

// CollaboratorFailure logs a best-effort collaborator failure (analyzer,
// transports, archive). These never fail the triggering operation.
func (l *Logger) CollaboratorFailure(collaborator string, err error) {
	l.Warn("collaborator_failure",
		slog.String("collaborator", collaborator),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
