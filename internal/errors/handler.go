package errors

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/spinhall-bot/pkg/logger"
	"github.com/Proton-105/spinhall-bot/pkg/metrics"
)

// Handler logs errors, reports severe ones to Sentry and normalizes them into AppErrors
// so the caller can render the user message.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle returns the AppError to show to the user. Unknown errors become a generic one.
func (h *Handler) Handle(ctx context.Context, err error) *AppError {
	if err == nil {
		return nil
	}

	appErr, ok := As(err)
	if !ok {
		appErr = &AppError{
			Code:        "E000",
			Message:     err.Error(),
			MessageKey:  "errors.generic",
			UserMessage: "Something went wrong. Please try again later.",
			Severity:    SeverityHigh,
			cause:       err,
		}
	}

	attrs := []any{
		slog.String("code", appErr.Code),
		slog.String("message", err.Error()),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
	}
	if appErr.Status != 0 {
		attrs = append(attrs, slog.Int("status", appErr.Status))
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	switch appErr.Severity {
	case SeverityLow:
		h.log.Warn("application error", attrs...)
	default:
		h.log.Error("application error", attrs...)
	}

	metrics.RecordError(appErr.Code, string(appErr.Severity))

	if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
		h.sendToSentry(err, appErr)
	}

	return appErr
}

func (h *Handler) sendToSentry(err error, appErr *AppError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		if appErr.Code != "" {
			scope.SetTag("code", appErr.Code)
		}
		if appErr.Severity != "" {
			scope.SetTag("severity", string(appErr.Severity))
		}

		sentry.CaptureException(err)
	})
}
