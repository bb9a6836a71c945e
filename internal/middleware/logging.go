package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with its procedure, caller, request ID, duration and outcome. Client-side
// failures (a *connect.Error) log at WARN, anything else at ERROR.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			attrs := []any{
				"procedure", req.Spec().Procedure,
				"user_id", GetUserID(ctx), // empty if pre-auth or auth disabled
			}
			if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
				attrs = append(attrs, "request_id", reqID)
			}

			resp, err := next(ctx, req)

			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())
			var connectErr *connect.Error
			switch {
			case err == nil:
				logger.InfoContext(ctx, "RPC ok", attrs...)
			case errors.As(err, &connectErr):
				attrs = append(attrs, "code", connectErr.Code().String(), "error", connectErr.Message())
				logger.WarnContext(ctx, "RPC error", attrs...)
			default:
				attrs = append(attrs, "error", err)
				logger.ErrorContext(ctx, "RPC error", attrs...)
			}

			return resp, err
		}
	}
}
