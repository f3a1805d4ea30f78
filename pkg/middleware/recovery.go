package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "opacbookings/pkg/errors"
	httputil "opacbookings/pkg/http"
	"opacbookings/pkg/logger"
)

// Recovery turns a handler panic into a 500 envelope and marks the request
// span as failed. http.ErrAbortHandler is re-raised for net/http.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				err, ok := p.(error)
				if !ok {
					err = fmt.Errorf("%v", p)
				}
				span := trace.SpanFromContext(r.Context())
				span.RecordError(err, trace.WithStackTrace(true))
				span.SetStatus(codes.Error, "panic")

				log.Error("Panic recovered",
					"request_id", RequestIDFrom(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"error", err,
					"stack", string(debug.Stack()),
				)
				_ = httputil.WriteError(w, apperrors.Internal("Internal server error", err))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
