package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/pickgrader/pkg/logger"
	"github.com/okian/pickgrader/pkg/metrics"
)

var errHandlerPanic = errors.New("handler panic")

// MetricsMiddleware records request count, latency and error class for
// endpoint. A panicking handler is answered with 500 internal_error.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				logger.Get().Named("api").Error(r.Context(), "handler panicked",
					logger.String("endpoint", endpoint), logger.Any("panic", p))
				metrics.RecordErrorByComponent("api", "panic")
				if !rec.wroteHeader {
					writeError(rec, http.StatusInternalServerError, CodeInternal, errHandlerPanic)
				}
			}

			status := strconv.Itoa(rec.status)
			metrics.RecordHTTPRequest(endpoint, r.Method, status)
			metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(start).Microseconds())/1000)
			if rec.status >= http.StatusBadRequest {
				metrics.RecordErrorByEndpoint(endpoint, r.Method, errorClass(rec.status))
			}
		}()

		next.ServeHTTP(rec, r)
	}
}

// errorClass buckets a failing status into a low-cardinality label.
func errorClass(status int) string {
	switch {
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "rate_limit"
	case status == http.StatusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}

// statusRecorder remembers the status code sent through it.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status, rw.wroteHeader = code, true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
