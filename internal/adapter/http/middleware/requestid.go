package middleware

import (
	"net/http"

	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID takes the caller's request id or mints one, stores it in the
// log context and echoes it back in the response.
func (h *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.MustNew().String()
		}

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(wrap.WithRequestID(r.Context(), id)))
	})
}
