package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit limits generation requests per session, falling back to the
// client address for unauthenticated calls.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
		}),
	)
}

func rateLimitKey(r *http.Request) (string, error) {
	if id, ok := IdentityFrom(r.Context()); ok && id.SessionID != "" {
		return "session:" + id.SessionID, nil
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr, nil
	}
	return "ip:" + host, nil
}
