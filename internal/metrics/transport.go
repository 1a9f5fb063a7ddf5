package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// RoundTripper records outgoing request count and duration per host.
// A nil *Seed returns next unchanged.
func (m *Seed) RoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if m == nil {
		return next
	}
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)

		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		m.clientDuration.WithLabelValues(r.URL.Host, r.Method).Observe(time.Since(start).Seconds())
		m.clientRequests.WithLabelValues(r.URL.Host, r.Method, status).Inc()
		return resp, err
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
