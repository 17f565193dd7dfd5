package middleware

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"yatube/monitoring"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type ServerMiddleware struct {
	handler http.Handler
}

func NewServerMiddleware(handlerToWrap http.Handler) *ServerMiddleware {
	return &ServerMiddleware{handlerToWrap}
}

func (m *ServerMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	monitoring.ActiveConnections.Inc()
	timer := prometheus.NewTimer(monitoring.HttpRequestDuration.WithLabelValues(path))

	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	m.handler.ServeHTTP(recorder, r)

	timer.ObserveDuration()
	monitoring.ActiveConnections.Dec()
	monitoring.HttpRequestsTotal.WithLabelValues(path, strconv.Itoa(recorder.status)).Inc()
}
