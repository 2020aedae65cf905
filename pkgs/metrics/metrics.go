package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////////////////////////
// Collectors
////////////////////////////////////////////////////////////////////////////////

var (
	EndpointCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xcrawl_endpoint_calls_total",
		Help: "API calls issued through a rate limited endpoint, by outcome",
	}, []string{"endpoint", "outcome"})

	EndpointSleeps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xcrawl_endpoint_sleeps_total",
		Help: "Sleeps taken by a rate limited endpoint, by reason",
	}, []string{"endpoint", "reason"})

	EndpointSleepSeconds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xcrawl_endpoint_sleep_seconds_total",
		Help: "Seconds spent sleeping in a rate limited endpoint",
	}, []string{"endpoint"})

	FilterDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xcrawl_filter_decisions_total",
		Help: "Tweet filter decisions, by filter and decision",
	}, []string{"filter", "decision"})
)

func init() {
	prometheus.MustRegister(EndpointCalls, EndpointSleeps, EndpointSleepSeconds, FilterDecisions)
}

////////////////////////////////////////////////////////////////////////////////
// Helpers
////////////////////////////////////////////////////////////////////////////////

// Outcome labels for EndpointCalls.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeTransient   = "transient"
	OutcomeGone        = "gone"
	OutcomeDenied      = "denied"
	OutcomeError       = "error"
)

// Sleep reasons for EndpointSleeps.
const (
	SleepBudget    = "budget"
	SleepRateLimit = "rate_limit"
	SleepBackoff   = "backoff"
)

func IncEndpointCall(endpoint, outcome string) {
	EndpointCalls.WithLabelValues(endpoint, outcome).Inc()
}

func ObserveEndpointSleep(endpoint, reason string, d time.Duration) {
	EndpointSleeps.WithLabelValues(endpoint, reason).Inc()
	EndpointSleepSeconds.WithLabelValues(endpoint).Add(d.Seconds())
}

func IncFilterDecision(filter string, accepted bool) {
	decision := "rejected"
	if accepted {
		decision = "accepted"
	}
	FilterDecisions.WithLabelValues(filter, decision).Inc()
}

////////////////////////////////////////////////////////////////////////////////
// Server
////////////////////////////////////////////////////////////////////////////////

// Handler returns the mux served by Serve.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Serve exposes /metrics on addr until ctx is done. An empty addr is a no-op.
func Serve(ctx context.Context, addr string) {
	if addr == "" {
		return
	}

	srv := &http.Server{Addr: addr, Handler: Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		log.WithField("addr", addr).Infoln("[Metrics] serving")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Errorln("[Metrics] server stopped")
		}
	}()
}
