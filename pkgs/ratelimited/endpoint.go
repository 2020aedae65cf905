package ratelimited

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/WangWilly/xCrawl/pkgs/clients/twitterclient"
	"github.com/WangWilly/xCrawl/pkgs/metrics"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

////////////////////////////////////////////////////////////////////////////////

const (
	// ResetPadding is added to the reset time to absorb clock skew.
	ResetPadding = 15 * time.Second
	// ExpiredWindowSleep is used when the window should already have reset
	// but the budget still reads empty.
	ExpiredWindowSleep = 60 * time.Second
	// DefaultInitialBackoff is the first retry delay; it doubles per retry.
	DefaultInitialBackoff = 60 * time.Second
)

////////////////////////////////////////////////////////////////////////////////

// Endpoint wraps one API endpoint and its call budget. All calls share one
// mutex, so an Endpoint may be used from several goroutines but there must be
// only one Endpoint per credential and endpoint.
type Endpoint struct {
	api            twitterclient.API
	name           string
	clock          Clock
	logger         *log.Entry
	pacer          *rate.Limiter
	initialBackoff time.Duration

	mu        sync.Mutex
	remaining int
	reset     time.Time
}

// New wraps endpoint and loads its current budget from the API.
func New(ctx context.Context, api twitterclient.API, endpoint string, opts ...Option) (*Endpoint, error) {
	ep := &Endpoint{
		api:            api,
		name:           endpoint,
		clock:          wallClock{},
		initialBackoff: DefaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(ep)
	}
	if ep.logger == nil {
		ep.logger = log.WithField("caller", "ratelimited.Endpoint")
	}
	ep.logger = ep.logger.WithField("endpoint", endpoint)

	ep.mu.Lock()
	defer ep.mu.Unlock()
	if err := ep.refresh(ctx); err != nil {
		return nil, err
	}
	return ep, nil
}

////////////////////////////////////////////////////////////////////////////////

func (ep *Endpoint) Name() string {
	return ep.name
}

// Remaining returns the locally tracked budget.
func (ep *Endpoint) Remaining() int {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.remaining
}

func (ep *Endpoint) ResetTime() time.Time {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.reset
}

////////////////////////////////////////////////////////////////////////////////

// GetData calls the endpoint with params. It waits out an exhausted budget,
// retries rate limit and transient faults with a doubling backoff, and
// returns gone, denied and unclassified errors to the caller.
func (ep *Endpoint) GetData(ctx context.Context, params url.Values) ([]byte, error) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	backoff := ep.initialBackoff
	for attempt := 1; ; attempt++ {
		if err := ep.waitForBudget(ctx); err != nil {
			return nil, err
		}
		if ep.pacer != nil {
			if err := ep.pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		ep.remaining--
		body, err := ep.api.Get(ctx, ep.name, params)
		if err == nil {
			metrics.IncEndpointCall(ep.name, metrics.OutcomeOK)
			return body, nil
		}

		logger := ep.logger.WithFields(log.Fields{
			"attempt": attempt,
			"backoff": backoff,
		})

		switch {
		case errors.Is(err, twitterclient.ErrRateLimitExceeded):
			metrics.IncEndpointCall(ep.name, metrics.OutcomeRateLimited)
			logger.WithError(err).Warnln("[Endpoint] rate limit exceeded, backing off")
			if err := ep.sleep(ctx, backoff, metrics.SleepRateLimit); err != nil {
				return nil, err
			}
			if err := ep.refresh(ctx); err != nil {
				return nil, err
			}

		case twitterclient.IsRetryable(err):
			metrics.IncEndpointCall(ep.name, metrics.OutcomeTransient)
			logger.WithError(err).Warnln("[Endpoint] transient fault, backing off")
			if err := ep.sleep(ctx, backoff, metrics.SleepBackoff); err != nil {
				return nil, err
			}

		case errors.Is(err, twitterclient.ErrResourceGone):
			metrics.IncEndpointCall(ep.name, metrics.OutcomeGone)
			return nil, err

		case errors.Is(err, twitterclient.ErrAccessDenied):
			metrics.IncEndpointCall(ep.name, metrics.OutcomeDenied)
			return nil, err

		default:
			metrics.IncEndpointCall(ep.name, metrics.OutcomeError)
			return nil, err
		}

		backoff *= 2
		logger.Infoln("[Endpoint] retrying")
	}
}

////////////////////////////////////////////////////////////////////////////////

// waitForBudget blocks until the API reports calls left. The caller holds mu.
func (ep *Endpoint) waitForBudget(ctx context.Context) error {
	for ep.remaining < 1 {
		diff := ep.reset.Sub(ep.clock.Now())
		d := diff + ResetPadding
		if diff < 0 {
			d = ExpiredWindowSleep
		}

		ep.logger.WithFields(log.Fields{
			"reset": ep.reset,
			"sleep": d,
		}).Warnln("[Endpoint] budget exhausted, waiting for window reset")

		if err := ep.sleep(ctx, d, metrics.SleepBudget); err != nil {
			return err
		}
		if err := ep.refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}

// refresh reloads remaining and reset from the API. The caller holds mu.
func (ep *Endpoint) refresh(ctx context.Context) error {
	status, err := ep.api.RateLimitStatus(ctx, twitterclient.ResourceFamily(ep.name))
	if err != nil {
		return fmt.Errorf("rate limit status for %s: %w", ep.name, err)
	}
	w, ok := status.Window(ep.name)
	if !ok {
		return fmt.Errorf("rate limit status for %s: endpoint not listed", ep.name)
	}

	ep.remaining = w.Remaining
	ep.reset = w.Reset

	ep.logger.WithFields(log.Fields{
		"remaining": w.Remaining,
		"reset":     w.Reset,
		"window":    w.Reset.Sub(ep.clock.Now()).Round(time.Second),
	}).Infof("[Endpoint] rate limit status: %d calls remaining", w.Remaining)
	return nil
}

func (ep *Endpoint) sleep(ctx context.Context, d time.Duration, reason string) error {
	logger := ep.logger.WithFields(log.Fields{
		"sleep":  d,
		"reason": reason,
	})
	logger.Debugln("[Endpoint] start sleeping")

	metrics.ObserveEndpointSleep(ep.name, reason, d)
	if err := ep.clock.Sleep(ctx, d); err != nil {
		logger.WithError(err).Warnln("[Endpoint] sleep interrupted")
		return err
	}

	logger.Debugln("[Endpoint] woke up")
	return nil
}
