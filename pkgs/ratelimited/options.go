package ratelimited

import (
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Option func(*Endpoint)

func WithClock(clock Clock) Option {
	return func(ep *Endpoint) {
		ep.clock = clock
	}
}

// WithLogger sets the sink every state transition is logged to.
func WithLogger(logger *log.Entry) Option {
	return func(ep *Endpoint) {
		ep.logger = logger
	}
}

// WithPacing spaces calls at most limit per second on top of the window
// budget. A zero limit disables pacing.
func WithPacing(limit rate.Limit) Option {
	return func(ep *Endpoint) {
		if limit <= 0 {
			ep.pacer = nil
			return
		}
		ep.pacer = rate.NewLimiter(limit, 1)
	}
}

func WithInitialBackoff(d time.Duration) Option {
	return func(ep *Endpoint) {
		ep.initialBackoff = d
	}
}
