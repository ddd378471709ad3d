package callback

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRetries       = 2
	defaultInterval      = 200 * time.Millisecond
	defaultTimeout       = 10 * time.Second
	defaultAttempts      = 3
	defaultRecoveryDelay = 5 * time.Second
)

type option struct {
	client        *http.Client
	retries       uint64
	interval      time.Duration
	timeout       time.Duration
	attempts      int
	recoveryDelay time.Duration
	limiter       *rate.Limiter
}

type Option func(*option)

// WithClient replaces the http client, its transport is still wrapped for request logging.
func WithClient(client *http.Client) Option {
	return func(o *option) {
		o.client = client
	}
}

// WithRetry sets the in-process retries of one firing, 0 disables them.
func WithRetry(retries uint64, interval time.Duration) Option {
	return func(o *option) {
		o.retries = retries
		o.interval = interval
	}
}

// WithTimeout bounds every single request.
func WithTimeout(timeout time.Duration) Option {
	return func(o *option) {
		o.timeout = timeout
	}
}

// WithRecovery sets how many times a failed firing is rescheduled and after which delay.
func WithRecovery(attempts int, delay time.Duration) Option {
	return func(o *option) {
		o.attempts = attempts
		o.recoveryDelay = delay
	}
}

// WithRateLimit bounds the requests per second of the job across all its firings, 0 means unlimited.
func WithRateLimit(limit float64, burst int) Option {
	return func(o *option) {
		if limit <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}
