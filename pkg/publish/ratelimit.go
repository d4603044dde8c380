/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package publish

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	rateLimitTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tf_report_github_rate_limit_triggered_total",
			Help: "Total number of times a GitHub secondary rate limit was detected",
		},
		[]string{"status_code", "reason"},
	)

	rateLimitRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tf_report_github_rate_limit_retries_total",
			Help: "Total number of automatic retries after a secondary rate limit",
		},
		[]string{"outcome"},
	)
)

// https://docs.github.com/en/rest/using-the-rest-api/rate-limits-for-the-rest-api
// NOTE: Use the Go canonical form (capitals) for these headers, even though
// they are lowercase in the docs.
const (
	headerRetryAfter          = "Retry-After"
	headerXRateLimitReset     = "X-Ratelimit-Reset"
	headerXRateLimitRemaining = "X-Ratelimit-Remaining"
)

// rateLimitWaiter is an http.RoundTripper that pauses and retries when
// GitHub signals a secondary rate limit, instead of surfacing the 403/429
// to the caller.
type rateLimitWaiter struct {
	base              http.RoundTripper
	limiter           *limiter
	clock             clockwork.Clock
	defaultRetryAfter time.Duration
}

// NewRateLimitWaiterClient wraps base in a rate-limit-aware HTTP client.
func NewRateLimitWaiterClient(base http.RoundTripper) *http.Client {
	return &http.Client{Transport: newRateLimitWaiter(base, time.Minute)}
}

func newRateLimitWaiter(base http.RoundTripper, defaultRetryAfter time.Duration) *rateLimitWaiter {
	if base == nil {
		base = http.DefaultTransport
	}
	clock := clockwork.NewRealClock()
	return &rateLimitWaiter{
		base: base,
		limiter: &limiter{
			base:  rate.NewLimiter(rate.Inf, 100),
			clock: clock,
		},
		clock:             clock,
		defaultRetryAfter: defaultRetryAfter,
	}
}

func (w *rateLimitWaiter) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := w.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := w.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if w.processLimit(req, resp) {
		retryReq, err := retryRequest(req)
		if err != nil {
			// The body cannot be replayed; surface the rate-limited
			// response rather than retrying with an empty payload.
			rateLimitRetries.WithLabelValues("unreplayable").Inc()
			return resp, nil
		}
		retryResp, retryErr := w.RoundTrip(retryReq)
		if retryErr != nil {
			rateLimitRetries.WithLabelValues("error").Inc()
		} else {
			rateLimitRetries.WithLabelValues("ok").Inc()
		}
		return retryResp, retryErr
	}

	return resp, nil
}

// retryRequest clones req with a fresh body so a retry never reuses the
// stream the first attempt already consumed.
func retryRequest(req *http.Request) (*http.Request, error) {
	if req.Body == nil {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

// processLimit inspects a response for secondary rate limit signals and
// pauses the limiter accordingly. Returns true when the request should be
// retried after the pause.
func (w *rateLimitWaiter) processLimit(req *http.Request, resp *http.Response) bool {
	log := clog.FromContext(req.Context())

	if resp.StatusCode != http.StatusForbidden &&
		resp.StatusCode != http.StatusTooManyRequests {
		return false
	}

	var (
		retryAfter time.Duration
		reset      time.Time
		remaining  = -1
	)

	if v := resp.Header.Get(headerRetryAfter); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			log.Warnf("failed to parse retry-after header: %v", err)
		} else {
			retryAfter = time.Duration(seconds) * time.Second
		}
	}
	if v := resp.Header.Get(headerXRateLimitRemaining); v != "" {
		r, err := strconv.Atoi(v)
		if err != nil {
			log.Warnf("failed to parse x-ratelimit-remaining header: %v", err)
		} else {
			remaining = r
		}
	}
	if v := resp.Header.Get(headerXRateLimitReset); v != "" {
		seconds, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Warnf("failed to parse x-ratelimit-reset header: %v", err)
		} else {
			reset = time.Unix(seconds, 0)
		}
	}

	statusCode := strconv.Itoa(resp.StatusCode)

	if retryAfter > 0 {
		rateLimitTriggered.WithLabelValues(statusCode, "retry_after").Inc()
		w.limiter.PauseFor(retryAfter)
		return true
	}

	if remaining == 0 && !reset.IsZero() {
		rateLimitTriggered.WithLabelValues(statusCode, "remaining_zero").Inc()
		w.limiter.PauseFor(reset.Sub(w.clock.Now()))
		return true
	}

	rateLimitTriggered.WithLabelValues(statusCode, "default_fallback").Inc()
	w.limiter.PauseFor(w.defaultRetryAfter)
	return true
}

type limiter struct {
	base       *rate.Limiter
	clock      clockwork.Clock
	mu         sync.Mutex
	pauseUntil time.Time
	pauseCh    chan struct{}
}

func (l *limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	pauseCh := l.pauseCh
	l.mu.Unlock()

	if pauseCh != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pauseCh:
		}
	}

	return l.base.Wait(ctx)
}

func (l *limiter) PauseFor(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until := l.clock.Now().Add(d)

	if until.After(l.pauseUntil) {
		l.pauseUntil = until
		if l.pauseCh != nil {
			close(l.pauseCh)
		}
		l.pauseCh = make(chan struct{})

		go func(ch chan struct{}) {
			timer := l.clock.NewTimer(d)
			defer timer.Stop()

			<-timer.Chan()
			l.mu.Lock()
			if ch == l.pauseCh {
				close(ch)
				l.pauseCh = nil
				l.pauseUntil = time.Time{}
			}
			l.mu.Unlock()
		}(l.pauseCh)
	}
}
