/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package publish

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimitWaiterRetriesAfterPause(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	// Short fallback so the test does not sit through the production pause.
	client := &http.Client{Transport: newRateLimitWaiter(nil, 10*time.Millisecond)}

	resp, err := client.Get(ts.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 after retry", resp.StatusCode)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
}

func TestRateLimitWaiterPassesThroughSuccess(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	client := NewRateLimitWaiterClient(nil)
	resp, err := client.Get(ts.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if got := hits.Load(); got != 1 {
		t.Errorf("hits = %d, want exactly 1", got)
	}
}

func TestRateLimitWaiterRetriesWithFullBody(t *testing.T) {
	var hits atomic.Int32
	var retriedBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		retriedBody = string(b)
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	client := &http.Client{Transport: newRateLimitWaiter(nil, 10*time.Millisecond)}
	resp, err := client.Post(ts.URL, "application/json", strings.NewReader(`{"body":"report"}`))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer resp.Body.Close()

	if got := hits.Load(); got != 2 {
		t.Fatalf("hits = %d, want 2", got)
	}
	if retriedBody != `{"body":"report"}` {
		t.Errorf("retried body = %q, want the original payload", retriedBody)
	}
}

func TestRateLimitWaiterHonorsRetryAfter(t *testing.T) {
	var hits atomic.Int32
	start := time.Now()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set(headerRetryAfter, "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	client := &http.Client{Transport: newRateLimitWaiter(nil, time.Minute)}
	resp, err := client.Get(ts.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("retried after %v, want at least the 1s Retry-After", elapsed)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
}
