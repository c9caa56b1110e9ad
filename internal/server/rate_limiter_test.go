package server

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := newRateLimiter(2, time.Minute)
	r.now = func() time.Time { return now }

	if !r.Allow("acc") || !r.Allow("acc") {
		t.Fatalf("expected first two calls allowed")
	}
	if r.Allow("acc") {
		t.Fatalf("expected third call rejected")
	}
	if !r.Allow("other") {
		t.Fatalf("limits are per key")
	}

	now = now.Add(time.Minute)
	if !r.Allow("acc") {
		t.Fatalf("expected new window")
	}
}

func TestRateLimiterNilAllowsAndEmptyKeyRejected(t *testing.T) {
	var r *rateLimiter
	if !r.Allow("acc") {
		t.Fatalf("nil limiter must allow")
	}
	if newRateLimiter(1, time.Minute).Allow("") {
		t.Fatalf("empty key must be rejected")
	}
}
