package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether an authenticated identity may proceed.
// The gate middleware consults it after the chain accepts and before the
// identity is recorded, so limited requests never reach the handler.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// TierConfig holds the request budget for one service tier.
type TierConfig struct {
	// RequestsPerMinute caps requests per subject within one window.
	// Zero or negative disables limiting for the tier.
	RequestsPerMinute int
}

// InProcessLimiter counts requests per subject and tier in fixed
// one-minute windows held in memory. State is local to the process;
// deployments running several gateway replicas multiply the effective
// budget accordingly.
type InProcessLimiter struct {
	tiers      map[string]TierConfig
	defaultRPM int

	mu      sync.Mutex
	windows map[string]*window
	swept   time.Time
}

// window is one subject's count within its current minute.
type window struct {
	count    int
	openedAt time.Time
}

// sweepInterval bounds how often expired windows are dropped. Without the
// sweep, every subject ever seen would hold a map entry forever.
const sweepInterval = 5 * time.Minute

// NewInProcessLimiter creates a limiter with per-tier budgets.
// defaultRPM applies to tiers without an explicit entry.
func NewInProcessLimiter(tiers map[string]TierConfig, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		windows:    make(map[string]*window),
		swept:      time.Now(),
	}
}

// Allow counts the request against the identity's window and returns
// ErrTooManyRequests once the tier's budget is exhausted. Identities
// without a service tier count against the "default" tier.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := identity.ServiceTier
	if tier == "" {
		tier = "default"
	}

	rpm := l.defaultRPM
	if tc, ok := l.tiers[tier]; ok {
		rpm = tc.RequestsPerMinute
	}
	if rpm <= 0 {
		return nil
	}

	key := identity.Subject + ":" + tier

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.maybeSweep(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.openedAt) >= time.Minute {
		l.windows[key] = &window{count: 1, openedAt: now}
		return nil
	}

	w.count++
	if w.count > rpm {
		return ErrTooManyRequests
	}
	return nil
}

// maybeSweep drops windows that ended before the current minute. Called
// with l.mu held.
func (l *InProcessLimiter) maybeSweep(now time.Time) {
	if now.Sub(l.swept) < sweepInterval {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.openedAt) >= time.Minute {
			delete(l.windows, key)
		}
	}
	l.swept = now
}
