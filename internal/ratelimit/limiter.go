package ratelimit

import (
	"sync"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
)

// limit describes one platform's request budget.
type limit struct {
	maxRequests int
	window      time.Duration
}

// Published platform API budgets.
var platformLimits = map[models.Platform]limit{
	models.PlatformFacebook:  {maxRequests: 200, window: time.Hour},
	models.PlatformInstagram: {maxRequests: 200, window: time.Hour},
	models.PlatformLinkedIn:  {maxRequests: 100, window: 24 * time.Hour},
	models.PlatformTwitter:   {maxRequests: 300, window: 15 * time.Minute},
	models.PlatformTikTok:    {maxRequests: 100, window: time.Hour},
}

// Limiter tracks request timestamps inside a sliding window for one platform.
// Acquire never blocks: it either consumes a slot or reports how long until
// one frees up.
type Limiter struct {
	platform    models.Platform
	maxRequests int
	window      time.Duration

	mu     sync.Mutex
	stamps []time.Time
	now    func() time.Time
}

// New creates a limiter with an explicit budget.
func New(platform models.Platform, maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		platform:    platform,
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// ForPlatform creates a limiter using the platform's published budget.
// Unknown platforms get a conservative 100/hour.
func ForPlatform(platform models.Platform) *Limiter {
	l, ok := platformLimits[platform]
	if !ok {
		l = limit{maxRequests: 100, window: time.Hour}
	}
	return New(platform, l.maxRequests, l.window)
}

// Acquire consumes one request slot. When the window is full it returns a
// *models.RateLimitError carrying the wait until the oldest in-window
// request expires; no slot is consumed in that case.
func (l *Limiter) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.stamps) >= l.maxRequests {
		retryAfter := l.window
		if len(l.stamps) > 0 {
			retryAfter = l.stamps[0].Add(l.window).Sub(now)
		}
		return &models.RateLimitError{Platform: l.platform, RetryAfter: retryAfter}
	}

	l.stamps = append(l.stamps, now)
	return nil
}

// Remaining reports how many request slots are currently free.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return l.maxRequests - len(l.stamps)
}

// MaxRequests returns the window budget.
func (l *Limiter) MaxRequests() int {
	return l.maxRequests
}

// prune drops timestamps that have aged out of the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = l.stamps[i:]
	}
}
