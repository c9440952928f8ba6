package server

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// LimitReason describes why a connection was rejected.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

// ConnectionLimits guards the WebSocket endpoint with three checks: a global
// concurrent-connection cap, a per-IP cap, and a per-IP token-bucket rate
// limit on new connections.
type ConnectionLimits struct {
	globalCurrent atomic.Int64
	globalMax     int64

	ipMu     sync.Mutex
	perIP    map[string]int
	maxPerIP int

	rateMu    sync.Mutex
	limiters  map[string]*rateLimiterEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewConnectionLimits(globalMax int64, maxPerIP int, connectionsPerSecond float64, burst int) *ConnectionLimits {
	return &ConnectionLimits{
		globalMax: globalMax,
		perIP:     make(map[string]int),
		maxPerIP:  maxPerIP,
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Limit(connectionsPerSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(5 * time.Minute),
	}
}

// Acquire attempts to reserve a connection slot for the given IP. Returns
// false and the first limit that refused it; on success all reservations are
// held until Release.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	if !l.allowRate(ip) {
		return false, LimitReasonRate
	}
	if !l.acquireGlobal() {
		return false, LimitReasonGlobal
	}
	if !l.acquirePerIP(ip) {
		l.globalCurrent.Add(-1)
		return false, LimitReasonPerIP
	}
	return true, ""
}

// Release frees the slots held for the given IP.
func (l *ConnectionLimits) Release(ip string) {
	l.ipMu.Lock()
	if count := l.perIP[ip]; count > 1 {
		l.perIP[ip] = count - 1
	} else if count == 1 {
		delete(l.perIP, ip)
	}
	l.ipMu.Unlock()

	l.globalCurrent.Add(-1)
}

// Current returns the number of reserved connection slots.
func (l *ConnectionLimits) Current() int64 {
	return l.globalCurrent.Load()
}

func (l *ConnectionLimits) acquireGlobal() bool {
	for {
		current := l.globalCurrent.Load()
		if current >= l.globalMax {
			return false
		}
		if l.globalCurrent.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (l *ConnectionLimits) acquirePerIP(ip string) bool {
	l.ipMu.Lock()
	defer l.ipMu.Unlock()

	if l.perIP[ip] >= l.maxPerIP {
		return false
	}
	l.perIP[ip]++
	return true
}

func (l *ConnectionLimits) allowRate(ip string) bool {
	l.rateMu.Lock()
	defer l.rateMu.Unlock()

	if time.Now().After(l.cleanupAt) {
		l.cleanupLimiters()
		l.cleanupAt = time.Now().Add(5 * time.Minute)
	}

	entry, exists := l.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanupLimiters drops buckets idle for 10 minutes. Must be called with
// rateMu held.
func (l *ConnectionLimits) cleanupLimiters() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}
