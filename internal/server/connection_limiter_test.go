package server

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnectionLimits_AcquireRelease(t *testing.T) {
	limits := NewConnectionLimits(3, 10, 100.0, 100)

	ok, reason := limits.Acquire("192.168.1.1")
	assert.True(t, ok)
	assert.Equal(t, LimitReason(""), reason)
	assert.Equal(t, int64(1), limits.Current())

	limits.Release("192.168.1.1")
	assert.Equal(t, int64(0), limits.Current())
}

func TestConnectionLimits_GlobalLimitExceeded(t *testing.T) {
	limits := NewConnectionLimits(2, 100, 100.0, 100)

	ok1, _ := limits.Acquire("192.168.1.1")
	ok2, _ := limits.Acquire("192.168.1.2")
	assert.True(t, ok1)
	assert.True(t, ok2)

	ok3, reason := limits.Acquire("192.168.1.3")
	assert.False(t, ok3)
	assert.Equal(t, LimitReasonGlobal, reason)
}

func TestConnectionLimits_PerIPLimitExceeded(t *testing.T) {
	limits := NewConnectionLimits(100, 2, 100.0, 100)

	ok1, _ := limits.Acquire("192.168.1.1")
	ok2, _ := limits.Acquire("192.168.1.1")
	assert.True(t, ok1)
	assert.True(t, ok2)

	ok3, reason := limits.Acquire("192.168.1.1")
	assert.False(t, ok3)
	assert.Equal(t, LimitReasonPerIP, reason)

	// The global slot reserved before the per-IP check is rolled back.
	assert.Equal(t, int64(2), limits.Current())

	// A different IP is unaffected.
	ok4, _ := limits.Acquire("192.168.1.2")
	assert.True(t, ok4)
}

func TestConnectionLimits_RateLimitExceeded(t *testing.T) {
	limits := NewConnectionLimits(100, 100, 2.0, 2)

	ok1, _ := limits.Acquire("192.168.1.1")
	ok2, _ := limits.Acquire("192.168.1.1")
	assert.True(t, ok1)
	assert.True(t, ok2)

	ok3, reason := limits.Acquire("192.168.1.1")
	assert.False(t, ok3)
	assert.Equal(t, LimitReasonRate, reason)
}

func TestConnectionLimits_RatePerIPIndependence(t *testing.T) {
	limits := NewConnectionLimits(100, 100, 2.0, 2)

	limits.Acquire("192.168.1.1")
	limits.Acquire("192.168.1.1")
	ok, reason := limits.Acquire("192.168.1.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonRate, reason)

	// The other IP still has its full burst.
	ok1, _ := limits.Acquire("192.168.1.2")
	ok2, _ := limits.Acquire("192.168.1.2")
	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestConnectionLimits_RateTokenRefill(t *testing.T) {
	// 10 per second, burst of 2: a token becomes available after 100ms.
	limits := NewConnectionLimits(100, 100, 10.0, 2)

	limits.Acquire("192.168.1.1")
	limits.Acquire("192.168.1.1")
	ok, _ := limits.Acquire("192.168.1.1")
	assert.False(t, ok)

	time.Sleep(150 * time.Millisecond)
	ok, _ = limits.Acquire("192.168.1.1")
	assert.True(t, ok)
}

func TestConnectionLimits_Concurrent(t *testing.T) {
	limits := NewConnectionLimits(50, 5, 10000.0, 10000)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	// 10 IPs with 10 attempts each: the per-IP cap of 5 admits exactly 50.
	for ip := 1; ip <= 10; ip++ {
		addr := fmt.Sprintf("192.168.1.%d", ip)
		for conn := 0; conn < 10; conn++ {
			wg.Add(1)
			go func(ip string) {
				defer wg.Done()
				if ok, _ := limits.Acquire(ip); ok {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}(addr)
		}
	}
	wg.Wait()

	assert.Equal(t, 50, successes)
	assert.Equal(t, int64(50), limits.Current())
}

func TestConnectionLimits_CleanupDropsIdleBuckets(t *testing.T) {
	limits := NewConnectionLimits(100, 100, 10.0, 5)

	limits.Acquire("192.168.1.1")
	limits.Acquire("192.168.1.2")

	limits.rateMu.Lock()
	assert.Len(t, limits.limiters, 2)
	limits.limiters["192.168.1.1"].lastSeen = time.Now().Add(-11 * time.Minute)
	limits.cleanupLimiters()
	assert.Len(t, limits.limiters, 1)
	limits.rateMu.Unlock()
}
