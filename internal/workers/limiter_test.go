package workers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsnap/internal/config"
)

func testConfig(t *testing.T, perMinute int) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Workers.RateLimit = perMinute
	return cfg
}

func TestAllowWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testConfig(t, 60))
	defer rl.Stop()

	// burst of 5 tokens is available immediately
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("example.com"), "request %d", i)
	}
	assert.False(t, rl.Allow("example.com"))
}

func TestDomainsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(testConfig(t, 60))
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		rl.Allow("a.example.com")
	}
	assert.False(t, rl.Allow("a.example.com"))
	assert.True(t, rl.Allow("b.example.com"))
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	rl := NewRateLimiter(testConfig(t, 6000))
	defer rl.Stop()

	require.True(t, rl.Allow("down.example.com"))
	for i := 0; i < 5; i++ {
		rl.RecordFailure("down.example.com", errors.New("navigation timeout"))
	}
	assert.False(t, rl.Allow("down.example.com"))

	stats := rl.GetDomainStats("down.example.com")
	assert.Equal(t, "open", stats["circuit_state"])
	assert.Equal(t, 5, stats["failure_count"])
}

func TestHalfOpenClosesOnSuccess(t *testing.T) {
	rl := NewRateLimiter(testConfig(t, 6000))
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		rl.RecordFailure("flaky.example.com", errors.New("boom"))
	}

	// force the reset window to elapse
	rl.mu.Lock()
	cb := rl.circuitBreakers["flaky.example.com"]
	rl.mu.Unlock()
	cb.mu.Lock()
	cb.lastFailTime = time.Now().Add(-time.Minute)
	cb.mu.Unlock()

	assert.True(t, rl.Allow("flaky.example.com"))
	rl.RecordSuccess("flaky.example.com")

	stats := rl.GetDomainStats("flaky.example.com")
	assert.Equal(t, "closed", stats["circuit_state"])
	assert.Equal(t, 0, stats["failure_count"])
}

func TestWaitURLTimesOut(t *testing.T) {
	rl := NewRateLimiter(testConfig(t, 1))
	defer rl.Stop()

	// drain the burst
	for i := 0; i < 5; i++ {
		rl.Allow("slow.example.com")
	}
	start := time.Now()
	ok := rl.WaitURL("https://slow.example.com/jobs", 300*time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestDomainFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://Careers.Kakao.com/jobs/P-1", "careers.kakao.com"},
		{"https://recruit.navercorp.com/rcrt/list.do", "recruit.navercorp.com"},
		{"not a url at all\x7f", "unknown"},
		{"relative/path", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DomainFromURL(tt.url), "url=%q", tt.url)
	}
}
