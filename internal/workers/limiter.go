package workers

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"jobsnap/internal/config"
	"jobsnap/internal/logging"
	"jobsnap/internal/logging/types"
)

// DomainLimiter tracks rate limiting state for a single target domain
type DomainLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	requests int64
	failures int64
	mu       sync.RWMutex
}

// CircuitBreaker trips a domain off after repeated navigation failures so
// a dead or blocking site cannot burn the whole crawl budget
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	failureCount int
	lastFailTime time.Time
	state        CircuitState
	mu           sync.RWMutex
}

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// RateLimiter manages per-domain rate limits and circuit breakers for
// crawl navigations
type RateLimiter struct {
	config          *config.Config
	domainLimiters  map[string]*DomainLimiter
	circuitBreakers map[string]*CircuitBreaker
	mu              sync.RWMutex
	logger          types.Logger
	cleanupTicker   *time.Ticker
	stopCleanup     chan bool
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(cfg *config.Config) *RateLimiter {
	rl := &RateLimiter{
		config:          cfg,
		domainLimiters:  make(map[string]*DomainLimiter),
		circuitBreakers: make(map[string]*CircuitBreaker),
		logger:          logging.GetGlobalLogger().WithField("component", "rate_limiter"),
		cleanupTicker:   time.NewTicker(5 * time.Minute),
		stopCleanup:     make(chan bool),
	}

	go rl.cleanupRoutine()

	return rl
}

// AllowURL checks whether a navigation to the given URL is currently allowed
func (rl *RateLimiter) AllowURL(rawURL string) bool {
	return rl.Allow(DomainFromURL(rawURL))
}

// Allow checks if a request to the given domain is allowed
func (rl *RateLimiter) Allow(domain string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	domain = strings.ToLower(domain)

	if !rl.isCircuitClosed(domain) {
		rl.logger.Debug("Request rejected by circuit breaker", map[string]interface{}{
			"domain": domain,
		})
		return false
	}

	limiter := rl.getDomainLimiter(domain)

	allowed := limiter.limiter.Allow()
	if allowed {
		limiter.mu.Lock()
		limiter.requests++
		limiter.lastSeen = time.Now()
		limiter.mu.Unlock()
	} else {
		rl.logger.Debug("Request rejected by rate limiter", map[string]interface{}{
			"domain": domain,
		})
	}

	return allowed
}

// WaitURL blocks until the domain's limiter admits the navigation or the
// deadline passes. Returns false when the circuit is open or the wait
// budget ran out.
func (rl *RateLimiter) WaitURL(rawURL string, maxWait time.Duration) bool {
	deadline := time.Now().Add(maxWait)
	for {
		if rl.AllowURL(rawURL) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// RecordSuccess records a successful request for the domain
func (rl *RateLimiter) RecordSuccess(domain string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	domain = strings.ToLower(domain)

	if cb, exists := rl.circuitBreakers[domain]; exists {
		cb.mu.Lock()
		if cb.state == CircuitHalfOpen {
			cb.state = CircuitClosed
			cb.failureCount = 0
			rl.logger.Info("Circuit breaker closed after successful request", map[string]interface{}{
				"domain": domain,
			})
		}
		cb.mu.Unlock()
	}
}

// RecordFailure records a failed request for the domain
func (rl *RateLimiter) RecordFailure(domain string, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	domain = strings.ToLower(domain)

	if limiter, exists := rl.domainLimiters[domain]; exists {
		limiter.mu.Lock()
		limiter.failures++
		limiter.mu.Unlock()
	}

	cb := rl.getCircuitBreaker(domain)
	cb.mu.Lock()
	cb.failureCount++
	cb.lastFailTime = time.Now()

	if cb.failureCount >= cb.maxFailures && cb.state == CircuitClosed {
		cb.state = CircuitOpen
		rl.logger.Warn("Circuit breaker opened due to failures", map[string]interface{}{
			"domain":   domain,
			"failures": cb.failureCount,
			"error":    err.Error(),
		})
	}
	cb.mu.Unlock()
}

// getDomainLimiter gets or creates a rate limiter for a domain
func (rl *RateLimiter) getDomainLimiter(domain string) *DomainLimiter {
	if limiter, exists := rl.domainLimiters[domain]; exists {
		return limiter
	}

	// Configured limit is per minute; the token bucket runs per second
	rps := rate.Limit(float64(rl.config.Workers.RateLimit) / 60.0)
	burst := 5

	limiter := &DomainLimiter{
		limiter:  rate.NewLimiter(rps, burst),
		lastSeen: time.Now(),
	}

	rl.domainLimiters[domain] = limiter

	rl.logger.Debug("Created new domain rate limiter", map[string]interface{}{
		"domain": domain,
		"rate":   float64(rps),
		"burst":  burst,
	})

	return limiter
}

// getCircuitBreaker gets or creates a circuit breaker for a domain
func (rl *RateLimiter) getCircuitBreaker(domain string) *CircuitBreaker {
	if cb, exists := rl.circuitBreakers[domain]; exists {
		return cb
	}

	cb := &CircuitBreaker{
		maxFailures:  5,
		resetTimeout: 30 * time.Second,
		state:        CircuitClosed,
	}

	rl.circuitBreakers[domain] = cb
	return cb
}

// isCircuitClosed checks if the circuit breaker allows requests
func (rl *RateLimiter) isCircuitClosed(domain string) bool {
	cb := rl.getCircuitBreaker(domain)

	cb.mu.RLock()
	defer cb.mu.RUnlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.mu.RUnlock()
			cb.mu.Lock()
			if cb.state == CircuitOpen && time.Since(cb.lastFailTime) > cb.resetTimeout {
				cb.state = CircuitHalfOpen
				rl.logger.Info("Circuit breaker transitioned to half-open", map[string]interface{}{
					"domain": domain,
				})
			}
			cb.mu.Unlock()
			cb.mu.RLock()
			return cb.state == CircuitHalfOpen
		}
		return false
	case CircuitHalfOpen:
		return true
	default:
		return false
	}
}

// GetDomainStats returns statistics for a specific domain
func (rl *RateLimiter) GetDomainStats(domain string) map[string]interface{} {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	domain = strings.ToLower(domain)
	stats := make(map[string]interface{})

	if limiter, exists := rl.domainLimiters[domain]; exists {
		limiter.mu.RLock()
		stats["requests"] = limiter.requests
		stats["failures"] = limiter.failures
		stats["last_seen"] = limiter.lastSeen
		stats["limit"] = limiter.limiter.Limit()
		stats["burst"] = limiter.limiter.Burst()
		limiter.mu.RUnlock()
	}

	if cb, exists := rl.circuitBreakers[domain]; exists {
		cb.mu.RLock()
		stats["circuit_state"] = cb.state.String()
		stats["failure_count"] = cb.failureCount
		stats["max_failures"] = cb.maxFailures
		stats["last_fail_time"] = cb.lastFailTime
		cb.mu.RUnlock()
	}

	return stats
}

// GetAllStats returns statistics for all tracked domains
func (rl *RateLimiter) GetAllStats() map[string]map[string]interface{} {
	rl.mu.RLock()
	domains := make(map[string]bool)
	for domain := range rl.domainLimiters {
		domains[domain] = true
	}
	for domain := range rl.circuitBreakers {
		domains[domain] = true
	}
	rl.mu.RUnlock()

	allStats := make(map[string]map[string]interface{})
	for domain := range domains {
		allStats[domain] = rl.GetDomainStats(domain)
	}
	return allStats
}

// cleanupRoutine periodically cleans up old unused limiters
func (rl *RateLimiter) cleanupRoutine() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			rl.cleanupTicker.Stop()
			return
		}
	}
}

// cleanup removes limiters and breakers that have been idle long enough
// that keeping their state serves nothing
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)

	for domain, limiter := range rl.domainLimiters {
		limiter.mu.RLock()
		lastSeen := limiter.lastSeen
		limiter.mu.RUnlock()

		if lastSeen.Before(cutoff) {
			delete(rl.domainLimiters, domain)
		}
	}

	for domain, cb := range rl.circuitBreakers {
		cb.mu.RLock()
		lastFailTime := cb.lastFailTime
		state := cb.state
		cb.mu.RUnlock()

		if state == CircuitClosed && lastFailTime.Before(cutoff) {
			delete(rl.circuitBreakers, domain)
		}
	}
}

// Stop stops the rate limiter and cleanup routine
func (rl *RateLimiter) Stop() {
	rl.stopCleanup <- true
}

// String returns string representation of CircuitState
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// DomainFromURL extracts the lowercased hostname from a URL
func DomainFromURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}

	domain := parsedURL.Hostname()
	if domain == "" {
		return "unknown"
	}

	return strings.ToLower(domain)
}
