package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTokenBucket_Allow(t *testing.T) {
	bucket := newTokenBucket(10, 1.0) // 10 tokens, 1 token per second

	// Should allow 10 requests immediately (burst)
	for i := 0; i < 10; i++ {
		if !bucket.allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	// 11th request should be denied (no tokens left)
	if bucket.allow() {
		t.Error("Expected 11th request to be denied")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := newTokenBucket(10, 1.0) // 1 token per second

	for i := 0; i < 10; i++ {
		bucket.allow()
	}

	// Wait for 1 token to refill
	time.Sleep(1100 * time.Millisecond)

	if !bucket.allow() {
		t.Error("Expected request to be allowed after refill")
	}
	if bucket.allow() {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestTokenBucket_GetStatus(t *testing.T) {
	bucket := newTokenBucket(10, 1.0)

	for i := 0; i < 5; i++ {
		bucket.allow()
	}

	remaining, resetTime := bucket.getStatus()
	if remaining != 5 {
		t.Errorf("Expected 5 remaining tokens, got %d", remaining)
	}
	if resetTime.Before(time.Now()) {
		t.Error("Reset time should be in the future")
	}
}

func TestLimiter_Allow(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	clientID := "127.0.0.1"
	endpoint := "/test"
	method := "GET"

	for i := 0; i < 10; i++ {
		allowed, rateInfo := limiter.Allow(clientID, endpoint, method)
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if rateInfo.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", rateInfo.Limit)
		}
	}

	// 11th request should be denied
	allowed, rateInfo := limiter.Allow(clientID, endpoint, method)
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if rateInfo.RetryAfter <= 0 {
		t.Error("Expected retry after to be positive")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/sessions", "POST")
		if !allowed {
			t.Errorf("Expected request %d to be allowed when disabled", i+1)
		}
	}
}

func TestLimiter_PerClientIsolation(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("10.0.0.1", "/test", "GET"); !allowed {
		t.Error("Expected first client's request to be allowed")
	}
	if allowed, _ := limiter.Allow("10.0.0.1", "/test", "GET"); allowed {
		t.Error("Expected first client's second request to be denied")
	}
	// A different client has its own bucket
	if allowed, _ := limiter.Allow("10.0.0.2", "/test", "GET"); !allowed {
		t.Error("Expected second client's request to be allowed")
	}
}

func TestLimiter_EndpointConfigApplies(t *testing.T) {
	config := &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	// Session creation bursts at 2
	for i := 0; i < 2; i++ {
		if allowed, _ := limiter.Allow("127.0.0.1", "/sessions", "POST"); !allowed {
			t.Errorf("Expected session creation %d to be allowed", i+1)
		}
	}
	allowed, info := limiter.Allow("127.0.0.1", "/sessions", "POST")
	if allowed {
		t.Error("Expected third session creation to be denied")
	}
	if info.Limit != 10 {
		t.Errorf("Expected limit 10, got %d", info.Limit)
	}
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			clientID := fmt.Sprintf("client-%d", n)
			for j := 0; j < 20; j++ {
				limiter.Allow(clientID, "/test", "GET")
			}
		}(i)
	}
	wg.Wait()
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	if got := MatchEndpoint("/sessions", "POST", configs); got == nil || got.Limit != 10 {
		t.Errorf("Expected session creation config, got %+v", got)
	}
	if got := MatchEndpoint("/sessions/abc/interact", "POST", configs); got == nil || got.Limit != 60 {
		t.Errorf("Expected prefix-matched interaction config, got %+v", got)
	}
	if got := MatchEndpoint("/sessions/abc", "GET", configs); got != nil {
		t.Errorf("Expected no config for status polling, got %+v", got)
	}
	if got := MatchEndpoint("/health", "GET", configs); got == nil || got.Limit != 0 {
		t.Errorf("Expected unlimited health config, got %+v", got)
	}
}
