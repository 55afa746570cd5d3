package authn

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/crado00/authkit/pkg/config"
	pkgerrors "github.com/crado00/authkit/pkg/errors"
)

type stubLimiter struct {
	counts  map[string]int64
	failure error
}

func (s *stubLimiter) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if s.failure != nil {
		return 0, s.failure
	}
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[key]++
	return s.counts[key], nil
}

func throttleConfig(limit int) config.ThrottleConfig {
	return config.ThrottleConfig{Window: time.Minute, IdentifierLimit: limit}
}

func TestThrottleAllowsUnderLimit(t *testing.T) {
	throttle := NewThrottle(&stubLimiter{}, throttleConfig(3))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := throttle.Allow(ctx, "alice"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}

	err := throttle.Allow(ctx, "alice")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeRateLimit {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED, got %v", err)
	}
}

func TestThrottleKeysIdentifiersIndependently(t *testing.T) {
	throttle := NewThrottle(&stubLimiter{}, throttleConfig(1))
	ctx := context.Background()

	if err := throttle.Allow(ctx, "alice"); err != nil {
		t.Fatalf("alice: %v", err)
	}
	if err := throttle.Allow(ctx, "bob"); err != nil {
		t.Fatalf("bob must have an independent window: %v", err)
	}
}

func TestThrottleNormalizesIdentifier(t *testing.T) {
	limiter := &stubLimiter{}
	throttle := NewThrottle(limiter, throttleConfig(1))
	ctx := context.Background()

	if err := throttle.Allow(ctx, "Alice"); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	err := throttle.Allow(ctx, "  alice ")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeRateLimit {
		t.Fatalf("case/space variants must share a window, got %v", err)
	}
	if len(limiter.counts) != 1 {
		t.Fatalf("expected one counter key, got %d", len(limiter.counts))
	}
}

func TestThrottleHashesIdentifierKeys(t *testing.T) {
	limiter := &stubLimiter{}
	throttle := NewThrottle(limiter, throttleConfig(5))

	if err := throttle.Allow(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	for key := range limiter.counts {
		if strings.Contains(key, "alice") {
			t.Fatalf("counter key %q leaks the identifier", key)
		}
	}
}

func TestThrottleStoreFailure(t *testing.T) {
	throttle := NewThrottle(&stubLimiter{failure: errors.New("redis down")}, throttleConfig(5))

	err := throttle.Allow(context.Background(), "alice")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInternal {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
}

func TestNilThrottleAdmitsEverything(t *testing.T) {
	var throttle *Throttle
	if err := throttle.Allow(context.Background(), "alice"); err != nil {
		t.Fatalf("nil throttle must admit: %v", err)
	}

	if NewThrottle(nil, throttleConfig(5)) != nil {
		t.Fatal("missing store must yield a nil throttle")
	}
	if NewThrottle(&stubLimiter{}, config.ThrottleConfig{}) != nil {
		t.Fatal("zero config must yield a nil throttle")
	}
}
