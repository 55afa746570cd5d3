package authn

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/crado00/authkit/pkg/config"
	pkgerrors "github.com/crado00/authkit/pkg/errors"
)

type limiterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Throttle applies a fixed-window attempt limit per login identifier. It is
// deliberately separate from Authenticate so the admission protocol itself
// stays free of writes; callers consult Allow before authenticating. A nil
// Throttle admits everything.
type Throttle struct {
	store  limiterStore
	window time.Duration
	limit  int64
}

// NewThrottle builds a throttle over a counter store (typically Redis).
// Returns nil when the configuration disables throttling.
func NewThrottle(store limiterStore, cfg config.ThrottleConfig) *Throttle {
	if store == nil || cfg.Window <= 0 || cfg.IdentifierLimit <= 0 {
		return nil
	}
	return &Throttle{
		store:  store,
		window: cfg.Window,
		limit:  int64(cfg.IdentifierLimit),
	}
}

// Allow counts an attempt for the identifier and fails RATE_LIMIT_EXCEEDED
// once the window limit is crossed. Identifiers are hashed before use as
// counter keys so cleartext usernames never reach the counter store.
func (t *Throttle) Allow(ctx context.Context, identifier string) error {
	if t == nil {
		return nil
	}
	count, err := t.store.IncrWithTTL(ctx, t.key(identifier), t.window)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "throttle counter")
	}
	if count > t.limit {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many authentication attempts")
	}
	return nil
}

func (t *Throttle) key(identifier string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(identifier))))
	return fmt.Sprintf("authn:%s", hex.EncodeToString(sum[:16]))
}
