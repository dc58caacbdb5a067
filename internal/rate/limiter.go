package rate

import (
	"context"
	"fmt"
	"time"
)

// Counter is the KV surface the limiter needs; store.RedisStore satisfies it.
type Counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type Limiter struct {
	kv      Counter
	maxHour int
	maxDay  int
	now     func() time.Time
}

// NewLimiter caps actions per account per UTC hour and day. A limit <= 0 is unlimited.
func NewLimiter(kv Counter, maxHour, maxDay int) *Limiter {
	return &Limiter{kv: kv, maxHour: maxHour, maxDay: maxDay, now: time.Now}
}

// Enabled reports whether any cap is set.
func (l *Limiter) Enabled() bool {
	return l != nil && (l.maxHour > 0 || l.maxDay > 0)
}

// returns allow bool, current count hour, current count day
func (l *Limiter) CheckAndIncr(ctx context.Context, accountID, action string) (bool, int64, int64, error) {
	now := l.now().UTC()
	hourKey := fmt.Sprintf("rl:%s:%s:hour:%s", accountID, action, now.Format("2006010215"))
	dayKey := fmt.Sprintf("rl:%s:%s:day:%s", accountID, action, now.Format("20060102"))

	hc, err := l.kv.IncrWithTTL(ctx, hourKey, time.Hour+5*time.Minute)
	if err != nil {
		return false, 0, 0, err
	}
	dc, err := l.kv.IncrWithTTL(ctx, dayKey, 24*time.Hour+30*time.Minute)
	if err != nil {
		return false, hc, 0, err
	}

	allow := (l.maxHour <= 0 || int(hc) <= l.maxHour) && (l.maxDay <= 0 || int(dc) <= l.maxDay)
	return allow, hc, dc, nil
}
