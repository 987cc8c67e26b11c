package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle counts failed login attempts per email in Redis so that
// credential stuffing is slowed down independently of the per-IP rate limit.
type LoginThrottle struct {
	client      *redis.Client
	maxFailures int
	window      time.Duration
}

// NewLoginThrottle constructs a throttle. With a nil client every attempt is
// allowed, which keeps Redis optional in development.
func NewLoginThrottle(client *redis.Client, maxFailures int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, maxFailures: maxFailures, window: window}
}

// Allow reports whether a login attempt for the email may proceed.
func (t *LoginThrottle) Allow(ctx context.Context, email string) (bool, error) {
	if t == nil || t.client == nil {
		return true, nil
	}
	count, err := t.client.Get(ctx, t.key(email)).Int()
	if err != nil {
		if err == redis.Nil {
			return true, nil
		}
		return true, err
	}
	return count < t.maxFailures, nil
}

// RecordFailure increments the failure counter, starting the window on the
// first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) error {
	if t == nil || t.client == nil {
		return nil
	}
	key := t.key(email)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return t.client.Expire(ctx, key, t.window).Err()
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Del(ctx, t.key(email)).Err()
}

func (t *LoginThrottle) key(email string) string {
	return fmt.Sprintf("login_fail:%s", strings.ToLower(strings.TrimSpace(email)))
}
