package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UserLease is a redis-backed per-user lease used by the sweep so that two
// sweep processes don't reconcile the same user at once. Fail-open: if
// redis is unavailable the lease grants, because the store's conditional
// updates already make a duplicate reconcile harmless.
type UserLease struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewUserLease(rdb *redis.Client, ttl time.Duration) *UserLease {
	return &UserLease{rdb: rdb, ttl: ttl}
}

func (l *UserLease) key(userID int) string {
	return fmt.Sprintf("drip:lease:%d", userID)
}

func (l *UserLease) TryAcquire(ctx context.Context, userID int) bool {
	ok, err := l.rdb.SetNX(ctx, l.key(userID), 1, l.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

func (l *UserLease) Release(ctx context.Context, userID int) {
	_ = l.rdb.Del(ctx, l.key(userID)).Err()
}
