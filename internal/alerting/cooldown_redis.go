package alerting

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisCooldownStore backs the cooldown gate with Redis so multiple
// service instances behind a load balancer share one cooldown window
// instead of each instance alerting independently. SET NX PX is the
// standard distributed-lock idiom: the key only gets written if absent,
// and expires on its own after the cooldown window.
type redisCooldownStore struct {
	client *redis.Client
	prefix string
}

func NewRedisCooldownStore(addr string) CooldownStore {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &redisCooldownStore{client: client, prefix: "crisiswatch:cooldown:"}
}

func (s *redisCooldownStore) Allow(category string, window time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ok, err := s.client.SetNX(ctx, s.prefix+category, 1, window).Result()
	if err != nil {
		// Redis unavailable: fail open rather than silently dropping
		// every alert in the category.
		return true
	}
	return ok
}
