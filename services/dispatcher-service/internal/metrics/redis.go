package metrics

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "incidents:events:"

// RedisSink keeps counters in redis so they survive restarts, are
// shared across dispatcher instances, and can be read back by the ops
// stats endpoint.
type RedisSink struct {
	rdb *redis.Client
}

func NewRedisSink(rdb *redis.Client) *RedisSink {
	return &RedisSink{rdb: rdb}
}

func (s *RedisSink) Inc(ctx context.Context, eventType string, priority string, status string) error {
	return s.rdb.Incr(ctx, counterKey(eventType, priority, status)).Err()
}

// Totals reads every counter back, keyed by "<type>:<priority>:<status>".
func (s *RedisSink) Totals(ctx context.Context) (map[string]int64, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	totals := make(map[string]int64, len(keys))
	if len(keys) == 0 {
		return totals, nil
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		totals[strings.TrimPrefix(keys[i], keyPrefix)] = n
	}
	return totals, nil
}

func counterKey(eventType string, priority string, status string) string {
	return keyPrefix + eventType + ":" + priority + ":" + status
}
