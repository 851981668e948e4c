package logic

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// FallbackHashKey holds one field per (situation, level) pair.
	FallbackHashKey = "playcall:fallback"
	// SnapshotChannel announces the id of every saved snapshot.
	SnapshotChannel = "playcall:snapshots"
)

// RedisFallbackStats counts fallback levels per specific situation key in a
// Redis hash, so the counters survive restarts and aggregate across replicas.
type RedisFallbackStats struct {
	client RedisClient
}

func NewRedisFallbackStats(client RedisClient) *RedisFallbackStats {
	return &RedisFallbackStats{client: client}
}

func fallbackField(specificKey, level string) string {
	return specificKey + "|" + level
}

func (s *RedisFallbackStats) Record(ctx context.Context, specificKey, level string) error {
	return s.client.HIncrBy(ctx, FallbackHashKey, fallbackField(specificKey, level), 1).Err()
}

// Counts returns counters keyed by situation, then level.
func (s *RedisFallbackStats) Counts(ctx context.Context) (map[string]map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, FallbackHashKey).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]int64)
	for field, val := range raw {
		i := strings.LastIndex(field, "|")
		if i < 0 {
			continue
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("fallback counter %s: %w", field, err)
		}
		key, level := field[:i], field[i+1:]
		if out[key] == nil {
			out[key] = make(map[string]int64)
		}
		out[key][level] = n
	}
	return out, nil
}

// SnapshotNotifier tells other replicas that a new snapshot exists.
type SnapshotNotifier interface {
	Notify(ctx context.Context, id string) error
}

// Subscriber is the subscribing half of a Redis client.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisSnapshotNotifier publishes snapshot ids on SnapshotChannel and
// reloads when a peer announces one.
type RedisSnapshotNotifier struct {
	client    RedisClient
	logger    *zap.SugaredLogger
	published sync.Map
}

func NewRedisSnapshotNotifier(client RedisClient, logger *zap.Logger) *RedisSnapshotNotifier {
	return &RedisSnapshotNotifier{client: client, logger: logger.Sugar()}
}

func (n *RedisSnapshotNotifier) Notify(ctx context.Context, id string) error {
	n.published.Store(id, struct{}{})
	return n.client.Publish(ctx, SnapshotChannel, id).Err()
}

// Watch calls reload for every snapshot announced by another replica and
// blocks until ctx is done.
func (n *RedisSnapshotNotifier) Watch(ctx context.Context, sub Subscriber, reload func(context.Context) error) error {
	ps := sub.Subscribe(ctx, SnapshotChannel)
	defer ps.Close()

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if _, own := n.published.LoadAndDelete(msg.Payload); own {
				continue
			}
			n.logger.Infow("Peer announced snapshot", "id", msg.Payload)
			if err := reload(ctx); err != nil {
				n.logger.Errorw("Snapshot reload failed", "id", msg.Payload, "error", err)
			}
		}
	}
}
