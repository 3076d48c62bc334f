package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"pixel-earth/internal/domain"
	"pixel-earth/internal/repository"

	"github.com/sirupsen/logrus"
)

// RedisStateRepository 是 StateRepository 接口的 Redis 实现
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStateRepository 创建 RedisStateRepository 实例
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "pe:" // 默认前缀 "pe:" (pixel-earth)
	}
	return &RedisStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key Generation Helpers ---
func (r *RedisStateRepository) boardSnapshotKey() string {
	return r.keyPrefix + "board:snapshot"
}

func (r *RedisStateRepository) boardPubSubChannel() string {
	return r.keyPrefix + "board:pubsub"
}

func (r *RedisStateRepository) rateLimitKey(key string) string {
	return r.keyPrefix + "ratelimit:" + key
}

// --- StateRepository Interface Implementation ---

// GetBoardSnapshot 从 Redis 缓存中获取画板快照。
func (r *RedisStateRepository) GetBoardSnapshot(ctx context.Context) (*domain.BoardSnapshot, error) {
	key := r.boardSnapshotKey()
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("redis: failed to get board snapshot from %s: %w", key, err)
	}
	var snapshot domain.BoardSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal board snapshot from %s: %w", key, err)
	}
	return &snapshot, nil
}

// SetBoardSnapshot 将快照存入 Redis 缓存 (ttl 为 0 表示永不过期)
func (r *RedisStateRepository) SetBoardSnapshot(ctx context.Context, snapshot *domain.BoardSnapshot, ttl time.Duration) error {
	key := r.boardSnapshotKey()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal board snapshot (block %d): %w", snapshot.BlockNumber, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to set board snapshot on key %s: %w", key, err)
	}
	return nil
}

// PublishBoardSnapshot 将快照发布到画板频道。
func (r *RedisStateRepository) PublishBoardSnapshot(ctx context.Context, snapshot *domain.BoardSnapshot) error {
	channel := r.boardPubSubChannel()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal board snapshot for publish: %w", err)
	}
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		logrus.WithFields(logrus.Fields{
			"channel":      channel,
			"payload_size": len(payload),
			"block":        snapshot.BlockNumber,
		}).WithError(err).Error("Redis Publish failed")
		return fmt.Errorf("redis: failed to publish board snapshot to channel %s: %w", channel, err)
	}
	return nil
}

// SubscribeBoardSnapshots 订阅画板频道，无法解析的消息会被丢弃。
func (r *RedisStateRepository) SubscribeBoardSnapshots(ctx context.Context) (<-chan *domain.BoardSnapshot, error) {
	channel := r.boardPubSubChannel()
	pubsub := r.client.Subscribe(ctx, channel)
	// 等待订阅确认，确保之后发布的消息不会丢失
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: failed to subscribe to channel %s: %w", channel, err)
	}

	out := make(chan *domain.BoardSnapshot, 8)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var snapshot domain.BoardSnapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snapshot); err != nil {
					logrus.WithField("channel", channel).WithError(err).Warn("redis: dropping malformed board snapshot message")
					continue
				}
				select {
				case out <- &snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// CheckRateLimit 检查给定 key 的请求频率是否超限，并递增计数。
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	key = r.rateLimitKey(key)
	// 使用 Pipeline 减少网络往返
	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: pipeline failed for rate limit check on key %s: %w", key, err)
	}
	count, err := incrCmd.Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to get incr result for rate limit on key %s: %w", key, err)
	}
	// 窗口从第一次请求开始计算，只在 key 没有过期时间时设置
	if ttlCmd.Val() < 0 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("redis: failed to set rate limit window on key %s: %w", key, err)
		}
	}
	// 如果计数大于限制，则返回 true (表示超限)
	return count > int64(limit), nil
}
