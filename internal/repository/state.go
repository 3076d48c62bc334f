package repository

import (
	"context"
	"time"

	"pixel-earth/internal/domain"
)

// StateRepository 定义了画板实时状态相关的操作，通常由 Redis 实现。
type StateRepository interface {
	// === Board Snapshot Cache ===

	// GetBoardSnapshot 获取最近一次从链上读取的画板快照。
	// 缓存未命中时返回 ErrSnapshotNotFound。
	GetBoardSnapshot(ctx context.Context) (*domain.BoardSnapshot, error)

	// SetBoardSnapshot 缓存画板快照，ttl 为 0 表示不过期。
	SetBoardSnapshot(ctx context.Context, snapshot *domain.BoardSnapshot, ttl time.Duration) error

	// === PubSub ===

	// PublishBoardSnapshot 将新快照发布到画板频道，供所有实例接收。
	PublishBoardSnapshot(ctx context.Context, snapshot *domain.BoardSnapshot) error

	// SubscribeBoardSnapshots 订阅画板频道。
	// 返回的 channel 在 ctx 结束或订阅关闭后关闭。
	SubscribeBoardSnapshots(ctx context.Context) (<-chan *domain.BoardSnapshot, error)

	// === Rate Limiting ===

	// CheckRateLimit 检查给定 key 的请求频率是否超限，并递增计数。
	// 返回 true 如果超限。
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
