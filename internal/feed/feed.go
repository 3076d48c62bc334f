// Package feed 把链上读取、Redis 快照缓存和 Pub/Sub 组合成控制器使用的画板读取者。
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pixel-earth/internal/domain"
	"pixel-earth/internal/repository"

	"github.com/sirupsen/logrus"
)

// SnapshotSource 从链上读取画板快照，由 chain.Reader 实现
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*domain.BoardSnapshot, error)
}

// Feed 实现 service.BoardReader。
// 多个实例通过 Redis 频道共享快照，区块高度落后的快照会被丢弃。
type Feed struct {
	source   SnapshotSource
	state    repository.StateRepository
	cacheTTL time.Duration

	mu     sync.Mutex
	subs   map[int]func(domain.Board)
	nextID int
	latest uint64 // 已交付的最高区块
}

// New 创建 Feed。cacheTTL 为 0 表示缓存不过期。
func New(source SnapshotSource, state repository.StateRepository, cacheTTL time.Duration) *Feed {
	if source == nil || state == nil {
		panic("snapshot source and state repository cannot be nil for Feed")
	}
	return &Feed{
		source:   source,
		state:    state,
		cacheTTL: cacheTTL,
		subs:     make(map[int]func(domain.Board)),
	}
}

// Read 读取链上最新画板并写入缓存。链读取失败时退回缓存的快照。
func (f *Feed) Read(ctx context.Context) (domain.Board, error) {
	logCtx := logrus.WithFields(logrus.Fields{"component": "feed", "operation": "Read"})

	snap, err := f.source.Snapshot(ctx)
	if err != nil {
		cached, cacheErr := f.state.GetBoardSnapshot(ctx)
		if cacheErr != nil {
			if !errors.Is(cacheErr, repository.ErrSnapshotNotFound) {
				logCtx.WithError(cacheErr).Warn("Failed to read cached board snapshot")
			}
			return domain.Board{}, fmt.Errorf("read board from chain: %w", err)
		}
		logCtx.WithError(err).WithField("block", cached.BlockNumber).Warn("Chain read failed, serving cached board snapshot")
		return cached.Board, nil
	}

	f.markDelivered(snap.BlockNumber)
	if err := f.state.SetBoardSnapshot(ctx, snap, f.cacheTTL); err != nil {
		logCtx.WithError(err).Warn("Failed to cache board snapshot")
	}
	return snap.Board, nil
}

// ForceRefresh 从链上重新读取、写入缓存并广播给所有实例
func (f *Feed) ForceRefresh(ctx context.Context) error {
	snap, err := f.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read board from chain: %w", err)
	}
	logCtx := logrus.WithFields(logrus.Fields{"component": "feed", "block": snap.BlockNumber, "owned": snap.Board.OwnedCount()})

	if err := f.state.SetBoardSnapshot(ctx, snap, f.cacheTTL); err != nil {
		logCtx.WithError(err).Warn("Failed to cache board snapshot")
	}
	if err := f.state.PublishBoardSnapshot(ctx, snap); err != nil {
		return err
	}
	logCtx.Debug("Board snapshot published")
	return nil
}

// Subscribe 注册快照回调，返回取消函数
func (f *Feed) Subscribe(fn func(domain.Board)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// Run 订阅 Redis 画板频道，把收到的快照交付给订阅者，直到 ctx 结束。
func (f *Feed) Run(ctx context.Context) error {
	ch, err := f.state.SubscribeBoardSnapshots(ctx)
	if err != nil {
		return err
	}
	logrus.WithField("component", "feed").Info("Board snapshot feed started")
	for snap := range ch {
		f.deliver(snap)
	}
	logrus.WithField("component", "feed").Info("Board snapshot feed stopped")
	return ctx.Err()
}

func (f *Feed) deliver(snap *domain.BoardSnapshot) {
	f.mu.Lock()
	if snap.BlockNumber != 0 && snap.BlockNumber < f.latest {
		f.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"component": "feed",
			"block":     snap.BlockNumber,
			"latest":    f.latest,
		}).Debug("Dropping stale board snapshot")
		return
	}
	if snap.BlockNumber > f.latest {
		f.latest = snap.BlockNumber
	}
	fns := make([]func(domain.Board), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(snap.Board)
	}
}

func (f *Feed) markDelivered(block uint64) {
	f.mu.Lock()
	if block > f.latest {
		f.latest = block
	}
	f.mu.Unlock()
}
