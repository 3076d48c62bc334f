package repository

import (
	"context"

	"pixel-earth/internal/domain"
)

// PurchaseRepository 定义了购买交易账本的存储和查询。
type PurchaseRepository interface {
	// Save 保存一条新的购买记录 (通常状态为 pending)。
	// TxHash 重复时返回 ErrDuplicateEntry。
	Save(ctx context.Context, purchase *domain.Purchase) error

	// UpdateStatus 更新交易的最终状态。
	// 记录不存在时返回 ErrPurchaseNotFound。
	UpdateStatus(ctx context.Context, txHash string, status domain.TxStatus, errMsg string) error

	// FindByTxHash 根据交易哈希查找记录。
	FindByTxHash(ctx context.Context, txHash string) (*domain.Purchase, error)

	// ListRecent 按创建时间倒序返回最近的购买记录。
	ListRecent(ctx context.Context, limit int) ([]domain.Purchase, error)
}
