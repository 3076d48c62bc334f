package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"pixel-earth/internal/domain"
	"pixel-earth/internal/repository"
)

// mysqlDuplicateEntry 是 MySQL 唯一约束冲突的错误码
const mysqlDuplicateEntry = 1062

// maxListLimit 单次查询购买记录的上限
const maxListLimit = 100

// GormPurchaseRepository 是 PurchaseRepository 接口的 GORM 实现
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository 创建 GormPurchaseRepository 实例
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPurchaseRepository")
	}
	return &GormPurchaseRepository{db: db}
}

// Save 插入一条新的购买记录，交易哈希重复时返回 ErrDuplicateEntry
func (r *GormPurchaseRepository) Save(ctx context.Context, purchase *domain.Purchase) error {
	err := r.db.WithContext(ctx).Create(purchase).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save purchase (tx %s, tile %d): %w", purchase.TxHash, purchase.TileIndex, err)
	}
	return nil
}

// UpdateStatus 更新交易状态和失败原因
func (r *GormPurchaseRepository) UpdateStatus(ctx context.Context, txHash string, status domain.TxStatus, errMsg string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Purchase{}).
		Where("tx_hash = ?", txHash).
		Updates(map[string]interface{}{"status": status, "error": errMsg})
	if result.Error != nil {
		return fmt.Errorf("gorm: update purchase status (tx %s -> %s): %w", txHash, status, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrPurchaseNotFound
	}
	return nil
}

// FindByTxHash 根据交易哈希查找购买记录
func (r *GormPurchaseRepository) FindByTxHash(ctx context.Context, txHash string) (*domain.Purchase, error) {
	var purchase domain.Purchase
	err := r.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("gorm: find purchase by tx hash %s: %w", txHash, err)
	}
	return &purchase, nil
}

// ListRecent 按创建时间倒序返回最近的购买记录
func (r *GormPurchaseRepository) ListRecent(ctx context.Context, limit int) ([]domain.Purchase, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var purchases []domain.Purchase
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list recent purchases (limit %d): %w", limit, err)
	}
	return purchases, nil
}

func isDuplicateEntryError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
