package domain

import "time"

// TxStatus 交易状态
type TxStatus string

const (
	TxIdle      TxStatus = "idle" // 当前没有进行中的交易
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// Purchase 是购买交易的账本记录，用于查询交易状态和历史。
type Purchase struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TxHash    string    `gorm:"uniqueIndex;size:66;not null" json:"tx_hash"` // 0x + 64 位十六进制
	TileIndex int       `gorm:"index;not null" json:"tile_index"`
	ColorCode ColorCode `gorm:"not null" json:"color_code"`
	ImageURL  string    `gorm:"type:text" json:"image_url"`
	Buyer     string    `gorm:"size:42;index" json:"buyer"`      // 钱包地址
	Payment   string    `gorm:"size:78;not null" json:"payment"` // wei 的十进制字符串
	ChainID   uint64    `gorm:"not null" json:"chain_id"`
	Status    TxStatus  `gorm:"size:16;index;not null" json:"status"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
