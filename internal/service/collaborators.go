package service

import (
	"context"
	"math/big"

	"pixel-earth/internal/domain"
)

// BoardReader 是链上状态读取者。
// Subscribe 注册的回调会在每次有新快照时被调用，返回的函数用于取消订阅。
type BoardReader interface {
	Read(ctx context.Context) (domain.Board, error)
	Subscribe(fn func(domain.Board)) (unsubscribe func())
	ForceRefresh(ctx context.Context) error
}

// PurchaseSubmitter 是交易提交者。
type PurchaseSubmitter interface {
	Submit(ctx context.Context, intent domain.PurchaseIntent, payment *big.Int) (*TxHandle, error)
}

// WalletSession 是钱包会话提供者。
type WalletSession interface {
	Connect(ctx context.Context) error
	Connected() bool
	Address() string
	ChainID() uint64
	ChainName() string
	Disconnect()
}

// TxOutcome 是交易的最终结果。
type TxOutcome struct {
	Status domain.TxStatus // TxConfirmed 或 TxFailed
	Err    error           // 失败原因，原样展示给用户
}

// TxHandle 代表一笔已广播的交易。
// Done 在交易完成后恰好收到一个结果。
type TxHandle struct {
	Hash string
	Done <-chan TxOutcome
}
