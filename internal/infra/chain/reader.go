package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"pixel-earth/internal/domain"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// CallBackend 是读取合约所需的最小链接口，*ethclient.Client 满足该接口
type CallBackend interface {
	bind.ContractCaller
	BlockNumber(ctx context.Context) (uint64, error)
}

// Reader 通过 getEarths() 读取全部格子状态
type Reader struct {
	backend  CallBackend
	contract *bind.BoundContract
	now      func() time.Time
}

// NewReader 创建合约读取器
func NewReader(address common.Address, backend CallBackend) (*Reader, error) {
	parsed, err := ParseABI()
	if err != nil {
		return nil, err
	}
	return &Reader{
		backend:  backend,
		contract: bind.NewBoundContract(address, parsed, backend, nil, nil),
		now:      time.Now,
	}, nil
}

// Snapshot 在最新区块上读取画板。
// 合约返回的记录少于 100 条时，剩余格子视为未购买；多出的记录被忽略。
func (r *Reader) Snapshot(ctx context.Context) (*domain.BoardSnapshot, error) {
	head, err := r.backend.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get block number: %w", err)
	}

	var out []interface{}
	opts := &bind.CallOpts{Context: ctx, BlockNumber: new(big.Int).SetUint64(head)}
	if err := r.contract.Call(opts, &out, methodGetEarths); err != nil {
		return nil, fmt.Errorf("call %s: %w", methodGetEarths, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("call %s: unexpected %d return values", methodGetEarths, len(out))
	}
	records := *abi.ConvertType(out[0], new([]earthRecord)).(*[]earthRecord)

	if len(records) != domain.BoardSize {
		logrus.WithFields(logrus.Fields{
			"component": "chain_reader",
			"records":   len(records),
			"block":     head,
		}).Warn("Contract returned an unexpected number of tiles")
	}

	return &domain.BoardSnapshot{
		Board:       boardFromRecords(records),
		BlockNumber: head,
		FetchedAt:   r.now(),
	}, nil
}

func boardFromRecords(records []earthRecord) domain.Board {
	board := domain.NewBoard()
	for i, rec := range records {
		if i >= domain.BoardSize {
			break
		}
		price := new(big.Int)
		if rec.Price != nil {
			price.Set(rec.Price)
		}
		board.Tiles[i] = domain.Tile{
			ColorCode: domain.ColorCode(rec.Color),
			Price:     price,
			ImageURL:  rec.ImageUrl,
		}
	}
	return board
}
