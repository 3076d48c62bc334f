package chain

import (
	"context"
	"fmt"
	"math/big"

	"pixel-earth/internal/domain"
	"pixel-earth/internal/service"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// SubmitBackend 是发送交易并等待回执所需的链接口
type SubmitBackend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Submitter 调用 buyEarth 提交购买交易，并在后台等待回执
type Submitter struct {
	backend  SubmitBackend
	contract *bind.BoundContract
	wallet   *KeyWallet

	ctx    context.Context // 控制回执等待的生命周期
	cancel context.CancelFunc
}

func NewSubmitter(address common.Address, backend SubmitBackend, wallet *KeyWallet) (*Submitter, error) {
	parsed, err := ParseABI()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Submitter{
		backend:  backend,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		wallet:   wallet,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Submit 签名并广播交易。返回的句柄在交易上链或失败后收到唯一一次结果。
func (s *Submitter) Submit(ctx context.Context, intent domain.PurchaseIntent, payment *big.Int) (*service.TxHandle, error) {
	opts, err := s.wallet.TransactOpts(ctx, payment)
	if err != nil {
		return nil, err
	}
	tx, err := s.contract.Transact(opts, methodBuyEarth,
		big.NewInt(int64(intent.TileIndex)), uint8(intent.ColorCode), intent.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("send %s transaction: %w", methodBuyEarth, err)
	}

	hash := tx.Hash().Hex()
	logrus.WithFields(logrus.Fields{
		"component": "chain_submitter",
		"tx_hash":   hash,
		"nonce":     tx.Nonce(),
		"intent":    intent.String(),
	}).Info("Purchase transaction sent")

	done := make(chan service.TxOutcome, 1)
	go s.track(tx, done)
	return &service.TxHandle{Hash: hash, Done: done}, nil
}

func (s *Submitter) track(tx *types.Transaction, done chan<- service.TxOutcome) {
	defer close(done)
	receipt, err := bind.WaitMined(s.ctx, s.backend, tx)
	done <- outcomeOf(receipt, err)
}

// Close 停止所有回执等待，未完成的交易以失败结束
func (s *Submitter) Close() {
	s.cancel()
}

func outcomeOf(receipt *types.Receipt, err error) service.TxOutcome {
	if err != nil {
		return service.TxOutcome{Status: domain.TxFailed, Err: fmt.Errorf("wait for receipt: %w", err)}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return service.TxOutcome{
			Status: domain.TxFailed,
			Err:    fmt.Errorf("transaction reverted in block %s", receipt.BlockNumber),
		}
	}
	return service.TxOutcome{Status: domain.TxConfirmed}
}
