package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrNoSigningKey = errors.New("no wallet private key configured")
	ErrNotConnected = errors.New("wallet not connected")
	ErrWrongChain   = errors.New("connected to unexpected chain")
)

// ChainIDReader 返回节点的链 ID，*ethclient.Client 满足该接口
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// KeyWallet 是由服务持有私钥的钱包会话。
// Connect 会确认节点的链 ID 与配置的网络一致。
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	network Network
	backend ChainIDReader

	mu        sync.RWMutex
	connected bool
}

// NewKeyWallet 创建钱包。hexKey 为空时钱包可以创建但无法连接。
func NewKeyWallet(hexKey string, network Network, backend ChainIDReader) (*KeyWallet, error) {
	w := &KeyWallet{network: network, backend: backend}
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return w, nil
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet private key: %w", err)
	}
	w.key = key
	w.address = crypto.PubkeyToAddress(key.PublicKey)
	return w, nil
}

func (w *KeyWallet) Connect(ctx context.Context) error {
	if w.key == nil {
		return ErrNoSigningKey
	}
	id, err := w.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("query chain id: %w", err)
	}
	if !id.IsUint64() || id.Uint64() != w.network.ChainID {
		return fmt.Errorf("%w: node reports %s, want %d (%s)", ErrWrongChain, id, w.network.ChainID, w.network.Name)
	}
	w.mu.Lock()
	w.connected = true
	w.mu.Unlock()
	return nil
}

func (w *KeyWallet) Connected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// Address 返回钱包地址，未连接时返回空字符串
func (w *KeyWallet) Address() string {
	if !w.Connected() {
		return ""
	}
	return w.address.Hex()
}

func (w *KeyWallet) ChainID() uint64 {
	if !w.Connected() {
		return 0
	}
	return w.network.ChainID
}

func (w *KeyWallet) ChainName() string {
	if !w.Connected() {
		return ""
	}
	return w.network.Name
}

func (w *KeyWallet) Disconnect() {
	w.mu.Lock()
	w.connected = false
	w.mu.Unlock()
}

// TransactOpts 返回附带支付金额的签名参数
func (w *KeyWallet) TransactOpts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	if !w.Connected() {
		return nil, ErrNotConnected
	}
	opts, err := bind.NewKeyedTransactorWithChainID(w.key, new(big.Int).SetUint64(w.network.ChainID))
	if err != nil {
		return nil, fmt.Errorf("create transactor: %w", err)
	}
	opts.Context = ctx
	opts.Value = new(big.Int).Set(value)
	return opts, nil
}
