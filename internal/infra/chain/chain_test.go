package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"pixel-earth/internal/domain"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// fakeBackend 按 ABI 编码返回预设的 getEarths 结果
type fakeBackend struct {
	head     uint64
	output   []byte
	callErr  error
	headErr  error
	gotBlock *big.Int
	gotTo    *common.Address
}

func (f *fakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.gotBlock = blockNumber
	f.gotTo = call.To
	return f.output, f.callErr
}

func (f *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	return f.head, f.headErr
}

func packEarths(t *testing.T, records []earthRecord) []byte {
	t.Helper()
	parsed, err := ParseABI()
	require.NoError(t, err)
	out, err := parsed.Methods[methodGetEarths].Outputs.Pack(records)
	require.NoError(t, err)
	return out
}

func fullRecords() []earthRecord {
	records := make([]earthRecord, domain.BoardSize)
	for i := range records {
		records[i] = earthRecord{Price: big.NewInt(0)}
	}
	return records
}

func TestReader_Snapshot(t *testing.T) {
	records := fullRecords()
	records[10] = earthRecord{Color: 2, Price: big.NewInt(1e15)}
	records[42] = earthRecord{Color: 7, Price: big.NewInt(1e15), ImageUrl: "http://x/y.png"}
	backend := &fakeBackend{head: 1234, output: packEarths(t, records)}

	reader, err := NewReader(testContract, backend)
	require.NoError(t, err)

	snap, err := reader.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1234), snap.BlockNumber)
	assert.Equal(t, 0, backend.gotBlock.Cmp(big.NewInt(1234)), "应在最新区块读取")
	require.NotNil(t, backend.gotTo)
	assert.Equal(t, testContract, *backend.gotTo)

	assert.Equal(t, 2, snap.Board.OwnedCount())
	assert.Equal(t, domain.ColorGreen, snap.Board.Tiles[10].ColorCode)
	assert.Equal(t, domain.ColorCustom, snap.Board.Tiles[42].ColorCode)
	assert.Equal(t, "http://x/y.png", snap.Board.Tiles[42].ImageURL)
	assert.Equal(t, 0, snap.Board.Tiles[42].Price.Cmp(big.NewInt(1e15)))
	assert.False(t, snap.Board.Tiles[0].Owned())
}

func TestReader_SnapshotShortResult(t *testing.T) {
	backend := &fakeBackend{head: 1, output: packEarths(t, []earthRecord{{Color: 1, Price: big.NewInt(5)}})}
	reader, err := NewReader(testContract, backend)
	require.NoError(t, err)

	snap, err := reader.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Board.OwnedCount())
	assert.NotNil(t, snap.Board.Tiles[99].Price, "缺失的格子按未购买处理")
}

func TestReader_SnapshotErrors(t *testing.T) {
	reader, err := NewReader(testContract, &fakeBackend{headErr: errors.New("dial tcp: refused")})
	require.NoError(t, err)
	_, err = reader.Snapshot(context.Background())
	assert.ErrorContains(t, err, "block number")

	callErr := errors.New("execution reverted")
	reader, err = NewReader(testContract, &fakeBackend{head: 1, callErr: callErr})
	require.NoError(t, err)
	_, err = reader.Snapshot(context.Background())
	assert.ErrorIs(t, err, callErr)
}

func TestBuyEarthArgumentsPack(t *testing.T) {
	parsed, err := ParseABI()
	require.NoError(t, err)

	data, err := parsed.Pack(methodBuyEarth, big.NewInt(42), uint8(3), "http://x/y.png")
	require.NoError(t, err)
	assert.Equal(t, parsed.Methods[methodBuyEarth].ID, data[:4])

	args, err := parsed.Methods[methodBuyEarth].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, 0, args[0].(*big.Int).Cmp(big.NewInt(42)))
	assert.Equal(t, uint8(3), args[1])
	assert.Equal(t, "http://x/y.png", args[2])
	assert.True(t, parsed.Methods[methodBuyEarth].IsPayable())
}

func TestParseEther(t *testing.T) {
	wei, err := ParseEther("0.001")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000", wei.String())

	wei, err = ParseEther(" 2 ")
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", wei.String())

	for _, bad := range []string{"", "abc", "0", "-1", "0.0000000000000000001"} {
		_, err := ParseEther(bad)
		assert.Error(t, err, "amount=%q", bad)
	}

	assert.Equal(t, "0.001", FormatEther(big.NewInt(1e15)))
	assert.Equal(t, "2", FormatEther(big.NewInt(2e18)))
	assert.Equal(t, "0", FormatEther(nil))
}

func TestNetworkFor(t *testing.T) {
	dev, err := NetworkFor("development", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), dev.ChainID)
	assert.Equal(t, "http://127.0.0.1:8545", dev.RPCURL)

	prod, err := NetworkFor("production", "https://rpc.example")
	require.NoError(t, err)
	assert.Equal(t, "Monad Testnet", prod.Name)
	assert.Equal(t, uint64(10143), prod.ChainID)
	assert.Equal(t, "https://rpc.example", prod.RPCURL)

	_, err = NetworkFor("staging", "")
	assert.Error(t, err)

	list := Networks()
	require.Len(t, list, 2)
	assert.Equal(t, "development", list[0].Env)
}

type fixedChainID struct {
	id  *big.Int
	err error
}

func (f fixedChainID) ChainID(ctx context.Context) (*big.Int, error) { return f.id, f.err }

func TestKeyWallet(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))
	network, _ := NetworkFor("development", "")

	w, err := NewKeyWallet("0x"+hexKey, network, fixedChainID{id: big.NewInt(31337)})
	require.NoError(t, err)
	assert.False(t, w.Connected())
	assert.Empty(t, w.Address())

	_, err = w.TransactOpts(context.Background(), big.NewInt(1))
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, w.Connect(context.Background()))
	assert.True(t, w.Connected())
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), w.Address())
	assert.Equal(t, uint64(31337), w.ChainID())
	assert.Equal(t, "Hardhat", w.ChainName())

	opts, err := w.TransactOpts(context.Background(), big.NewInt(1e15))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), opts.From)
	assert.Equal(t, 0, opts.Value.Cmp(big.NewInt(1e15)))

	w.Disconnect()
	assert.False(t, w.Connected())
	assert.Zero(t, w.ChainID())
}

func TestKeyWallet_ConnectErrors(t *testing.T) {
	network, _ := NetworkFor("production", "")

	w, err := NewKeyWallet("", network, fixedChainID{id: big.NewInt(10143)})
	require.NoError(t, err)
	assert.ErrorIs(t, w.Connect(context.Background()), ErrNoSigningKey)

	_, err = NewKeyWallet("zz", network, fixedChainID{})
	assert.Error(t, err)

	key, _ := crypto.GenerateKey()
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))
	w, err = NewKeyWallet(hexKey, network, fixedChainID{id: big.NewInt(31337)})
	require.NoError(t, err)
	assert.ErrorIs(t, w.Connect(context.Background()), ErrWrongChain)
	assert.False(t, w.Connected())
}

func TestOutcomeOf(t *testing.T) {
	ok := outcomeOf(&types.Receipt{Status: types.ReceiptStatusSuccessful}, nil)
	assert.Equal(t, domain.TxConfirmed, ok.Status)
	assert.NoError(t, ok.Err)

	reverted := outcomeOf(&types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(9)}, nil)
	assert.Equal(t, domain.TxFailed, reverted.Status)
	assert.ErrorContains(t, reverted.Err, "reverted")

	canceled := outcomeOf(nil, context.Canceled)
	assert.Equal(t, domain.TxFailed, canceled.Status)
	assert.ErrorIs(t, canceled.Err, context.Canceled)
}
