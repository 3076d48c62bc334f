package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"pixel-earth/internal/domain"
	"pixel-earth/internal/repository"

	"github.com/sirupsen/logrus"
)

var (
	// errTrackingClosed 交易跟踪通道在没有结果时被关闭
	errTrackingClosed   = errors.New("transaction tracking stopped before completion")
	errPurchaseNotBegun = errors.New("SendPurchase called without a successful BeginPurchase")
	errBoardNotUpdated  = errors.New("refreshed board does not show the purchased tile as owned")
)

// BoardController 负责格子选择与购买流程。
// 它是 Board 和 Selection 的唯一写入者，所有事件都在 mu 保护下串行处理。
type BoardController struct {
	reader    BoardReader
	submitter PurchaseSubmitter
	wallet    WalletSession
	ledger    repository.PurchaseRepository
	payment   *big.Int // 每次购买支付的固定金额 (wei)

	mu        sync.Mutex
	board     domain.Board
	selection domain.Selection
	tx        domain.TxView
	inFlight  bool // 从提交开始到交易完成为止为 true

	observersMu sync.Mutex
	observers   map[int]func(domain.BoardView)
	nextID      int

	unsubscribe func()
	wg          sync.WaitGroup // 跟踪等待交易完成的 goroutine
}

// NewBoardController 创建 BoardController 实例。
func NewBoardController(
	reader BoardReader,
	submitter PurchaseSubmitter,
	wallet WalletSession,
	ledger repository.PurchaseRepository,
	payment *big.Int,
) *BoardController {
	if reader == nil || submitter == nil || wallet == nil || ledger == nil {
		panic("all collaborators must be non-nil for BoardController")
	}
	if payment == nil || payment.Sign() <= 0 {
		panic("payment must be positive for BoardController")
	}
	return &BoardController{
		reader:    reader,
		submitter: submitter,
		wallet:    wallet,
		ledger:    ledger,
		payment:   new(big.Int).Set(payment),
		board:     domain.NewBoard(),
		selection: domain.NewSelection(),
		tx:        domain.TxView{Status: domain.TxIdle},
		observers: make(map[int]func(domain.BoardView)),
	}
}

// Start 订阅链上快照并执行启动时的首次刷新。
// 首次刷新失败不会取消订阅，后续推送的快照仍会被应用。
func (c *BoardController) Start(ctx context.Context) error {
	c.unsubscribe = c.reader.Subscribe(c.ApplySnapshot)
	return c.RefreshBoard(ctx)
}

// Close 取消快照订阅。进行中的交易仍会等到完成。
func (c *BoardController) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Wait 等待所有进行中的交易完成回调处理完毕。
func (c *BoardController) Wait() {
	c.wg.Wait()
}

// Payment 返回每次购买的支付金额副本。
func (c *BoardController) Payment() *big.Int {
	return new(big.Int).Set(c.payment)
}

// RefreshBoard 从链上读取最新快照并整体替换 Board。
func (c *BoardController) RefreshBoard(ctx context.Context) error {
	board, err := c.reader.Read(ctx)
	if err != nil {
		logrus.WithField("operation", "RefreshBoard").WithError(err).Warn("Failed to read board from chain state reader")
		return fmt.Errorf("refresh board: %w", err)
	}
	c.ApplySnapshot(board)
	return nil
}

// ApplySnapshot 把读取者推送的快照视为权威状态，整体替换 Board。
func (c *BoardController) ApplySnapshot(board domain.Board) {
	c.mu.Lock()
	c.board = board
	c.mu.Unlock()
	logrus.WithField("owned", board.OwnedCount()).Debug("Board snapshot applied")
	c.notify()
}

// RequestRefresh 要求读取者立即重新读取链上状态并广播。
func (c *BoardController) RequestRefresh(ctx context.Context) error {
	return c.reader.ForceRefresh(ctx)
}

// SelectTile 选择一个未被购买的格子。失败时 Selection 保持不变。
func (c *BoardController) SelectTile(index int) error {
	logCtx := logrus.WithFields(logrus.Fields{"operation": "SelectTile", "tile_index": index})

	if !c.wallet.Connected() {
		logCtx.Info("Tile selection rejected: wallet not connected")
		return ErrWalletNotConnected
	}
	if !domain.InRange(index) {
		return ErrInvalidTileIndex
	}

	c.mu.Lock()
	if c.board.Tiles[index].Owned() {
		c.mu.Unlock()
		logCtx.Info("Tile selection rejected: tile already owned")
		return ErrTileAlreadyOwned
	}
	c.selection.TileIndex = index
	c.mu.Unlock()

	logCtx.Debug("Tile selected")
	c.notify()
	return nil
}

// SelectColor 选择颜色。code 为 7 时同时使用 custom 作为自定义颜色，
// custom 为空则保留之前的自定义颜色；1-6 忽略 custom。
func (c *BoardController) SelectColor(code domain.ColorCode, custom string) error {
	if !code.Valid() {
		return ErrInvalidColor
	}
	if code == domain.ColorCustom && custom != "" && !domain.ValidHexColor(custom) {
		return ErrInvalidCustomColor
	}

	c.mu.Lock()
	c.selection.ColorCode = code
	if code == domain.ColorCustom && custom != "" {
		c.selection.CustomColor = custom
	}
	c.mu.Unlock()

	c.notify()
	return nil
}

// SetCustomColor 颜色选择器的值变化时调用，自动切换到自定义颜色。
func (c *BoardController) SetCustomColor(hex string) error {
	if !domain.ValidHexColor(hex) {
		return ErrInvalidCustomColor
	}
	c.mu.Lock()
	c.selection.CustomColor = hex
	c.selection.ColorCode = domain.ColorCustom
	c.mu.Unlock()

	c.notify()
	return nil
}

// SetImageURL 设置图片地址。这里不做校验，提交时才检查是否为空。
func (c *BoardController) SetImageURL(text string) {
	c.mu.Lock()
	c.selection.ImageURL = text
	c.mu.Unlock()
	c.notify()
}

// SubmitPurchase 校验当前选择并把购买意图交给交易提交者。
// 提交成功后 Selection 不会被清空，直到交易确认。
func (c *BoardController) SubmitPurchase(ctx context.Context) (*TxHandle, error) {
	intent, err := c.BeginPurchase()
	if err != nil {
		return nil, err
	}
	return c.SendPurchase(ctx, intent)
}

// BeginPurchase 校验当前选择，构建购买意图并标记交易进行中。
// 意图在这里固定下来，之后对 Selection 的修改不会影响这次购买。
// 成功后必须调用 SendPurchase。
func (c *BoardController) BeginPurchase() (domain.PurchaseIntent, error) {
	c.mu.Lock()
	sel := c.selection
	// 校验顺序固定，每一步是不同的错误
	if !sel.HasTile() {
		c.mu.Unlock()
		return domain.PurchaseIntent{}, ErrNoTileSelected
	}
	if sel.ImageURLBlank() {
		c.mu.Unlock()
		return domain.PurchaseIntent{}, ErrEmptyImageURL
	}
	if c.inFlight {
		c.mu.Unlock()
		return domain.PurchaseIntent{}, ErrPurchaseInFlight
	}
	if !c.wallet.Connected() {
		c.mu.Unlock()
		return domain.PurchaseIntent{}, ErrWalletNotConnected
	}
	// 在释放锁之前标记交易进行中，阻止重复提交
	c.inFlight = true
	c.tx = domain.TxView{Status: domain.TxPending}
	c.mu.Unlock()
	c.notify()
	return sel.Intent(), nil
}

// SendPurchase 把 BeginPurchase 返回的意图交给交易提交者，错误原样返回。
// 这一步会等待签名和广播，可以在后台执行。
func (c *BoardController) SendPurchase(ctx context.Context, intent domain.PurchaseIntent) (*TxHandle, error) {
	c.mu.Lock()
	begun := c.inFlight
	c.mu.Unlock()
	if !begun {
		return nil, errPurchaseNotBegun
	}

	logCtx := logrus.WithFields(logrus.Fields{
		"operation":  "SendPurchase",
		"tile_index": intent.TileIndex,
		"color_code": intent.ColorCode,
		"payment":    c.payment.String(),
	})
	logCtx.Info("Submitting purchase intent")

	handle, err := c.submitter.Submit(ctx, intent, c.Payment())
	if err != nil {
		logCtx.WithError(err).Warn("Purchase submission failed")
		c.mu.Lock()
		c.inFlight = false
		c.tx = domain.TxView{Status: domain.TxFailed, LastError: err.Error()}
		c.mu.Unlock()
		c.notify()
		return nil, err
	}
	logCtx = logCtx.WithField("tx_hash", handle.Hash)

	c.mu.Lock()
	c.tx = domain.TxView{Status: domain.TxPending, TxHash: handle.Hash}
	c.mu.Unlock()

	c.recordPending(ctx, intent, handle, logCtx)
	logCtx.Info("Purchase transaction broadcast, waiting for completion")
	c.notify()

	// 等待完成通知，不设超时也不支持取消
	c.wg.Add(1)
	go c.awaitCompletion(handle, intent)
	return handle, nil
}

// awaitCompletion 等待交易提交者的完成通知并进行状态协调。
func (c *BoardController) awaitCompletion(handle *TxHandle, intent domain.PurchaseIntent) {
	defer c.wg.Done()
	outcome, ok := <-handle.Done
	if !ok {
		outcome = TxOutcome{Status: domain.TxFailed, Err: errTrackingClosed}
	}
	c.reconcile(handle, intent, outcome)
}

// reconcile 交易完成后的状态协调。
func (c *BoardController) reconcile(handle *TxHandle, intent domain.PurchaseIntent, outcome TxOutcome) {
	ctx := context.Background()
	logCtx := logrus.WithFields(logrus.Fields{"operation": "reconcile", "tx_hash": handle.Hash})

	if outcome.Status == domain.TxConfirmed {
		logCtx.Info("Purchase confirmed, refreshing board")
		c.updateLedger(ctx, handle.Hash, domain.TxConfirmed, "", logCtx)

		// 确认后刷新一次。读取失败或者读到的画板 (例如缓存快照) 还没有反映新的所有者时，
		// 要求读取者强制刷新，新快照会通过订阅送达
		err := c.RefreshBoard(ctx)
		if err == nil && !c.Board().Tiles[intent.TileIndex].Owned() {
			err = errBoardNotUpdated
		}
		if err != nil {
			logCtx.WithError(err).WithField("tile_index", intent.TileIndex).Warn("Board does not reflect confirmed purchase, forcing refresh")
			if ferr := c.reader.ForceRefresh(ctx); ferr != nil {
				logCtx.WithError(ferr).Error("Forced board refresh after confirmation failed")
			}
		}

		// 只清空格子选择，颜色和图片地址保留，方便连续购买
		c.mu.Lock()
		c.selection.TileIndex = domain.NoTile
		c.inFlight = false
		c.tx = domain.TxView{Status: domain.TxConfirmed, TxHash: handle.Hash}
		c.mu.Unlock()
		c.notify()
		return
	}

	// 失败或被拒绝：Selection 保持不变，方便直接重试
	errMsg := "transaction failed"
	if outcome.Err != nil {
		errMsg = outcome.Err.Error()
	}
	logCtx.WithField("reason", errMsg).Warn("Purchase transaction failed")
	c.updateLedger(ctx, handle.Hash, domain.TxFailed, errMsg, logCtx)

	c.mu.Lock()
	c.inFlight = false
	c.tx = domain.TxView{Status: domain.TxFailed, TxHash: handle.Hash, LastError: errMsg}
	c.mu.Unlock()
	c.notify()
}

// recordPending 记录到购买账本。账本失败只记录日志，不影响交易。
func (c *BoardController) recordPending(ctx context.Context, intent domain.PurchaseIntent, handle *TxHandle, logCtx *logrus.Entry) {
	purchase := &domain.Purchase{
		TxHash:    handle.Hash,
		TileIndex: intent.TileIndex,
		ColorCode: intent.ColorCode,
		ImageURL:  intent.ImageURL,
		Buyer:     c.wallet.Address(),
		Payment:   c.payment.String(),
		ChainID:   c.wallet.ChainID(),
		Status:    domain.TxPending,
	}
	if err := c.ledger.Save(ctx, purchase); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Warn("Purchase already recorded in ledger")
			return
		}
		logCtx.WithError(err).Error("Failed to record pending purchase")
	}
}

func (c *BoardController) updateLedger(ctx context.Context, hash string, status domain.TxStatus, errMsg string, logCtx *logrus.Entry) {
	if err := c.ledger.UpdateStatus(ctx, hash, status, errMsg); err != nil {
		logCtx.WithError(err).Error("Failed to update purchase status in ledger")
	}
}

// --- 钱包会话 ---

// ConnectWallet 连接钱包会话。
func (c *BoardController) ConnectWallet(ctx context.Context) error {
	if err := c.wallet.Connect(ctx); err != nil {
		logrus.WithError(err).Warn("Wallet connection failed")
		return err
	}
	logrus.WithFields(logrus.Fields{"address": c.wallet.Address(), "chain_id": c.wallet.ChainID()}).Info("Wallet connected")
	c.notify()
	return nil
}

// DisconnectWallet 断开钱包会话。
func (c *BoardController) DisconnectWallet() {
	c.wallet.Disconnect()
	logrus.Info("Wallet disconnected")
	c.notify()
}

// --- 视图与订阅 ---

// Selection 返回当前选择的副本。
func (c *BoardController) Selection() domain.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// Board 返回当前画板的副本。
func (c *BoardController) Board() domain.Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board
}

// Pending 交易是否进行中
func (c *BoardController) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// View 计算当前的完整视图。
func (c *BoardController) View() domain.BoardView {
	c.mu.Lock()
	board, sel, tx := c.board, c.selection, c.tx
	c.mu.Unlock()
	return domain.Render(board, sel, c.walletView(), tx)
}

func (c *BoardController) walletView() domain.WalletView {
	if !c.wallet.Connected() {
		return domain.WalletView{}
	}
	return domain.WalletView{
		Connected: true,
		Address:   c.wallet.Address(),
		ChainID:   c.wallet.ChainID(),
		ChainName: c.wallet.ChainName(),
	}
}

// Subscribe 注册视图观察者，Board 或 Selection 每次变化都会收到新视图。
// 观察者在锁外被调用，可以安全地读取控制器状态。
func (c *BoardController) Subscribe(fn func(domain.BoardView)) (unsubscribe func()) {
	c.observersMu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.observersMu.Unlock()

	return func() {
		c.observersMu.Lock()
		delete(c.observers, id)
		c.observersMu.Unlock()
	}
}

func (c *BoardController) notify() {
	c.observersMu.Lock()
	if len(c.observers) == 0 {
		c.observersMu.Unlock()
		return
	}
	fns := make([]func(domain.BoardView), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.observersMu.Unlock()

	view := c.View()
	for _, fn := range fns {
		fn(view)
	}
}
