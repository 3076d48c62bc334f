package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"pixel-earth/internal/domain"
	"pixel-earth/internal/dto"
	"pixel-earth/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubController 在内存中保存选择，BeginPurchase 像真实控制器一样截取当前选择
type stubController struct {
	mu       sync.Mutex
	sel      domain.Selection
	beginErr error
	sendErr  error
	gate     chan struct{} // 非空时 SendPurchase 等待它关闭
	sent     []domain.PurchaseIntent
}

func newStubController() *stubController {
	return &stubController{sel: domain.NewSelection()}
}

func (s *stubController) View() domain.BoardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Render(domain.NewBoard(), s.sel, domain.WalletView{Connected: true}, domain.TxView{Status: domain.TxIdle})
}

func (s *stubController) Subscribe(fn func(domain.BoardView)) func() { return func() {} }

func (s *stubController) SelectTile(index int) error {
	if index < 0 || index >= domain.BoardSize {
		return service.ErrInvalidTileIndex
	}
	s.mu.Lock()
	s.sel.TileIndex = index
	s.mu.Unlock()
	return nil
}

func (s *stubController) SelectColor(code domain.ColorCode, custom string) error {
	s.mu.Lock()
	s.sel.ColorCode = code
	s.mu.Unlock()
	return nil
}

func (s *stubController) SetCustomColor(hex string) error { return nil }

func (s *stubController) SetImageURL(text string) {
	s.mu.Lock()
	s.sel.ImageURL = text
	s.mu.Unlock()
}

func (s *stubController) BeginPurchase() (domain.PurchaseIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beginErr != nil {
		return domain.PurchaseIntent{}, s.beginErr
	}
	return s.sel.Intent(), nil
}

func (s *stubController) SendPurchase(ctx context.Context, intent domain.PurchaseIntent) (*service.TxHandle, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	s.sent = append(s.sent, intent)
	s.mu.Unlock()
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &service.TxHandle{Hash: "0xabc", Done: make(chan service.TxOutcome)}, nil
}

func (s *stubController) RequestRefresh(ctx context.Context) error { return nil }

func (s *stubController) sentIntents() []domain.PurchaseIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.PurchaseIntent(nil), s.sent...)
}

type reply struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Code    string `json:"code"`
	TxHash  string `json:"tx_hash"`
}

// newTestHub 返回一个已注册客户端的 Hub，不启动 Run 循环，命令直接交给 handleCommand
func newTestHub(t *testing.T, ctrl Controller) (*Hub, *Client) {
	t.Helper()
	h := NewHub(ctrl)
	client := &Client{hub: h, id: "client-1", send: make(chan []byte, 16)}
	h.clients[client] = true
	return h, client
}

func command(t *testing.T, h *Hub, client *Client, cmd dto.IncomingCommand) {
	t.Helper()
	raw, err := json.Marshal(cmd)
	require.NoError(t, err)
	h.handleCommand(context.Background(), HubMessage{Type: "command", Client: client, RawData: raw})
}

func nextReply(t *testing.T, client *Client) reply {
	t.Helper()
	select {
	case payload := <-client.send:
		var r reply
		require.NoError(t, json.Unmarshal(payload, &r))
		return r
	case <-time.After(time.Second):
		t.Fatal("no reply sent to client")
		return reply{}
	}
}

func TestNewHub_PanicsOnNilController(t *testing.T) {
	assert.Panics(t, func() { NewHub(nil) })
}

func TestHub_SubmitUsesSelectionAtSubmitTime(t *testing.T) {
	ctrl := newStubController()
	ctrl.gate = make(chan struct{})
	h, client := newTestHub(t, ctrl)

	index := 7
	command(t, h, client, dto.IncomingCommand{Type: dto.CmdSelectTile, Index: &index})
	command(t, h, client, dto.IncomingCommand{Type: dto.CmdSelectColor, Code: 3})
	command(t, h, client, dto.IncomingCommand{Type: dto.CmdImageURL, ImageURL: "https://a.example/a.png"})
	command(t, h, client, dto.IncomingCommand{Type: dto.CmdSubmit})

	// 交易还在后台等待时修改选择
	other := 9
	command(t, h, client, dto.IncomingCommand{Type: dto.CmdImageURL, ImageURL: "https://b.example/b.png"})
	command(t, h, client, dto.IncomingCommand{Type: dto.CmdSelectTile, Index: &other})
	close(ctrl.gate)
	h.wg.Wait()

	sent := ctrl.sentIntents()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.PurchaseIntent{TileIndex: 7, ColorCode: 3, ImageURL: "https://a.example/a.png"}, sent[0])

	r := nextReply(t, client)
	assert.Equal(t, dto.TypeSubmitted, r.Type)
	assert.Equal(t, "0xabc", r.TxHash)
}

func TestHub_SubmitRejectedSynchronously(t *testing.T) {
	ctrl := newStubController()
	ctrl.beginErr = service.ErrNoTileSelected
	h, client := newTestHub(t, ctrl)

	command(t, h, client, dto.IncomingCommand{Type: dto.CmdSubmit})

	// 校验失败在 handleCommand 返回前就已回复
	r := nextReply(t, client)
	assert.Equal(t, dto.TypeError, r.Type)
	assert.Equal(t, dto.CmdSubmit, r.Command)
	assert.Equal(t, "no_tile_selected", r.Code)

	h.wg.Wait()
	assert.Empty(t, ctrl.sentIntents(), "rejected submit must not reach the submitter")
}

func TestHub_SubmitErrorCodes(t *testing.T) {
	cases := []struct {
		name    string
		sendErr error
		code    string
	}{
		{"selection error keeps its code", service.ErrWalletNotConnected, "wallet_not_connected"},
		{"wrapped selection error", errors.Join(errors.New("sign"), service.ErrPurchaseInFlight), "purchase_in_flight"},
		{"transport error", errors.New("rpc: connection refused"), "submit_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := newStubController()
			ctrl.sendErr = tc.sendErr
			h, client := newTestHub(t, ctrl)

			command(t, h, client, dto.IncomingCommand{Type: dto.CmdSubmit})
			h.wg.Wait()

			r := nextReply(t, client)
			assert.Equal(t, dto.TypeError, r.Type)
			assert.Equal(t, dto.CmdSubmit, r.Command)
			assert.Equal(t, tc.code, r.Code)
		})
	}
}

func TestHub_CommandErrors(t *testing.T) {
	h, client := newTestHub(t, newStubController())

	h.handleCommand(context.Background(), HubMessage{Type: "command", Client: client, RawData: []byte("{oops")})
	assert.Equal(t, "bad_request", nextReply(t, client).Code)

	command(t, h, client, dto.IncomingCommand{Type: "paint"})
	r := nextReply(t, client)
	assert.Equal(t, "unknown_command", r.Code)
	assert.Equal(t, "paint", r.Command)

	command(t, h, client, dto.IncomingCommand{Type: dto.CmdSelectTile})
	assert.Equal(t, "invalid_tile_index", nextReply(t, client).Code)

	over := domain.BoardSize
	command(t, h, client, dto.IncomingCommand{Type: dto.CmdSelectTile, Index: &over})
	assert.Equal(t, "invalid_tile_index", nextReply(t, client).Code)

	// 成功的命令不单独回复
	command(t, h, client, dto.IncomingCommand{Type: dto.CmdImageURL, ImageURL: "x"})
	assert.Empty(t, client.send)
}

func TestHub_ReplyAfterUnregisterIsDropped(t *testing.T) {
	ctrl := newStubController()
	ctrl.gate = make(chan struct{})
	h, client := newTestHub(t, ctrl)

	command(t, h, client, dto.IncomingCommand{Type: dto.CmdSubmit})
	h.unregisterClient(client)
	close(ctrl.gate)

	// send 通道已关闭，后台回复必须被丢弃而不是写入
	h.wg.Wait()
	assert.Len(t, ctrl.sentIntents(), 1)
	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_RunSendsViewOnRegister(t *testing.T) {
	h := NewHub(newStubController())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	client := &Client{hub: h, id: "client-2", send: make(chan []byte, 4)}
	require.True(t, h.QueueMessage(HubMessage{Type: "register", Client: client}))
	assert.Equal(t, dto.TypeBoard, nextReply(t, client).Type)
	assert.Equal(t, 1, h.ClientCount())

	cancel()
	<-done
	assert.Equal(t, 0, h.ClientCount())
	_, open := <-client.send
	assert.False(t, open, "shutdown closes client send channels")
}
