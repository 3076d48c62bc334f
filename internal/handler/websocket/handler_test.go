package websocket_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pixel-earth/internal/domain"
	"pixel-earth/internal/dto"
	wshandler "pixel-earth/internal/handler/websocket"
	"pixel-earth/internal/hub"
	"pixel-earth/internal/service"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeController 记录命令并在状态变化时通知观察者
type fakeController struct {
	mu       sync.Mutex
	sel      domain.Selection
	observer func(domain.BoardView)
	owned    map[int]bool
	submits  int
}

func newFakeController() *fakeController {
	return &fakeController{sel: domain.NewSelection(), owned: map[int]bool{10: true}}
}

func (f *fakeController) View() domain.BoardView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.Render(domain.NewBoard(), f.sel, domain.WalletView{Connected: true}, domain.TxView{Status: domain.TxIdle})
}

func (f *fakeController) Subscribe(fn func(domain.BoardView)) func() {
	f.mu.Lock()
	f.observer = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.observer = nil
		f.mu.Unlock()
	}
}

func (f *fakeController) changed() {
	f.mu.Lock()
	obs := f.observer
	f.mu.Unlock()
	if obs != nil {
		obs(f.View())
	}
}

func (f *fakeController) SelectTile(index int) error {
	if f.owned[index] {
		return service.ErrTileAlreadyOwned
	}
	f.mu.Lock()
	f.sel.TileIndex = index
	f.mu.Unlock()
	f.changed()
	return nil
}

func (f *fakeController) SelectColor(code domain.ColorCode, custom string) error {
	if !code.Valid() {
		return service.ErrInvalidColor
	}
	f.mu.Lock()
	f.sel.ColorCode = code
	f.mu.Unlock()
	f.changed()
	return nil
}

func (f *fakeController) SetCustomColor(hex string) error { return nil }

func (f *fakeController) SetImageURL(text string) {
	f.mu.Lock()
	f.sel.ImageURL = text
	f.mu.Unlock()
	f.changed()
}

func (f *fakeController) BeginPurchase() (domain.PurchaseIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sel.Intent(), nil
}

func (f *fakeController) SendPurchase(ctx context.Context, intent domain.PurchaseIntent) (*service.TxHandle, error) {
	f.mu.Lock()
	f.submits++
	f.mu.Unlock()
	return &service.TxHandle{Hash: "0xfeed", Done: make(chan service.TxOutcome)}, nil
}

func (f *fakeController) RequestRefresh(ctx context.Context) error { return nil }

type envelope struct {
	Type    string           `json:"type"`
	View    domain.BoardView `json:"view"`
	Code    string           `json:"code"`
	Command string           `json:"command"`
	TxHash  string           `json:"tx_hash"`
}

func setup(t *testing.T) (*gws.Conn, *fakeController) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := newFakeController()
	h := hub.NewHub(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	router := gin.New()
	router.GET("/ws/board", wshandler.NewWebSocketHandler(h, "").HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/board"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, ctrl
}

func readEnvelope(t *testing.T, conn *gws.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func sendCommand(t *testing.T, conn *gws.Conn, cmd dto.IncomingCommand) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(cmd))
}

func TestWebSocket_InitialViewAndBroadcast(t *testing.T) {
	conn, _ := setup(t)

	first := readEnvelope(t, conn)
	assert.Equal(t, dto.TypeBoard, first.Type)
	assert.Len(t, first.View.Tiles, domain.BoardSize)
	assert.Nil(t, first.View.Selection.TileIndex)

	idx := 5
	sendCommand(t, conn, dto.IncomingCommand{Type: dto.CmdSelectTile, Index: &idx})

	next := readEnvelope(t, conn)
	assert.Equal(t, dto.TypeBoard, next.Type)
	require.NotNil(t, next.View.Selection.TileIndex)
	assert.Equal(t, 5, *next.View.Selection.TileIndex)
	assert.True(t, next.View.Tiles[5].Selected)
}

func TestWebSocket_ErrorsGoToSender(t *testing.T) {
	conn, _ := setup(t)
	_ = readEnvelope(t, conn)

	idx := 10
	sendCommand(t, conn, dto.IncomingCommand{Type: dto.CmdSelectTile, Index: &idx})
	env := readEnvelope(t, conn)
	assert.Equal(t, dto.TypeError, env.Type)
	assert.Equal(t, "tile_already_owned", env.Code)
	assert.Equal(t, dto.CmdSelectTile, env.Command)

	sendCommand(t, conn, dto.IncomingCommand{Type: "paint"})
	env = readEnvelope(t, conn)
	assert.Equal(t, "unknown_command", env.Code)

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte("{oops")))
	env = readEnvelope(t, conn)
	assert.Equal(t, "bad_request", env.Code)
}

func TestWebSocket_Submit(t *testing.T) {
	conn, ctrl := setup(t)
	_ = readEnvelope(t, conn)

	sendCommand(t, conn, dto.IncomingCommand{Type: dto.CmdSubmit})
	env := readEnvelope(t, conn)
	assert.Equal(t, dto.TypeSubmitted, env.Type)
	assert.Equal(t, "0xfeed", env.TxHash)

	ctrl.mu.Lock()
	assert.Equal(t, 1, ctrl.submits)
	ctrl.mu.Unlock()
}
