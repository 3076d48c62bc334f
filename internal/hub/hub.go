package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"pixel-earth/internal/domain"
	"pixel-earth/internal/dto"
	"pixel-earth/internal/service"

	"github.com/sirupsen/logrus"
)

// 包级别的 WebSocket 常量，供 hub 和 client 包内使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096 // 图片地址可能较长
)

// Controller 是 Hub 需要的控制器能力，由 service.BoardController 实现
type Controller interface {
	View() domain.BoardView
	Subscribe(fn func(domain.BoardView)) func()
	SelectTile(index int) error
	SelectColor(code domain.ColorCode, custom string) error
	SetCustomColor(hex string) error
	SetImageURL(text string)
	BeginPurchase() (domain.PurchaseIntent, error)
	SendPurchase(ctx context.Context, intent domain.PurchaseIntent) (*service.TxHandle, error)
	RequestRefresh(ctx context.Context) error
}

// HubMessage 定义了在 Hub 内部通道传递的消息类型
type HubMessage struct {
	Type    string  // "register", "unregister", "command"
	Client  *Client // 消息来源
	RawData []byte  // 仅用于 command (原始 WebSocket 消息)
}

// Hub 维护活跃客户端集合，把控制器的视图推送给所有客户端，并把客户端命令交给控制器。
type Hub struct {
	messageChan chan HubMessage

	clients   map[*Client]bool
	clientsMu sync.RWMutex

	ctrl        Controller
	unsubscribe func()
	wg          sync.WaitGroup // 跟踪异步的提交命令
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub(ctrl Controller) *Hub {
	if ctrl == nil {
		panic("Controller cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		clients:     make(map[*Client]bool),
		ctrl:        ctrl,
	}
}

// Run 启动 Hub 的主事件处理循环。
// 它应该在一个单独的 goroutine 中运行，ctx 结束后断开所有客户端。
func (h *Hub) Run(ctx context.Context) {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	h.unsubscribe = h.ctrl.Subscribe(h.broadcastView)
	defer h.unsubscribe()

	for {
		select {
		case <-ctx.Done():
			log.Info("Hub is shutting down...")
			h.closeAll()
			h.wg.Wait()
			return
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.registerClient(msg.Client)
			case "unregister":
				h.unregisterClient(msg.Client)
			case "command":
				// 命令按到达顺序处理，保证同一客户端的选择和提交不会乱序
				h.handleCommand(ctx, msg)
			default:
				log.Warnf("Hub: Received unknown message type: %s", msg.Type)
			}
		}
	}
}

// registerClient 处理客户端注册逻辑，并立即发送当前视图
func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	h.clientsMu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.clientsMu.Unlock()
	logrus.WithFields(logrus.Fields{"client": client.ID(), "clients": count}).Info("Client registered to Hub")

	msg, err := dto.NewBoardMessage(h.ctrl.View())
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal initial board view")
		return
	}
	client.trySend(msg)
}

// unregisterClient 处理客户端注销逻辑
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	logCtx := logrus.WithField("client", client.ID())

	h.clientsMu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		// 关闭 send 通道，这将导致其 WritePump 退出
		close(client.send)
		logCtx.Info("Client unregistered from Hub")
	} else {
		logCtx.Debug("Client not found during unregister")
	}
	h.clientsMu.Unlock()
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
	h.clientsMu.Unlock()
}

// handleCommand 解析并执行客户端命令，错误只回复给发起者
func (h *Hub) handleCommand(ctx context.Context, msg HubMessage) {
	logCtx := logrus.WithFields(logrus.Fields{"client": msg.Client.ID(), "operation": "handleCommand"})

	var cmd dto.IncomingCommand
	if err := json.Unmarshal(msg.RawData, &cmd); err != nil {
		logCtx.WithError(err).Debug("Malformed command")
		h.replyError(msg.Client, "", "bad_request", "malformed command")
		return
	}
	logCtx = logCtx.WithField("command", cmd.Type)

	var err error
	switch cmd.Type {
	case dto.CmdSelectTile:
		if cmd.Index == nil {
			err = service.ErrInvalidTileIndex
		} else {
			err = h.ctrl.SelectTile(*cmd.Index)
		}
	case dto.CmdSelectColor:
		err = h.ctrl.SelectColor(domain.ColorCode(cmd.Code), cmd.CustomColor)
	case dto.CmdCustomColor:
		err = h.ctrl.SetCustomColor(cmd.Color)
	case dto.CmdImageURL:
		h.ctrl.SetImageURL(cmd.ImageURL)
	case dto.CmdSubmit:
		// 校验和构建意图在循环内完成，之后的命令不会改变这次购买
		var intent domain.PurchaseIntent
		intent, err = h.ctrl.BeginPurchase()
		if err != nil {
			break
		}
		// 签名和广播放到后台执行，避免阻塞其他客户端
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.sendPurchase(ctx, msg.Client, intent)
		}()
	case dto.CmdRefresh:
		err = h.ctrl.RequestRefresh(ctx)
	default:
		h.replyError(msg.Client, cmd.Type, "unknown_command", "unknown command type")
		return
	}

	if err != nil {
		logCtx.WithError(err).Debug("Command rejected")
		h.replyError(msg.Client, cmd.Type, service.ErrorCode(err), err.Error())
	}
}

// sendPurchase 在后台广播交易，把结果只回复给发起者
func (h *Hub) sendPurchase(ctx context.Context, client *Client, intent domain.PurchaseIntent) {
	handle, err := h.ctrl.SendPurchase(ctx, intent)
	if err != nil {
		code := service.ErrorCode(err)
		if !service.IsSelectionError(err) {
			code = "submit_failed"
		}
		h.replyError(client, dto.CmdSubmit, code, err.Error())
		return
	}
	payload, err := json.Marshal(dto.SubmittedMessage{Type: dto.TypeSubmitted, TxHash: handle.Hash})
	if err != nil {
		return
	}
	h.sendTo(client, payload)
}

func (h *Hub) replyError(client *Client, command, code, message string) {
	payload, err := dto.NewErrorMessage(command, code, message)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal error message")
		return
	}
	h.sendTo(client, payload)
}

// sendTo 只在客户端仍注册时发送，避免向已关闭的通道写入
func (h *Hub) sendTo(client *Client, payload []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	if h.clients[client] {
		client.trySend(payload)
	}
}

// broadcastView 是控制器的观察者，把新视图发送给所有客户端
func (h *Hub) broadcastView(view domain.BoardView) {
	payload, err := dto.NewBoardMessage(view)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal board view for broadcast")
		return
	}
	h.broadcast(payload)
}

// broadcast 将消息发送给所有客户端
func (h *Hub) broadcast(message []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	if len(h.clients) == 0 {
		return
	}
	logrus.WithFields(logrus.Fields{
		"message_size":    len(message),
		"recipient_count": len(h.clients),
	}).Debug("Broadcasting message to clients")

	for client := range h.clients {
		// 使用非阻塞发送，避免单个慢客户端阻塞广播
		client.trySend(message)
	}
}

// --- 公共方法 ---

// QueueMessage 将消息放入 Hub 的处理队列 (非阻塞)。
// 返回 true 如果消息成功入队，false 如果队列已满。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// ClientCount 返回当前连接的客户端数量
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

