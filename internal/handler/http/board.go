package http

import (
	"context"
	"math/big"
	"net/http"

	"pixel-earth/internal/domain"
	"pixel-earth/internal/dto"
	"pixel-earth/internal/infra/chain"
	"pixel-earth/internal/service"
	"pixel-earth/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// BoardController 是 HTTP 层使用的控制器能力，由 service.BoardController 实现
type BoardController interface {
	View() domain.BoardView
	SelectTile(index int) error
	SelectColor(code domain.ColorCode, custom string) error
	SetCustomColor(hex string) error
	SetImageURL(text string)
	SubmitPurchase(ctx context.Context) (*service.TxHandle, error)
	ConnectWallet(ctx context.Context) error
	DisconnectWallet()
	Payment() *big.Int
}

// TaskEnqueuer 把任务放入队列，由 *asynq.Client 实现
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// BoardHandler 处理画板视图、格子选择和刷新请求
type BoardHandler struct {
	ctrl     BoardController
	enqueuer TaskEnqueuer
	network  chain.Network
}

// NewBoardHandler 创建 BoardHandler 实例
func NewBoardHandler(ctrl BoardController, enqueuer TaskEnqueuer, network chain.Network) *BoardHandler {
	return &BoardHandler{ctrl: ctrl, enqueuer: enqueuer, network: network}
}

// GetBoard 返回当前完整视图 (GET /api/board)
func (h *BoardHandler) GetBoard(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, h.ctrl.View())
}

// NetworksResponse 网络列表
type NetworksResponse struct {
	Active   chain.Network   `json:"active"`
	Networks []chain.Network `json:"networks"`
	Price    string          `json:"price"` // ether
}

// GetNetworks 返回可用网络和当前网络 (GET /api/networks)
func (h *BoardHandler) GetNetworks(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, NetworksResponse{
		Active:   h.network,
		Networks: chain.Networks(),
		Price:    chain.FormatEther(h.ctrl.Payment()),
	})
}

// RefreshBoard 把画板刷新任务放入 critical 队列 (POST /api/board/refresh)
func (h *BoardHandler) RefreshBoard(c *gin.Context) {
	task, err := tasks.NewBoardRefreshTask(tasks.ReasonManual)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	info, err := h.enqueuer.EnqueueContext(c.Request.Context(), task, asynq.Queue("critical"))
	if err != nil {
		logrus.WithError(err).Error("Handler.RefreshBoard: Failed to enqueue board refresh task")
		HandleServiceError(c, err)
		return
	}
	logrus.WithField("task_id", info.ID).Debug("Handler.RefreshBoard: Board refresh task enqueued")
	c.JSON(http.StatusAccepted, gin.H{"message": "Board refresh scheduled", "task_id": info.ID})
}

// SelectTile POST /api/selection/tile
func (h *BoardHandler) SelectTile(c *gin.Context) {
	var req dto.SelectTileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "bad_request", "Invalid input: index required")
		return
	}
	if err := h.ctrl.SelectTile(*req.Index); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, h.ctrl.View())
}

// SelectColor POST /api/selection/color
func (h *BoardHandler) SelectColor(c *gin.Context) {
	var req dto.SelectColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleServiceError(c, service.ErrInvalidColor)
		return
	}
	if err := h.ctrl.SelectColor(domain.ColorCode(req.Code), req.CustomColor); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, h.ctrl.View())
}

// SetCustomColor POST /api/selection/custom-color
func (h *BoardHandler) SetCustomColor(c *gin.Context) {
	var req dto.CustomColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleServiceError(c, service.ErrInvalidCustomColor)
		return
	}
	if err := h.ctrl.SetCustomColor(req.Color); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, h.ctrl.View())
}

// SetImageURL POST /api/selection/image-url，空字符串也是合法输入
func (h *BoardHandler) SetImageURL(c *gin.Context) {
	var req dto.ImageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "bad_request", "Invalid input")
		return
	}
	h.ctrl.SetImageURL(req.ImageURL)
	SuccessResponse(c, http.StatusOK, h.ctrl.View())
}
