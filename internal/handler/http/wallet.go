package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WalletHandler 处理钱包会话请求
type WalletHandler struct {
	ctrl BoardController
}

func NewWalletHandler(ctrl BoardController) *WalletHandler {
	return &WalletHandler{ctrl: ctrl}
}

// Connect POST /api/wallet/connect
func (h *WalletHandler) Connect(c *gin.Context) {
	if err := h.ctrl.ConnectWallet(c.Request.Context()); err != nil {
		HandleChainError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, h.ctrl.View().Wallet)
}

// Disconnect POST /api/wallet/disconnect
func (h *WalletHandler) Disconnect(c *gin.Context) {
	h.ctrl.DisconnectWallet()
	SuccessResponse(c, http.StatusOK, h.ctrl.View().Wallet)
}

// Get GET /api/wallet
func (h *WalletHandler) Get(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, h.ctrl.View().Wallet)
}
