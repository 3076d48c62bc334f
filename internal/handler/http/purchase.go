package http

import (
	"net/http"
	"strconv"

	"pixel-earth/internal/infra/chain"
	"pixel-earth/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PurchaseHandler 处理购买提交和账本查询
type PurchaseHandler struct {
	ctrl   BoardController
	ledger repository.PurchaseRepository
}

func NewPurchaseHandler(ctrl BoardController, ledger repository.PurchaseRepository) *PurchaseHandler {
	return &PurchaseHandler{ctrl: ctrl, ledger: ledger}
}

// SubmitResponse 交易已广播，结果稍后通过 WebSocket 或状态查询获得
type SubmitResponse struct {
	TxHash       string `json:"tx_hash"`
	PaymentWei   string `json:"payment_wei"`
	PaymentEther string `json:"payment_ether"`
}

// Submit POST /api/purchases
func (h *PurchaseHandler) Submit(c *gin.Context) {
	handle, err := h.ctrl.SubmitPurchase(c.Request.Context())
	if err != nil {
		HandleChainError(c, err)
		return
	}
	payment := h.ctrl.Payment()
	logrus.WithField("tx_hash", handle.Hash).Info("Handler.Submit: Purchase transaction submitted")
	c.JSON(http.StatusAccepted, SubmitResponse{
		TxHash:       handle.Hash,
		PaymentWei:   payment.String(),
		PaymentEther: chain.FormatEther(payment),
	})
}

// List GET /api/purchases?limit=
func (h *PurchaseHandler) List(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ErrorResponse(c, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}
	purchases, err := h.ledger.ListRecent(c.Request.Context(), limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"purchases": purchases})
}

// Get GET /api/purchases/:hash
func (h *PurchaseHandler) Get(c *gin.Context) {
	hash := c.Param("hash")
	if b, err := hexutil.Decode(hash); err != nil || len(b) != common.HashLength {
		ErrorResponse(c, http.StatusBadRequest, "bad_request", "invalid transaction hash")
		return
	}
	purchase, err := h.ledger.FindByTxHash(c.Request.Context(), common.HexToHash(hash).Hex())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, purchase)
}
