package http

import (
	"errors"
	"net/http"

	"pixel-earth/internal/infra/chain"
	"pixel-earth/internal/repository"
	"pixel-earth/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HandleServiceError 把业务错误映射为 HTTP 状态码
func HandleServiceError(c *gin.Context, err error) {
	code := service.ErrorCode(err)
	switch {
	case errors.Is(err, service.ErrWalletNotConnected), errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, code, err.Error())
	case errors.Is(err, service.ErrTileAlreadyOwned), errors.Is(err, service.ErrPurchaseInFlight):
		ErrorResponse(c, http.StatusConflict, code, err.Error())
	case errors.Is(err, service.ErrNoTileSelected),
		errors.Is(err, service.ErrEmptyImageURL),
		errors.Is(err, service.ErrInvalidTileIndex),
		errors.Is(err, service.ErrInvalidColor),
		errors.Is(err, service.ErrInvalidCustomColor):
		ErrorResponse(c, http.StatusBadRequest, code, err.Error())
	case errors.Is(err, repository.ErrPurchaseNotFound):
		ErrorResponse(c, http.StatusNotFound, "not_found", err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, code, "An unexpected error occurred")
	}
}

// HandleChainError 处理提交交易或连接钱包时来自链的错误。
// 业务错误按 HandleServiceError 处理，其余视为上游失败。
func HandleChainError(c *gin.Context, err error) {
	switch {
	case service.IsSelectionError(err):
		HandleServiceError(c, err)
	case errors.Is(err, chain.ErrNoSigningKey):
		ErrorResponse(c, http.StatusServiceUnavailable, "wallet_unavailable", err.Error())
	default:
		logrus.WithError(err).Warn("Chain request failed")
		ErrorResponse(c, http.StatusBadGateway, "chain_error", err.Error())
	}
}
