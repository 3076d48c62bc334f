package service

import "errors"

var (
	// 选择与购买流程的业务错误
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrTileAlreadyOwned   = errors.New("tile already owned")
	ErrNoTileSelected     = errors.New("no tile selected")
	ErrEmptyImageURL      = errors.New("image url is empty")
	ErrInvalidTileIndex   = errors.New("tile index out of range")
	ErrInvalidColor       = errors.New("invalid color code")
	ErrInvalidCustomColor = errors.New("invalid custom color, expected #RRGGBB")
	ErrPurchaseInFlight   = errors.New("a purchase transaction is already pending")

	// 认证与通用错误
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInternalServer       = errors.New("internal server error")
)

// IsSelectionError 判断是否是用户输入导致的可纠正错误 (非交易错误)。
func IsSelectionError(err error) bool {
	switch {
	case errors.Is(err, ErrWalletNotConnected),
		errors.Is(err, ErrTileAlreadyOwned),
		errors.Is(err, ErrNoTileSelected),
		errors.Is(err, ErrEmptyImageURL),
		errors.Is(err, ErrInvalidTileIndex),
		errors.Is(err, ErrInvalidColor),
		errors.Is(err, ErrInvalidCustomColor),
		errors.Is(err, ErrPurchaseInFlight):
		return true
	}
	return false
}

// ErrorCode 返回错误对应的稳定错误码，供 HTTP 和 WebSocket 客户端识别。
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrWalletNotConnected):
		return "wallet_not_connected"
	case errors.Is(err, ErrTileAlreadyOwned):
		return "tile_already_owned"
	case errors.Is(err, ErrNoTileSelected):
		return "no_tile_selected"
	case errors.Is(err, ErrEmptyImageURL):
		return "empty_image_url"
	case errors.Is(err, ErrInvalidTileIndex):
		return "invalid_tile_index"
	case errors.Is(err, ErrInvalidColor):
		return "invalid_color"
	case errors.Is(err, ErrInvalidCustomColor):
		return "invalid_custom_color"
	case errors.Is(err, ErrPurchaseInFlight):
		return "purchase_in_flight"
	case errors.Is(err, ErrAuthenticationFailed):
		return "authentication_failed"
	}
	return "internal_error"
}
