package domain

import (
	"fmt"
	"strings"
)

// Selection 是用户尚未提交的本地输入状态。
// 只由 BoardController 持有和修改。
type Selection struct {
	TileIndex   int       `json:"tile_index"`   // NoTile 表示未选择
	ColorCode   ColorCode `json:"color_code"`   // 1-7
	CustomColor string    `json:"custom_color"` // 仅在 ColorCode == 7 时使用
	ImageURL    string    `json:"image_url"`
}

// NewSelection 返回启动时的默认选择：未选格子，红色，默认紫色自定义色。
func NewSelection() Selection {
	return Selection{
		TileIndex:   NoTile,
		ColorCode:   ColorRed,
		CustomColor: DefaultCustomHex,
	}
}

// HasTile 是否已选择格子
func (s Selection) HasTile() bool {
	return s.TileIndex != NoTile
}

// ImageURLBlank 图片地址为空或只包含空白字符
func (s Selection) ImageURLBlank() bool {
	return strings.TrimSpace(s.ImageURL) == ""
}

// SwatchHex 返回当前选择颜色的预览色。
// 自定义颜色只在这里实时展示，已购买的自定义格子统一显示哨兵色。
func (s Selection) SwatchHex() string {
	if s.ColorCode == ColorCustom {
		return s.CustomColor
	}
	if hex, ok := s.ColorCode.PaletteHex(); ok {
		return hex
	}
	return UnownedTileColor
}

// Intent 根据当前选择构造购买意图。调用方负责先做校验。
func (s Selection) Intent() PurchaseIntent {
	return PurchaseIntent{
		TileIndex: s.TileIndex,
		ColorCode: s.ColorCode,
		ImageURL:  s.ImageURL,
	}
}

// PurchaseIntent 是提交给交易提交者的最终请求，不做持久化。
type PurchaseIntent struct {
	TileIndex int       `json:"tile_index"`
	ColorCode ColorCode `json:"color_code"`
	ImageURL  string    `json:"image_url"`
}

func (p PurchaseIntent) String() string {
	return fmt.Sprintf("tile=%d color=%d image=%q", p.TileIndex, p.ColorCode, p.ImageURL)
}

// ValidHexColor 校验颜色选择器的取值格式 "#RRGGBB"。
func ValidHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
