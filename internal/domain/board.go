package domain

import (
	"math/big"
	"time"
)

// 画布尺寸：10x10 共 100 个格子
const (
	GridWidth = 10
	BoardSize = GridWidth * GridWidth
	NoTile    = -1 // Selection 中表示“未选择格子”
)

// ColorCode 是链上记录的颜色编号。
// 0 表示未被购买，1-6 是固定调色板，7 是自定义颜色的哨兵值。
type ColorCode uint8

const (
	ColorNone   ColorCode = 0
	ColorRed    ColorCode = 1
	ColorGreen  ColorCode = 2
	ColorBlue   ColorCode = 3
	ColorYellow ColorCode = 4
	ColorCyan   ColorCode = 5
	ColorOrange ColorCode = 6
	ColorCustom ColorCode = 7
)

// 显示用颜色常量
const (
	UnownedTileColor  = "#FFFFFF" // 未购买格子的占位色
	CustomSentinelHex = "#FF00FF" // 已购买的自定义颜色格子统一显示为紫色
	DefaultCustomHex  = "#FF00FF" // 颜色选择器的默认值
	ImageOverlayAlpha = 0.7       // 图片覆盖层透明度
)

// palette 固定调色板 (编号 1-6)
var palette = map[ColorCode]string{
	ColorRed:    "#FF0000",
	ColorGreen:  "#00FF00",
	ColorBlue:   "#0000FF",
	ColorYellow: "#FFFF00",
	ColorCyan:   "#00FFFF",
	ColorOrange: "#FFA500",
}

// Valid 判断是否是可以用于购买的颜色编号 (1-7)。
func (c ColorCode) Valid() bool {
	return c >= ColorRed && c <= ColorCustom
}

// PaletteHex 返回固定调色板中的颜色；自定义颜色或无效编号返回 false。
func (c ColorCode) PaletteHex() (string, bool) {
	hex, ok := palette[c]
	return hex, ok
}

// PaletteCodes 按顺序返回所有可选的颜色编号，包括自定义颜色。
func PaletteCodes() []ColorCode {
	return []ColorCode{ColorRed, ColorGreen, ColorBlue, ColorYellow, ColorCyan, ColorOrange, ColorCustom}
}

// Tile 表示画布上的一个格子 (链上的 Earth 记录)。
type Tile struct {
	ColorCode ColorCode `json:"color"`     // 0 表示未购买
	Price     *big.Int  `json:"price"`     // 购买时支付的金额 (wei)，nil 视为 0
	ImageURL  string    `json:"image_url"` // 可选的外部图片地址
}

// Owned 格子一旦颜色非 0 即视为已购买，之后不可再修改。
func (t Tile) Owned() bool {
	return t.ColorCode != ColorNone
}

// Board 是 100 个格子的完整快照，每次刷新整体替换，不做局部合并。
type Board struct {
	Tiles [BoardSize]Tile `json:"tiles"`
}

// NewBoard 创建默认填充的画板 (全部未购买)。
func NewBoard() Board {
	var b Board
	for i := range b.Tiles {
		b.Tiles[i] = Tile{ColorCode: ColorNone, Price: new(big.Int)}
	}
	return b
}

// InRange 判断格子编号是否合法。
func InRange(index int) bool {
	return index >= 0 && index < BoardSize
}

// Tile 返回指定编号的格子，越界时返回 false。
func (b Board) Tile(index int) (Tile, bool) {
	if !InRange(index) {
		return Tile{}, false
	}
	return b.Tiles[index], true
}

// OwnedCount 统计已被购买的格子数量。
func (b Board) OwnedCount() int {
	n := 0
	for _, t := range b.Tiles {
		if t.Owned() {
			n++
		}
	}
	return n
}

// BoardSnapshot 是带有元数据的画板快照，用于 Redis 缓存和 Pub/Sub 分发。
type BoardSnapshot struct {
	Board       Board     `json:"board"`
	BlockNumber uint64    `json:"block_number,omitempty"` // 读取时的区块高度 (可选)
	FetchedAt   time.Time `json:"fetched_at"`
}
