package domain

import "strings"

// TileView 是单个格子的显示数据。
type TileView struct {
	Index        int     `json:"index"`
	Color        string  `json:"color"`
	ImageURL     string  `json:"image_url,omitempty"`
	ImageOpacity float64 `json:"image_opacity,omitempty"`
	Owned        bool    `json:"owned"`
	Selected     bool    `json:"selected"`
	Interactive  bool    `json:"interactive"` // 已购买的格子不可点击
}

// SelectionView 是控制面板的显示数据。
type SelectionView struct {
	TileIndex   *int      `json:"tile_index"` // 未选择时为 null
	ColorCode   ColorCode `json:"color_code"`
	CustomColor string    `json:"custom_color"`
	Swatch      string    `json:"swatch"` // 当前选中颜色的实时预览
	ImageURL    string    `json:"image_url"`
}

// WalletView 钱包连接状态
type WalletView struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
	Short     string `json:"short,omitempty"` // 形如 0x1234...ab
	ChainID   uint64 `json:"chain_id,omitempty"`
	ChainName string `json:"chain_name,omitempty"`
}

// TxView 交易状态
type TxView struct {
	Status    TxStatus `json:"status"`
	TxHash    string   `json:"tx_hash,omitempty"`
	LastError string   `json:"last_error,omitempty"`
}

// BoardView 是整页的渲染结果。
type BoardView struct {
	Tiles     [BoardSize]TileView `json:"tiles"`
	Selection SelectionView       `json:"selection"`
	Wallet    WalletView          `json:"wallet"`
	Tx        TxView              `json:"tx"`
	CanSubmit bool                `json:"can_submit"`
	Owned     int                 `json:"owned"`
}

// TileColor 计算格子的显示颜色。
func TileColor(t Tile) string {
	if !t.Owned() {
		return UnownedTileColor
	}
	if t.ColorCode == ColorCustom {
		return CustomSentinelHex
	}
	if hex, ok := t.ColorCode.PaletteHex(); ok {
		return hex
	}
	// 链上出现调色板以外的编号，按自定义颜色处理
	return CustomSentinelHex
}

// Render 根据 Board、Selection、钱包和交易状态计算完整视图。
// 纯函数：相同输入总是得到相同输出。
func Render(b Board, s Selection, w WalletView, tx TxView) BoardView {
	var v BoardView
	for i, t := range b.Tiles {
		owned := t.Owned()
		tv := TileView{
			Index:       i,
			Color:       TileColor(t),
			Owned:       owned,
			Selected:    s.TileIndex == i,
			Interactive: !owned,
		}
		if owned && strings.TrimSpace(t.ImageURL) != "" {
			tv.ImageURL = t.ImageURL
			tv.ImageOpacity = ImageOverlayAlpha
		}
		v.Tiles[i] = tv
	}

	v.Selection = SelectionView{
		ColorCode:   s.ColorCode,
		CustomColor: s.CustomColor,
		Swatch:      s.SwatchHex(),
		ImageURL:    s.ImageURL,
	}
	if s.HasTile() {
		idx := s.TileIndex
		v.Selection.TileIndex = &idx
	}

	v.Wallet = w
	if w.Connected {
		v.Wallet.Short = ShortAddress(w.Address)
	}
	v.Tx = tx
	v.CanSubmit = w.Connected && s.HasTile() && tx.Status != TxPending
	v.Owned = b.OwnedCount()
	return v
}

// ShortAddress 把地址缩写为 "前 6 位...后 2 位"。
func ShortAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-2:]
}
