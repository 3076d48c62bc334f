package dto

import (
	"encoding/json"

	"pixel-earth/internal/domain"
)

// WebSocket 消息类型
const (
	TypeBoard     = "board"
	TypeError     = "error"
	TypeSubmitted = "submitted"

	CmdSelectTile  = "select_tile"
	CmdSelectColor = "select_color"
	CmdCustomColor = "custom_color"
	CmdImageURL    = "image_url"
	CmdSubmit      = "submit"
	CmdRefresh     = "refresh"
)

// IncomingCommand 表示从客户端 WebSocket 消息中接收的命令
type IncomingCommand struct {
	Type        string `json:"type"`
	Index       *int   `json:"index,omitempty"`
	Code        uint8  `json:"code,omitempty"`
	CustomColor string `json:"custom_color,omitempty"`
	Color       string `json:"color,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// BoardMessage 推送给客户端的完整视图
type BoardMessage struct {
	Type string           `json:"type"`
	View domain.BoardView `json:"view"`
}

// ErrorMessage 发送给命令发起者的错误消息
type ErrorMessage struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SubmittedMessage 购买交易已广播时发送给发起者
type SubmittedMessage struct {
	Type   string `json:"type"`
	TxHash string `json:"tx_hash"`
}

func NewBoardMessage(view domain.BoardView) ([]byte, error) {
	return json.Marshal(BoardMessage{Type: TypeBoard, View: view})
}

func NewErrorMessage(command, code, message string) ([]byte, error) {
	return json.Marshal(ErrorMessage{Type: TypeError, Command: command, Code: code, Message: message})
}

// HTTP 请求体

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type SelectTileRequest struct {
	Index *int `json:"index" binding:"required"`
}

type SelectColorRequest struct {
	Code        uint8  `json:"code" binding:"required"`
	CustomColor string `json:"custom_color"`
}

type CustomColorRequest struct {
	Color string `json:"color" binding:"required"`
}

type ImageURLRequest struct {
	ImageURL string `json:"image_url"`
}
