package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 定义任务类型常量
const (
	TypeBoardRefresh = "board:refresh" // 重新读取链上画板并广播
)

// 触发刷新的原因
const (
	ReasonScheduled = "scheduled"
	ReasonManual    = "manual"
)

// BoardRefreshPayload 定义了画板刷新任务的数据结构
type BoardRefreshPayload struct {
	Reason string `json:"reason"`
}

// NewBoardRefreshTask 创建一个新的画板刷新任务。
// 刷新是幂等的，失败后只重试一次，下一轮调度会再次刷新。
func NewBoardRefreshTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(BoardRefreshPayload{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("marshal board refresh payload: %w", err)
	}
	return asynq.NewTask(TypeBoardRefresh, payload,
		asynq.MaxRetry(1),
		asynq.Timeout(30*time.Second),
	), nil
}

// ParseBoardRefreshPayload 解析任务 payload
func ParseBoardRefreshPayload(t *asynq.Task) (BoardRefreshPayload, error) {
	var payload BoardRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return BoardRefreshPayload{}, err
	}
	return payload, nil
}
