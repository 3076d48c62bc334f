package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-earth/internal/tasks"
)

// Refresher 重新读取链上画板并广播，由 feed.Feed 实现
type Refresher interface {
	ForceRefresh(ctx context.Context) error
}

// BoardRefreshHandler 处理画板刷新任务
type BoardRefreshHandler struct {
	refresher Refresher
}

// NewBoardRefreshHandler 创建 Handler 实例
func NewBoardRefreshHandler(refresher Refresher) *BoardRefreshHandler {
	if refresher == nil {
		panic("refresher cannot be nil for BoardRefreshHandler")
	}
	return &BoardRefreshHandler{refresher: refresher}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *BoardRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"component": "worker",
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
	})

	payload, err := tasks.ParseBoardRefreshPayload(t)
	if err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithField("reason", payload.Reason)

	if err := h.refresher.ForceRefresh(ctx); err != nil {
		logCtx.WithError(err).Warn("Board refresh task failed")
		return fmt.Errorf("refresh board: %w", err)
	}

	logCtx.Debug("Board refresh task processed successfully")
	return nil
}
