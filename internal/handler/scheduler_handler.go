package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/verseworks/poemrag/internal/pkg/errcode"
	"github.com/verseworks/poemrag/internal/pkg/response"
	"github.com/verseworks/poemrag/internal/schedule"
)

type SchedulerHandler struct {
	manager *schedule.Manager
}

func NewSchedulerHandler(manager *schedule.Manager) *SchedulerHandler {
	return &SchedulerHandler{manager: manager}
}

func (h *SchedulerHandler) Tasks(c *gin.Context) {
	response.Success(c, gin.H{"tasks": h.manager.TaskInfo()})
}

type runNowRequest struct {
	TaskID string `json:"task_id"`
}

// RunNow kicks off a job in the background and returns immediately; the
// result lands in the task list once the run completes.
func (h *SchedulerHandler) RunNow(c *gin.Context) {
	var req runNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.TaskID == "" {
		response.Error(c, errcode.ErrInvalid, "task_id is required")
		return
	}
	go func() {
		if _, err := h.manager.RunNow(context.Background(), req.TaskID); err != nil {
			logutil.GetLogger(context.Background()).Error("manual trigger failed",
				zap.String("task_id", req.TaskID), zap.Error(err))
		}
	}()
	response.Success(c, gin.H{"task_id": req.TaskID, "triggered": true})
}
