package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Query     *QueryHandler
	Scheduler *SchedulerHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/query", deps.Query.Query)

	api.GET("/scheduler/tasks", deps.Scheduler.Tasks)
	api.POST("/scheduler/run-now", deps.Scheduler.RunNow)
}
