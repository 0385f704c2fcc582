package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/verseworks/poemrag/internal/pkg/errcode"
	"github.com/verseworks/poemrag/internal/pkg/response"
	"github.com/verseworks/poemrag/internal/rag"
)

const defaultTopK = 3

type QueryHandler struct {
	pipeline *rag.Pipeline
}

func NewQueryHandler(pipeline *rag.Pipeline) *QueryHandler {
	return &QueryHandler{pipeline: pipeline}
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Query == "" {
		response.Error(c, errcode.ErrInvalid, "query is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}
	result := h.pipeline.Query(c.Request.Context(), req.Query, req.TopK)
	response.Success(c, result)
}
