package api

import (
	"errors"
	"net/http"

	"TrialSync/internal/llm"
	"TrialSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AskHandler 自然语言问答接口：筛选出的记录作为依据交给LLM协作方
type AskHandler struct {
	llmClient *llm.Client
	session   *service.Session
	logger    *logrus.Logger
}

func NewAskHandler(llmClient *llm.Client, session *service.Session, logger *logrus.Logger) *AskHandler {
	return &AskHandler{
		llmClient: llmClient,
		session:   session,
		logger:    logger,
	}
}

// AskRequest 问答请求体
type AskRequest struct {
	Question          string              `json:"question" binding:"required"` // 用户问题
	Filter            service.TrialFilter `json:"filter"`                      // 可选：限定依据记录范围
	MaxContextRecords int                 `json:"max_context_records"`         // 可选：依据记录数上限
}

// Ask 回答关于当前集合的自然语言问题
// POST /api/ask
func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contextRecords := service.FilterTrials(h.session.Snapshot(), req.Filter)
	answer, err := h.llmClient.Ask(c.Request.Context(), req.Question, contextRecords, req.MaxContextRecords)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, llm.ErrNoAPIKey) {
			status = http.StatusServiceUnavailable
		}
		h.logger.WithError(err).Error("LLM问答失败")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":          answer,
		"context_records": len(contextRecords),
	})
}
