package api

import (
	"net/http"
	"strconv"

	"TrialSync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HistoryHandler 刷新历史查询接口（仅在配置了审计库时注册）
type HistoryHandler struct {
	historyRepo *repository.HistoryRepository
	logger      *logrus.Logger
}

func NewHistoryHandler(historyRepo *repository.HistoryRepository, logger *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{historyRepo: historyRepo, logger: logger}
}

// ListRuns 查询最近的刷新批次
// GET /api/refresh-runs?limit=20
func (h *HistoryHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.historyRepo.ListRecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("查询刷新历史失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(runs), "runs": runs})
}
