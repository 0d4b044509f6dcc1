package api

import (
	"net/http"

	"TrialSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TrialHandler 提供给前端的集合查询接口
type TrialHandler struct {
	session *service.Session
	logger  *logrus.Logger
}

func NewTrialHandler(session *service.Session, logger *logrus.Logger) *TrialHandler {
	return &TrialHandler{session: session, logger: logger}
}

// ListTrials 筛选查询当前工作集
// GET /api/trials?type=Interventional&status=recruiting&from=2024-01-01&to=2024-12-31&q=diabetes
func (h *TrialHandler) ListTrials(c *gin.Context) {
	var filter service.TrialFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records := service.FilterTrials(h.session.Snapshot(), filter)
	c.JSON(http.StatusOK, gin.H{
		"total":        len(records),
		"records":      records,
		"last_refresh": h.session.LastRefresh(),
		"corrupt_load": h.session.Corrupted(),
	})
}

// GetTrialDetail 按登记号查询单条记录
// GET /api/trials/:id
func (h *TrialHandler) GetTrialDetail(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	for _, r := range h.session.Snapshot() {
		if r.ID == id {
			c.JSON(http.StatusOK, r)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "trial not found"})
}
