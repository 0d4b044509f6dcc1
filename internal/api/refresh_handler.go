package api

import (
	"net/http"
	"strconv"

	"TrialSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultKeyword    = "medtech"
	defaultMaxRecords = 50
)

type RefreshHandler struct {
	refreshService *service.RefreshService
	session        *service.Session
	logger         *logrus.Logger
}

func NewRefreshHandler(refreshService *service.RefreshService, session *service.Session, logger *logrus.Logger) *RefreshHandler {
	return &RefreshHandler{
		refreshService: refreshService,
		session:        session,
		logger:         logger,
	}
}

// RefreshCollection 按需刷新集合
// @Summary 从两个注册库抓取并合并临床试验记录
// @Param keyword query string false "检索关键词（默认medtech）"
// @Param max_records query int false "单源记录数上限（默认50）"
// @Param sample query bool false "显式使用内置示例数据（调试用）"
// @Success 200 {object} service.RefreshReport
// @Failure 500 {object} map[string]interface{}
// @Router /sync/refresh [post]
func (h *RefreshHandler) RefreshCollection(c *gin.Context) {
	keyword := c.DefaultQuery("keyword", defaultKeyword)
	maxRecords, err := strconv.Atoi(c.DefaultQuery("max_records", strconv.Itoa(defaultMaxRecords)))
	if err != nil || maxRecords <= 0 {
		maxRecords = defaultMaxRecords
	}
	sampleMode := c.DefaultQuery("sample", "false") == "true"

	report, err := h.refreshService.Refresh(c.Request.Context(), h.session, keyword, maxRecords, sampleMode)
	if err != nil {
		// 整次刷新无可见效果（加载/落盘失败），既有集合保持权威
		h.logger.WithError(err).Error("刷新失败")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"report": report,
		})
		return
	}

	// 来源级失败不影响已成功部分的落盘，整体仍按成功返回，由报告描述失败细节
	c.JSON(http.StatusOK, report)
}
