package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"TrialSync/internal/interfaces"
	"TrialSync/internal/model"
	"TrialSync/internal/normalizer"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// SourceResult 单个注册库在一次刷新中的结果
type SourceResult struct {
	Source     string `json:"source"`          // 注册库名称
	Fetched    int    `json:"fetched"`         // 抓取到的原始记录数
	Normalized int    `json:"normalized"`      // 归一化成功的记录数
	Dropped    int    `json:"dropped"`         // 归一化时丢弃的记录数（无标题等）
	Error      string `json:"error,omitempty"` // 失败详情（为空表示该源成功）
	Partial    bool   `json:"partial"`         // 失败但仍带回了部分数据
}

// RefreshReport 一次刷新操作的完整报告，用于区分"没有数据"与"源失败了"
type RefreshReport struct {
	RunID       string         `json:"run_id"`
	Keyword     string         `json:"keyword"`
	Sources     []SourceResult `json:"sources"`
	NewRecords  int            `json:"new_records"`  // 本次归一化产出的增量记录数
	Total       int            `json:"total"`        // 合并后集合总记录数
	Persisted   bool           `json:"persisted"`    // 是否成功落盘
	CorruptLoad bool           `json:"corrupt_load"` // 加载时是否发现集合文件损坏
}

// Failed 是否存在来源级失败
func (r *RefreshReport) Failed() bool {
	for _, s := range r.Sources {
		if s.Error != "" {
			return true
		}
	}
	return false
}

// RefreshService 刷新工作流：抓取→归一化→合并→落盘→替换工作集。
// 各来源抓取相互独立，单源失败不中断整体；仅落盘失败会使本次刷新不产生可见效果
type RefreshService struct {
	clients []interfaces.RegistryClient  // 顺序即新记录的追加顺序
	store   interfaces.CollectionStore
	history interfaces.HistoryRepository // 可为nil（未配置审计库）
	logger  *logrus.Logger
}

func NewRefreshService(clients []interfaces.RegistryClient, store interfaces.CollectionStore, history interfaces.HistoryRepository, logger *logrus.Logger) *RefreshService {
	return &RefreshService{
		clients: clients,
		store:   store,
		history: history,
		logger:  logger,
	}
}

// Refresh 执行一次按需刷新。
// 返回的error仅在整次刷新无可见效果时非空（加载/落盘失败）；
// 来源级失败不返回error，由报告的Sources携带
func (s *RefreshService) Refresh(ctx context.Context, session *Session, keyword string, maxRecords int, sampleMode bool) (*RefreshReport, error) {
	report := &RefreshReport{
		RunID:   uuid.New().String(),
		Keyword: keyword,
		Sources: make([]SourceResult, len(s.clients)),
	}
	log := s.logger.WithFields(logrus.Fields{"run_id": report.RunID, "keyword": keyword})

	// 1. 并发抓取各注册库（无共享可变状态，互不阻塞对方的完成）
	log.WithField("stage", "fetch").Info("开始抓取注册库")
	fetched := make([][]*model.RawTrial, len(s.clients))
	var wg sync.WaitGroup
	for i, client := range s.clients {
		wg.Add(1)
		go func(i int, client interfaces.RegistryClient) {
			defer wg.Done()
			raws, err := client.FetchBatch(ctx, keyword, maxRecords, interfaces.FetchOptions{SampleMode: sampleMode})
			fetched[i] = raws
			report.Sources[i].Source = client.GetName()
			report.Sources[i].Fetched = len(raws)
			if err != nil {
				report.Sources[i].Error = err.Error()
				report.Sources[i].Partial = len(raws) > 0
				log.WithError(err).Warnf("%s抓取失败（已带回%d条）", client.GetName(), len(raws))
			}
		}(i, client)
	}
	wg.Wait()

	// 2. 归一化（按客户端顺序，保证A源记录先于B源追加）
	log.WithField("stage", "normalize").Info("开始归一化")
	var incoming []*model.TrialRecord
	for i, raws := range fetched {
		for _, raw := range raws {
			record, err := normalizer.Normalize(raw)
			if err != nil {
				report.Sources[i].Dropped++
				log.WithError(err).WithField("source", raw.Source).Debug("记录被丢弃")
				continue
			}
			report.Sources[i].Normalized++
			incoming = append(incoming, record)
		}
	}
	report.NewRecords = len(incoming)

	// 3. 加载既有集合并合并
	log.WithField("stage", "merge").Info("合并既有集合")
	existing, corrupted, err := s.store.Load()
	if err != nil {
		s.recordHistory(ctx, report)
		return report, fmt.Errorf("加载既有集合失败: %w", err)
	}
	report.CorruptLoad = corrupted
	merged := Merge(existing, incoming)
	report.Total = len(merged)

	// 4. 落盘：失败则既有文件保持权威，内存工作集不替换
	log.WithField("stage", "persist").Info("写入集合文件")
	if err := s.store.Save(merged); err != nil {
		s.recordHistory(ctx, report)
		return report, fmt.Errorf("集合落盘失败: %w", err)
	}
	report.Persisted = true

	// 5. 替换工作集
	session.Replace(merged, corrupted)

	s.recordHistory(ctx, report)
	log.WithFields(logrus.Fields{
		"stage": "done",
		"new":   report.NewRecords,
		"total": report.Total,
	}).Info("刷新完成")
	return report, nil
}

// recordHistory 审计写入为尽力而为，失败只记日志，不影响刷新结果
func (s *RefreshService) recordHistory(ctx context.Context, report *RefreshReport) {
	if s.history == nil {
		return
	}

	run := &model.RefreshRun{
		RunUUID:    report.RunID,
		Keyword:    report.Keyword,
		TotalCount: report.Total,
		Persisted:  report.Persisted,
	}
	var failures []SourceResult
	for _, src := range report.Sources {
		switch src.Source {
		case string(model.SourceCTGov):
			run.CTGovCount = src.Normalized
		case string(model.SourceEUCTR):
			run.EUCTRCount = src.Normalized
		}
		run.DroppedCount += src.Dropped
		if src.Error != "" {
			failures = append(failures, src)
		}
	}
	if len(failures) > 0 {
		if data, err := json.Marshal(failures); err == nil {
			run.SourceErrors = datatypes.JSON(data)
		}
	}

	if err := s.history.SaveRun(ctx, run); err != nil {
		s.logger.WithError(err).Warn("刷新历史写入失败")
	}
}
