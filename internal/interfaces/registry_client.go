package interfaces

import (
	"context"

	"TrialSync/internal/model"
)

// FetchOptions 单次抓取的调用方选项
type FetchOptions struct {
	SampleMode bool // 显式要求返回内置示例数据（开发调试用），绝不作为空结果的隐式兜底
}

// RegistryClient 所有注册库客户端必须实现的核心接口
type RegistryClient interface {
	GetName() string                                                                                              // 注册库名称
	GetSource() model.SourceType                                                                                  // 来源标签
	FetchBatch(ctx context.Context, keyword string, maxRecords int, opts FetchOptions) ([]*model.RawTrial, error) // 抓取原始记录
}

// CollectionStore 集合持久化接口（整读整写）
type CollectionStore interface {
	Load() ([]*model.TrialRecord, bool, error) // 返回记录、是否检测到文件损坏、IO错误
	Save(records []*model.TrialRecord) error
}

// HistoryRepository 刷新历史审计接口
type HistoryRepository interface {
	SaveRun(ctx context.Context, run *model.RefreshRun) error
}
