package repository

import (
	"context"
	"fmt"

	"TrialSync/internal/model"

	"gorm.io/gorm"
)

// HistoryRepository 刷新历史审计仓储（PostgreSQL，可选启用）
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// SaveRun 写入一条刷新批次记录
func (r *HistoryRepository) SaveRun(ctx context.Context, run *model.RefreshRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("写入refresh_runs失败: %w", err)
	}
	return nil
}

// ListRecentRuns 按时间倒序查询最近的刷新批次
func (r *HistoryRepository) ListRecentRuns(ctx context.Context, limit int) ([]*model.RefreshRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []*model.RefreshRun
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
