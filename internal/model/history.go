package model

import (
	"time"

	"gorm.io/datatypes"
)

// RefreshRun 刷新历史审计表（可选，配置DSN后写入PostgreSQL）
type RefreshRun struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	RunUUID      string         `gorm:"column:run_uuid;type:varchar(64);uniqueIndex;not null;comment:刷新批次全局唯一ID"`
	Keyword      string         `gorm:"column:keyword;type:varchar(128);not null;comment:检索关键词"`
	CTGovCount   int            `gorm:"column:ctgov_count;type:int;default:0;comment:ClinicalTrials.gov归一化后记录数"`
	EUCTRCount   int            `gorm:"column:euctr_count;type:int;default:0;comment:EU CTR归一化后记录数"`
	DroppedCount int            `gorm:"column:dropped_count;type:int;default:0;comment:归一化时丢弃的记录数"`
	TotalCount   int            `gorm:"column:total_count;type:int;default:0;comment:合并后集合总记录数"`
	Persisted    bool           `gorm:"column:persisted;type:boolean;default:false;comment:本次结果是否成功落盘"`
	SourceErrors datatypes.JSON `gorm:"column:source_errors;type:jsonb;comment:各来源失败详情"`
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
}

func (RefreshRun) TableName() string { return "refresh_runs" }
