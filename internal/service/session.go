package service

import (
	"sync"
	"time"

	"TrialSync/internal/model"
)

// Session 会话上下文：持有当前内存工作集。
// 显式传递给刷新与查询操作，不使用进程级全局状态，多个会话互不干扰
type Session struct {
	mu          sync.RWMutex
	records     []*model.TrialRecord
	lastRefresh time.Time
	corrupted   bool // 最近一次加载是否检测到集合文件损坏
}

func NewSession() *Session {
	return &Session{records: []*model.TrialRecord{}}
}

// Replace 整体替换工作集（刷新成功后调用）
func (s *Session) Replace(records []*model.TrialRecord, corrupted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if records == nil {
		records = []*model.TrialRecord{}
	}
	s.records = records
	s.lastRefresh = time.Now()
	s.corrupted = corrupted
}

// Snapshot 返回工作集快照。记录在归一化后不再原地修改，共享记录指针是安全的
func (s *Session) Snapshot() []*model.TrialRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.TrialRecord, len(s.records))
	copy(out, s.records)
	return out
}

// LastRefresh 最近一次成功刷新时间（零值表示尚未刷新过）
func (s *Session) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// Corrupted 最近一次加载是否发现文件损坏
func (s *Session) Corrupted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.corrupted
}
