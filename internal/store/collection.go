package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"TrialSync/internal/interfaces"
	"TrialSync/internal/model"

	"github.com/sirupsen/logrus"
)

// ErrCorruptCollection 集合文件存在但不是合法JSON数组。
// 加载方按空集合继续工作，该错误只作为可恢复的状态标记上报
var ErrCorruptCollection = errors.New("集合文件内容损坏")

// FileStore 集合的平面文件存储：整读整写，写入走临时文件+原子替换
type FileStore struct {
	path   string
	logger *logrus.Logger
}

func NewFileStore(path string, logger *logrus.Logger) interfaces.CollectionStore {
	return &FileStore{path: path, logger: logger}
}

// Load 读取整个集合。
// 文件不存在→空集合（不是错误）；内容损坏→空集合+损坏标记；其余IO错误原样上抛
func (s *FileStore) Load() ([]*model.TrialRecord, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*model.TrialRecord{}, false, nil
		}
		return nil, false, fmt.Errorf("读取集合文件失败: %w", err)
	}

	var records []*model.TrialRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("集合文件损坏，按空集合继续")
		return []*model.TrialRecord{}, true, nil
	}
	if records == nil {
		records = []*model.TrialRecord{}
	}
	return records, false, nil
}

// Save 原子写入整个集合：先完成序列化与临时文件写入，最后rename替换。
// 任何一步失败都不会破坏既有的合法集合文件
func (s *FileStore) Save(records []*model.TrialRecord) error {
	if records == nil {
		records = []*model.TrialRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化集合失败: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建集合目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".collection-*.json")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("设置文件权限失败: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("替换集合文件失败: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":  s.path,
		"count": len(records),
	}).Info("集合已落盘")
	return nil
}
