package service

import "TrialSync/internal/model"

// Merge 按登记号去重合并增量记录到既有集合。
// 既有记录保持原有顺序；新记录按首见顺序追加；
// 同ID冲突时仅当增量记录已填充字段数严格更多才替换，且替换后保留既有记录的来源标签
func Merge(existing, incoming []*model.TrialRecord) []*model.TrialRecord {
	merged := make([]*model.TrialRecord, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))

	for _, r := range existing {
		if r == nil || r.ID == "" {
			continue
		}
		// 历史文件里的重复行只保留首条，保证集合内ID唯一
		if _, ok := index[r.ID]; ok {
			continue
		}
		index[r.ID] = len(merged)
		merged = append(merged, r.Clone())
	}

	for _, r := range incoming {
		if r == nil || r.ID == "" {
			continue
		}
		pos, ok := index[r.ID]
		if !ok {
			index[r.ID] = len(merged)
			merged = append(merged, r.Clone())
			continue
		}
		current := merged[pos]
		if r.PopulatedFields() > current.PopulatedFields() {
			replacement := r.Clone()
			replacement.Source = current.Source // source一经设定不改写
			merged[pos] = replacement
		}
	}

	return merged
}
