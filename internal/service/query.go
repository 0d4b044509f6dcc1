package service

import (
	"strings"
	"time"

	"TrialSync/internal/model"
	"TrialSync/internal/normalizer"
)

// TrialFilter 查询层筛选条件。零值或"All"表示该维度不约束
type TrialFilter struct {
	Type   string `form:"type" json:"type"`     // 研究类型
	Status string `form:"status" json:"status"` // 状态（任意写法，内部归一化后比较）
	From   string `form:"from" json:"from"`     // 开始日期下界（YYYY-MM-DD，含）
	To     string `form:"to" json:"to"`         // 开始日期上界（YYYY-MM-DD，含）
	Text   string `form:"q" json:"q"`           // 标题/疾病/申办方自由文本（大小写不敏感）
}

// FilterTrials 对内存集合做无状态筛选。
// 日期无法解析的记录在日期筛选下保留（宁可多展示，不隐藏数据）
func FilterTrials(records []*model.TrialRecord, f TrialFilter) []*model.TrialRecord {
	from, fromOK := parseISODate(f.From)
	to, toOK := parseISODate(f.To)
	statusToken := ""
	if !noConstraint(f.Status) {
		statusToken = normalizer.NormalizeStatus(f.Status)
	}
	text := strings.ToLower(strings.TrimSpace(f.Text))

	var out []*model.TrialRecord
	for _, r := range records {
		if !noConstraint(f.Type) && !strings.EqualFold(string(r.Type), f.Type) {
			continue
		}
		if statusToken != "" && r.Status != statusToken {
			continue
		}
		if (fromOK || toOK) && !dateInRange(r.StartDate, from, fromOK, to, toOK) {
			continue
		}
		if text != "" && !matchText(r, text) {
			continue
		}
		out = append(out, r)
	}
	if out == nil {
		out = []*model.TrialRecord{}
	}
	return out
}

func noConstraint(facet string) bool {
	return facet == "" || strings.EqualFold(facet, "All")
}

func parseISODate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		// 非法边界视为未给出该约束
		return time.Time{}, false
	}
	return t, true
}

// dateInRange 闭区间判定；记录日期解析失败时返回true（保留记录）
func dateInRange(dateStr string, from time.Time, fromOK bool, to time.Time, toOK bool) bool {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return true
	}
	if fromOK && d.Before(from) {
		return false
	}
	if toOK && d.After(to) {
		return false
	}
	return true
}

func matchText(r *model.TrialRecord, text string) bool {
	if strings.Contains(strings.ToLower(r.Title), text) {
		return true
	}
	if strings.Contains(strings.ToLower(r.Sponsor), text) {
		return true
	}
	for _, c := range r.Condition {
		if strings.Contains(strings.ToLower(c), text) {
			return true
		}
	}
	return false
}
