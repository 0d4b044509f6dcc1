package model

// SourceType 注册库来源枚举
type SourceType string

const (
	SourceCTGov SourceType = "ClinicalTrials.gov"          // 结构化API源
	SourceEUCTR SourceType = "EU Clinical Trials Register" // 网页抓取源
)

// InterventionType 研究类型枚举
type InterventionType string

const (
	TypeInterventional InterventionType = "Interventional"
	TypeObservational  InterventionType = "Observational"
	TypeDiagnostic     InterventionType = "Diagnostic"
	TypeUnknown        InterventionType = "Unknown"
)

// 常见的标准化状态token（status字段统一为大写下划线形式，未知值原样大写保留）
const (
	StatusRecruiting          = "RECRUITING"
	StatusCompleted           = "COMPLETED"
	StatusActiveNotRecruiting = "ACTIVE_NOT_RECRUITING"
	StatusTerminated          = "TERMINATED"
	StatusSuspended           = "SUSPENDED"
	StatusUnknown             = "UNKNOWN"
)

// SponsorUnknown 申办方缺失时的占位值
const SponsorUnknown = "Unknown"

// TrialRecord 统一的临床试验记录模型（抹平各注册库差异）
// JSON字段名与历史集合文件保持稳定，不可改动
type TrialRecord struct {
	ID             string           `json:"id"`              // 注册库登记号（去重键，缺失时为确定性合成ID）
	Title          string           `json:"title"`           // 研究标题（必填，无标题记录在归一化时被丢弃）
	Condition      []string         `json:"condition"`       // 研究疾病/状况列表（可为空）
	Type           InterventionType `json:"type"`            // 研究类型
	Status         string           `json:"status"`          // 招募/生命周期状态token
	StartDate      string           `json:"start_date"`      // 开始日期（可解析时为YYYY-MM-DD，否则保留原文）
	CompletionDate string           `json:"completion_date"` // 完成日期（同上）
	Sponsor        string           `json:"sponsor"`         // 主申办方名称
	Source         SourceType       `json:"source"`          // 来源注册库（记录建立后不再改写）
}

// PopulatedFields 统计已填充字段数，用于合并时的"信息更全者胜出"判定
func (t *TrialRecord) PopulatedFields() int {
	n := 0
	if t.Title != "" {
		n++
	}
	if len(t.Condition) > 0 {
		n++
	}
	if t.Type != "" && t.Type != TypeUnknown {
		n++
	}
	if t.Status != "" && t.Status != StatusUnknown {
		n++
	}
	if t.StartDate != "" {
		n++
	}
	if t.CompletionDate != "" {
		n++
	}
	if t.Sponsor != "" && t.Sponsor != SponsorUnknown {
		n++
	}
	return n
}

// Clone 返回记录的深拷贝（condition切片独立），避免会话与存储间共享底层数组
func (t *TrialRecord) Clone() *TrialRecord {
	c := *t
	if t.Condition != nil {
		c.Condition = append([]string(nil), t.Condition...)
	}
	return &c
}
