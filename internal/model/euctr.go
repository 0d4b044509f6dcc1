package model

// EUCTRTrial EU临床试验注册库搜索结果页抽取出的原始记录
// 页面结构不受契约保护，所有字段都可能缺失；抽取不到登记号与标题的行不产出本结构
type EUCTRTrial struct {
	EudraCTID      string `json:"eudraCTId"`      // EudraCT登记号（格式 YYYY-NNNNNN-NN）
	PublicTitle    string `json:"publicTitle"`    // 公开标题
	Condition      string `json:"condition"`      // 疾病/状况（页面为单字符串，分号分隔多项）
	StudyType      string `json:"studyType"`      // 研究类型（通常仅详情页提供）
	Status         string `json:"status"`         // 试验状态原文
	StartDate      string `json:"startDate"`      // 开始日期原文
	CompletionDate string `json:"completionDate"` // 完成日期原文
	MainSponsor    string `json:"mainSponsor"`    // 主申办方
	DetailURL      string `json:"detailUrl"`      // 详情页相对链接（可为空）
}
