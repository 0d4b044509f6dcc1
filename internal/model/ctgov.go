package model

// CTGovStudiesResponse ClinicalTrials.gov v2 /studies 接口的分页响应
type CTGovStudiesResponse struct {
	Studies       []CTGovStudy `json:"studies"`       // 当前页研究列表
	NextPageToken string       `json:"nextPageToken"` // 续页token（为空表示无更多页）
}

// CTGovStudy 单条研究的原始结构（仅声明用到的字段路径，其余忽略）
type CTGovStudy struct {
	ProtocolSection CTGovProtocolSection `json:"protocolSection"`
}

type CTGovProtocolSection struct {
	IdentificationModule CTGovIdentificationModule `json:"identificationModule"`
	StatusModule         CTGovStatusModule         `json:"statusModule"`
	DesignModule         CTGovDesignModule         `json:"designModule"`
	ConditionsModule     CTGovConditionsModule     `json:"conditionsModule"`
	SponsorModule        CTGovSponsorModule        `json:"sponsorCollaboratorsModule"`
}

type CTGovIdentificationModule struct {
	NCTID      string `json:"nctId"`      // NCT登记号
	BriefTitle string `json:"briefTitle"` // 简短标题
}

type CTGovStatusModule struct {
	OverallStatus        string          `json:"overallStatus"` // 总体状态（如RECRUITING）
	StartDateStruct      CTGovDateStruct `json:"startDateStruct"`
	CompletionDateStruct CTGovDateStruct `json:"completionDateStruct"`
}

type CTGovDateStruct struct {
	Date string `json:"date"` // 日期字符串（YYYY-MM-DD或YYYY-MM）
}

type CTGovDesignModule struct {
	StudyType string `json:"studyType"` // 研究类型（INTERVENTIONAL/OBSERVATIONAL）
}

type CTGovConditionsModule struct {
	Conditions []string `json:"conditions"` // 疾病/状况列表
}

type CTGovSponsorModule struct {
	LeadSponsor CTGovLeadSponsor `json:"leadSponsor"`
}

type CTGovLeadSponsor struct {
	Name string `json:"name"` // 主申办方名称
}
