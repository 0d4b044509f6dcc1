package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"TrialSync/internal/model"
)

// ErrNoTitle 无标题记录不进入集合，调用方据此丢弃并计数
var ErrNoTitle = errors.New("记录无可抽取标题")

// Normalize 将注册库原始记录归一化为统一TrialRecord。
// 纯函数：相同原始数据与来源标签必定产出相同记录（合成ID也是确定性的）
func Normalize(raw *model.RawTrial) (*model.TrialRecord, error) {
	switch data := raw.Data.(type) {
	case model.CTGovStudy:
		return normalizeCTGov(data)
	case model.EUCTRTrial:
		return normalizeEUCTR(data)
	default:
		return nil, fmt.Errorf("未知的原始记录类型: %T", raw.Data)
	}
}

func normalizeCTGov(s model.CTGovStudy) (*model.TrialRecord, error) {
	ps := s.ProtocolSection
	title := strings.TrimSpace(ps.IdentificationModule.BriefTitle)
	if title == "" {
		return nil, ErrNoTitle
	}

	id := strings.TrimSpace(ps.IdentificationModule.NCTID)
	if id == "" {
		id = syntheticID(model.SourceCTGov, title)
	}

	return &model.TrialRecord{
		ID:             id,
		Title:          title,
		Condition:      append([]string(nil), ps.ConditionsModule.Conditions...),
		Type:           MapInterventionType(ps.DesignModule.StudyType),
		Status:         NormalizeStatus(ps.StatusModule.OverallStatus),
		StartDate:      CanonicalizeDate(ps.StatusModule.StartDateStruct.Date),
		CompletionDate: CanonicalizeDate(ps.StatusModule.CompletionDateStruct.Date),
		Sponsor:        defaultSponsor(ps.SponsorModule.LeadSponsor.Name),
		Source:         model.SourceCTGov,
	}, nil
}

func normalizeEUCTR(t model.EUCTRTrial) (*model.TrialRecord, error) {
	title := strings.TrimSpace(t.PublicTitle)
	if title == "" {
		return nil, ErrNoTitle
	}

	id := strings.TrimSpace(t.EudraCTID)
	if id == "" {
		id = syntheticID(model.SourceEUCTR, title)
	}

	return &model.TrialRecord{
		ID:             id,
		Title:          title,
		Condition:      splitConditions(t.Condition),
		Type:           MapInterventionType(t.StudyType),
		Status:         NormalizeStatus(t.Status),
		StartDate:      CanonicalizeDate(t.StartDate),
		CompletionDate: CanonicalizeDate(t.CompletionDate),
		Sponsor:        defaultSponsor(t.MainSponsor),
		Source:         model.SourceEUCTR,
	}, nil
}

// MapInterventionType 研究类型归一化到枚举
func MapInterventionType(raw string) model.InterventionType {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "interventional"):
		return model.TypeInterventional
	case strings.Contains(s, "observational"):
		return model.TypeObservational
	case strings.Contains(s, "diagnostic"):
		return model.TypeDiagnostic
	default:
		return model.TypeUnknown
	}
}

var statusSeparators = regexp.MustCompile(`[^A-Z0-9]+`)

// NormalizeStatus 状态归一化为大写下划线token（如"Active, not recruiting"→ACTIVE_NOT_RECRUITING）
func NormalizeStatus(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return model.StatusUnknown
	}
	s = statusSeparators.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// 各注册库常见的日期写法
var dateFormats = []string{
	"2006-01-02",
	"2006-01",
	"2006",
	"January 2, 2006",
	"2 January 2006",
	"02/01/2006", // EU习惯：日/月/年
}

// CanonicalizeDate 尝试解析为ISO-8601（YYYY-MM-DD）；解析失败保留原文，绝不清零
func CanonicalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// syntheticID 上游登记号缺失时的确定性合成ID：来源+归一化标题哈希。
// 重复抓取同一记录必得同一ID，保证刷新幂等
func syntheticID(source model.SourceType, title string) string {
	data := fmt.Sprintf("%s|%s", source, normalizeTitle(title))
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])[:32]
}

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9\s]+`)
var multiSpace = regexp.MustCompile(`\s+`)

func normalizeTitle(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonAlphaNum.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func defaultSponsor(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.SponsorUnknown
	}
	return s
}

func splitConditions(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
