package llm

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"TrialSync/internal/config"
	"TrialSync/internal/model"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrNoAPIKey 未配置API密钥
var ErrNoAPIKey = errors.New("LLM API密钥未配置")

const (
	defaultTimeout    = 60 * time.Second
	defaultCacheTTL   = time.Hour
	defaultMaxContext = 50
	systemPrompt      = "You are Roo, a helpful assistant for exploring clinical trial data."
)

// Client LLM问答客户端（OpenAI兼容chat接口，如Groq）。
// 相同问题+相同集合规模的回答在有效期内走本地缓存，
// 并发重复提问用singleflight合并为一次上游调用
type Client struct {
	cfg        *config.LLMConfig
	httpClient *http.Client
	logger     *logrus.Logger

	mu     sync.Mutex
	cache  map[string]cachedAnswer
	flight singleflight.Group
}

type cachedAnswer struct {
	answer   string
	cachedAt time.Time
}

func NewClient(cfg *config.LLMConfig, logger *logrus.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		cache:      make(map[string]cachedAnswer),
	}
}

// Ask 用筛选后的记录作为事实依据回答自然语言问题。
// 携带进提示词的记录数不超过maxContextRecords（<=0时取配置值）
func (c *Client) Ask(ctx context.Context, question string, contextRecords []*model.TrialRecord, maxContextRecords int) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("问题不能为空")
	}
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	if maxContextRecords <= 0 {
		maxContextRecords = c.cfg.MaxContextRecords
	}
	if maxContextRecords <= 0 {
		maxContextRecords = defaultMaxContext
	}
	if len(contextRecords) > maxContextRecords {
		contextRecords = contextRecords[:maxContextRecords]
	}

	// 缓存键 = 问题 + 上下文记录数（集合变化后自动失效）
	key := queryHash(question, len(contextRecords))
	if answer, ok := c.cachedAnswer(key); ok {
		c.logger.WithField("key", key).Debug("LLM回答命中缓存")
		return answer, nil
	}

	result, err, _ := c.flight.Do(key, func() (interface{}, error) {
		answer, err := c.complete(ctx, buildPrompt(question, contextRecords))
		if err != nil {
			return "", err
		}
		c.storeAnswer(key, answer)
		return answer, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) cachedAnswer(key string) (string, bool) {
	ttl := c.cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Since(entry.cachedAt) >= ttl {
		delete(c.cache, key)
		return "", false
	}
	return entry.answer, true
}

func (c *Client) storeAnswer(key, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cachedAnswer{answer: answer, cachedAt: time.Now()}
}

// ========== OpenAI兼容chat接口调用 ==========

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("序列化chat请求失败: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("构建chat请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求LLM服务失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Errorf("关闭LLM响应体失败: %v", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取LLM响应失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("LLM服务返回异常状态码%d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("解析LLM响应失败: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("LLM服务返回错误: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("LLM响应不含choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// buildPrompt 把筛选后的记录拼进提示词作为回答依据
func buildPrompt(question string, records []*model.TrialRecord) string {
	var sb strings.Builder
	sb.WriteString("Here are recent clinical trial records:\n")
	if len(records) == 0 {
		sb.WriteString("(no records available)\n")
	}
	for _, r := range records {
		sb.WriteString(fmt.Sprintf("- %s | %s | %s | %s | %s | %s\n",
			r.Title, r.Type, r.Status, strings.Join(r.Condition, ", "), r.Sponsor, r.StartDate))
	}
	sb.WriteString("\nUser question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer clearly and helpfully based on the records above.")
	return sb.String()
}

func queryHash(question string, recordCount int) string {
	h := md5.Sum([]byte(fmt.Sprintf("%s_%d", question, recordCount)))
	return hex.EncodeToString(h[:])
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
