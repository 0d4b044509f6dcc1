package ctgov

import (
	"TrialSync/internal/config"
	"TrialSync/internal/utils/httpclient"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"TrialSync/internal/interfaces"
	"TrialSync/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize   = 100 // v2接口单页上限
	defaultRetryCount = 3
)

type Client struct {
	cfg        *config.RegistryConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(cfg *config.RegistryConfig, logger *logrus.Logger) interfaces.RegistryClient {
	return &Client{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// GetName ========== 实现RegistryClient接口 ==========
func (c *Client) GetName() string {
	return "ClinicalTrials.gov"
}

func (c *Client) GetSource() model.SourceType {
	return model.SourceCTGov
}

// FetchBatch 分页抓取研究记录，客户端只返回原生结构，不做归一化。
// 翻页依赖服务端返回的续页token；累计达到maxRecords或无续页token时停止。
// 某一页重试耗尽时返回已累计的页（部分成功优于全量失败），错误一并上抛。
func (c *Client) FetchBatch(ctx context.Context, keyword string, maxRecords int, opts interfaces.FetchOptions) ([]*model.RawTrial, error) {
	// 入参不合法：直接返回空，不发起网络调用
	if keyword == "" || maxRecords <= 0 {
		return []*model.RawTrial{}, nil
	}
	if opts.SampleMode {
		c.logger.Warn("ClinicalTrials.gov启用示例数据模式，不访问真实接口")
		return c.sampleBatch(maxRecords), nil
	}

	pageSize := c.cfg.PageSize
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}

	var raws []*model.RawTrial
	pageToken := ""
	for len(raws) < maxRecords {
		remaining := maxRecords - len(raws)
		size := pageSize
		if remaining < size {
			size = remaining
		}

		studies, nextToken, err := c.fetchPageWithRetry(ctx, keyword, size, pageToken)
		if err != nil {
			c.logger.WithError(err).Warnf("ClinicalTrials.gov翻页中断，保留已获取的%d条", len(raws))
			return raws, fmt.Errorf("获取ClinicalTrials.gov第%d条之后的分页失败: %w", len(raws), err)
		}

		// 空页视为无更多数据：异常服务端可能带着续页token返回空页，不能靠它驱动循环
		if len(studies) == 0 {
			break
		}

		for _, s := range studies {
			raws = append(raws, &model.RawTrial{
				Source: c.GetSource(),
				ID:     s.ProtocolSection.IdentificationModule.NCTID,
				Data:   s,
			})
		}

		if nextToken == "" {
			break
		}
		pageToken = nextToken
	}

	c.logger.Infof("成功获取ClinicalTrials.gov研究共%d条", len(raws))
	return raws, nil
}

// fetchPageWithRetry 单页请求：瞬时失败（网络错误、非2xx、响应体不可解析）按指数退避重试
func (c *Client) fetchPageWithRetry(ctx context.Context, keyword string, pageSize int, pageToken string) ([]model.CTGovStudy, string, error) {
	retryCount := c.cfg.RetryCount
	if retryCount <= 0 {
		retryCount = defaultRetryCount
	}

	var lastErr error
	for attempt := 0; attempt < retryCount; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			c.logger.WithError(lastErr).Warnf("第%d次请求失败，%v后重试", attempt, backoff)
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		studies, nextToken, err := c.requestPage(ctx, keyword, pageSize, pageToken)
		if err == nil {
			return studies, nextToken, nil
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("重试%d次后仍失败: %w", retryCount, lastErr)
}

func (c *Client) requestPage(ctx context.Context, keyword string, pageSize int, pageToken string) ([]model.CTGovStudy, string, error) {
	params := url.Values{}
	params.Set("query.term", keyword)
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("format", "json")
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	reqURL := fmt.Sprintf("%s/studies?%s", c.cfg.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("构建请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("请求studies接口失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Errorf("关闭响应体失败: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("studies接口返回异常状态码: %d", resp.StatusCode)
	}

	var page model.CTGovStudiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", fmt.Errorf("解析studies响应失败: %w", err)
	}
	return page.Studies, page.NextPageToken, nil
}
