package euctr

import (
	"TrialSync/internal/config"
	"TrialSync/internal/utils/httpclient"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"TrialSync/internal/interfaces"
	"TrialSync/internal/model"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// ErrSourceUnavailable 网络层失败（超时/拒绝连接/DNS），与"页面结构认不出来"区分开：
// 结构性解析失败一律降级为空结果，调用方无从也无需重试
var ErrSourceUnavailable = errors.New("EU CTR源不可用")

const defaultDetailDelay = 500 * time.Millisecond

type Client struct {
	cfg        *config.RegistryConfig
	httpClient *http.Client
	logger     *logrus.Logger

	// 详情页抓取限速：对脆弱的抓取源保持固定最小间隔，这是调度契约而非性能优化
	mu        sync.Mutex
	lastFetch time.Time
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
	return "EU Clinical Trials Register"
}

func (c *Client) GetSource() model.SourceType {
	return model.SourceEUCTR
}

// FetchBatch 抓取搜索结果页并抽取试验记录。
// 页面结构无契约保证：找不到可识别的结果容器时静默返回空结果；
// 网络层失败返回可区分的ErrSourceUnavailable（不重试，避免对脆弱源造成请求风暴）。
func (c *Client) FetchBatch(ctx context.Context, keyword string, maxRecords int, opts interfaces.FetchOptions) ([]*model.RawTrial, error) {
	if keyword == "" || maxRecords <= 0 {
		return []*model.RawTrial{}, nil
	}
	if opts.SampleMode {
		c.logger.Warn("EU CTR启用示例数据模式，不访问真实页面")
		return c.sampleBatch(maxRecords), nil
	}

	params := url.Values{}
	params.Set("query", keyword)
	params.Set("page", "1")
	searchURL := fmt.Sprintf("%s?%s", c.cfg.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建EU CTR搜索请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Errorf("关闭EU CTR响应体失败: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: 状态码%d", ErrSourceUnavailable, resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		// HTML连词法层都解析不了，按"无可抽取记录"处理
		c.logger.WithError(err).Warn("EU CTR页面解析失败，按空结果处理")
		return []*model.RawTrial{}, nil
	}

	rows := parseSearchPage(root)
	if len(rows) == 0 {
		c.logger.Infof("EU CTR未找到关键词%q的可识别结果", keyword)
		return []*model.RawTrial{}, nil
	}

	var raws []*model.RawTrial
	detailsFetched := 0
	for _, row := range rows {
		if len(raws) >= maxRecords {
			break
		}
		// 登记号与标题双缺失的行不产出记录
		if row.EudraCTID == "" && row.PublicTitle == "" {
			continue
		}

		// 详情页补全（可选，受配置上限约束；失败只降级到行级数据）
		if row.DetailURL != "" && detailsFetched < c.cfg.MaxDetails {
			if err := c.fetchDetail(ctx, row); err != nil {
				c.logger.WithError(err).WithField("eudract_id", row.EudraCTID).Warn("详情页抓取失败，使用行级数据")
			}
			detailsFetched++
		}

		raws = append(raws, &model.RawTrial{
			Source: c.GetSource(),
			ID:     row.EudraCTID,
			Data:   *row,
		})
	}

	c.logger.Infof("成功从EU CTR抽取试验共%d条", len(raws))
	return raws, nil
}

// waitTurn 阻塞到距上次抓取至少间隔DetailDelay，限速在任何路径下都成立
func (c *Client) waitTurn(ctx context.Context) error {
	delay := time.Duration(c.cfg.DetailDelay) * time.Millisecond
	if delay <= 0 {
		delay = defaultDetailDelay
	}

	c.mu.Lock()
	wait := delay - time.Since(c.lastFetch)
	if wait < 0 {
		wait = 0
	}
	c.lastFetch = time.Now().Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// fetchDetail 抓取详情页补全研究类型与完成日期
func (c *Client) fetchDetail(ctx context.Context, row *model.EUCTRTrial) error {
	if err := c.waitTurn(ctx); err != nil {
		return err
	}

	detailURL := row.DetailURL
	if u, err := url.Parse(detailURL); err == nil && !u.IsAbs() {
		base, err := url.Parse(c.cfg.BaseURL)
		if err != nil {
			return fmt.Errorf("解析base_url失败: %w", err)
		}
		detailURL = base.ResolveReference(u).String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, detailURL, nil)
	if err != nil {
		return fmt.Errorf("构建详情页请求失败: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求详情页失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Errorf("关闭详情页响应体失败: %v", err)
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("详情页返回异常状态码: %d", resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return fmt.Errorf("解析详情页失败: %w", err)
	}

	applyDetailFields(root, row)
	return nil
}
