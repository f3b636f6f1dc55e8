package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/smysle/dramabox-web/internal/metrics"
	"github.com/smysle/dramabox-web/pkg/logger"
)

// notFoundStatus 上游用来表示“书籍不存在”的业务状态码
const notFoundStatus = 12000

// Options 客户端参数
type Options struct {
	BaseURL    string
	Provider   string
	Timeout    time.Duration
	RetryCount int
	RateLimit  float64
	Burst      int
	UserAgent  string
}

// Client 上游剧集 API 客户端
type Client struct {
	baseURL    string
	provider   string
	httpClient *resty.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewClient 创建客户端，BaseURL 为空时返回 ErrMissingBaseURL
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrMissingBaseURL
	}
	if opts.Provider == "" {
		opts.Provider = "dramabox"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "DramaboxWeb/1.0 Go"
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(opts.RetryCount)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetHeaders(map[string]string{
		"Accept":        "application/json",
		"Cache-Control": "no-cache",
		"Pragma":        "no-cache",
		"User-Agent":    opts.UserAgent,
	})

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:    base,
		provider:   opts.Provider,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, burst),
		log:        logger.With("catalog"),
	}, nil
}

// BaseURL 上游地址
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) endpoint(name string) string {
	return fmt.Sprintf("%s/api/%s/%s", c.baseURL, c.provider, name)
}

// get 发送 GET 请求，非 2xx 返回 *HTTPError
func (c *Client) get(ctx context.Context, op string, query map[string]string) ([]byte, error) {
	started := time.Now()
	target := c.endpoint(op)

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.ObserveUpstream(op, "canceled", started)
		return nil, fmt.Errorf("%s fetch canceled: %w", op, err)
	}

	req := c.httpClient.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(target)
	if err != nil {
		metrics.ObserveUpstream(op, "transport_error", started)
		c.log.Error().Err(err).Str("url", target).Msg("上游请求失败")
		return nil, fmt.Errorf("%s fetch failed: %w", op, err)
	}

	if !resp.IsSuccess() {
		metrics.ObserveUpstream(op, "http_error", started)
		c.log.Warn().Str("url", target).Int("status", resp.StatusCode()).Msg("上游返回错误状态")
		return nil, &HTTPError{
			Op:         op,
			StatusCode: resp.StatusCode(),
			Status:     http.StatusText(resp.StatusCode()),
			Body:       truncate(resp.Body()),
		}
	}

	metrics.ObserveUpstream(op, "ok", started)
	return resp.Body(), nil
}

// decodeList 解析顶层数组
func decodeList[T any](op string, body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ShapeError{Op: op, Preview: truncate(trimmed)}
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, &ShapeError{Op: op, Preview: truncate(trimmed), Err: err}
	}
	return out, nil
}

func (c *Client) list(ctx context.Context, op string, query map[string]string) ([]Drama, error) {
	body, err := c.get(ctx, op, query)
	if err != nil {
		return nil, err
	}
	return decodeList[Drama](op, body)
}

// ForYou 为你推荐
func (c *Client) ForYou(ctx context.Context) ([]Drama, error) {
	return c.list(ctx, "foryou", nil)
}

// Latest 最新上架
func (c *Client) Latest(ctx context.Context) ([]Drama, error) {
	return c.list(ctx, "latest", nil)
}

// Trending 热门榜单
func (c *Client) Trending(ctx context.Context) ([]Drama, error) {
	return c.list(ctx, "trending", nil)
}

// PopularSearch 热门搜索
func (c *Client) PopularSearch(ctx context.Context) ([]Drama, error) {
	return c.list(ctx, "populersearch", nil)
}

// Search 按标题搜索，空关键字直接返回空列表
func (c *Client) Search(ctx context.Context, query string) ([]Drama, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Drama{}, nil
	}
	return c.list(ctx, "search", map[string]string{"query": query})
}

// AllEpisodes 获取全部分集的播放清单
func (c *Client) AllEpisodes(ctx context.Context, bookID string) ([]Episode, error) {
	body, err := c.get(ctx, "allepisode", map[string]string{"bookId": CleanBookID(bookID)})
	if err != nil {
		return nil, err
	}
	return decodeList[Episode]("allepisode", body)
}

// CleanBookID 解码并去掉所有空白
func CleanBookID(id string) string {
	if decoded, err := url.PathUnescape(id); err == nil {
		id = decoded
	}
	return strings.Join(strings.Fields(id), "")
}
