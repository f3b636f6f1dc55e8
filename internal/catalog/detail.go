package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
)

type detailEnvelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Status  json.RawMessage `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// detailData 兼容 data.book 和 data.data.book 两种嵌套
type detailData struct {
	Book        *Book       `json:"book"`
	ChapterList []Chapter   `json:"chapterList"`
	Recommends  []Drama     `json:"recommends"`
	Data        *detailData `json:"data"`
}

// Detail 获取剧集详情。
// 上游返回“不存在”状态时结果为 (nil, nil)，此时会再请求一次。
func (c *Client) Detail(ctx context.Context, bookID string) (*Detail, error) {
	id := CleanBookID(bookID)

	first, err := c.detailOnce(ctx, id)
	if err != nil || first != nil {
		return first, err
	}

	c.log.Debug().Str("bookId", id).Msg("详情返回不存在，重试一次")
	return c.detailOnce(ctx, id)
}

func (c *Client) detailOnce(ctx context.Context, id string) (*Detail, error) {
	body, err := c.get(ctx, "detail", map[string]string{"bookId": id})
	if err != nil {
		return nil, err
	}
	return parseDetail(body)
}

func parseDetail(body []byte) (*Detail, error) {
	trimmed := bytes.TrimSpace(body)

	var env detailEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &ShapeError{Op: "detail", Preview: truncate(trimmed), Err: err}
	}

	if env.Success != nil && !*env.Success {
		code, isNum, text := parseStatus(env.Status)
		if isNum && code == notFoundStatus {
			return nil, nil
		}
		return nil, &APIError{Message: env.Message, Status: text}
	}

	var data detailData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, &ShapeError{Op: "detail", Preview: truncate(trimmed), Err: err}
		}
	}

	switch {
	case data.Book != nil:
		return data.toDetail(), nil
	case data.Data != nil && data.Data.Book != nil:
		return data.Data.toDetail(), nil
	default:
		return nil, &ShapeError{Op: "detail", Preview: truncate(trimmed)}
	}
}

// parseStatus 解析业务状态码。只有 JSON 数字参与比较，其他类型保留原文用于错误信息
func parseStatus(raw json.RawMessage) (code float64, isNum bool, text string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && raw[0] != '"' {
		if f, err := n.Float64(); err == nil {
			return f, true, strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return 0, false, s
	}
	return 0, false, string(raw)
}

func (d *detailData) toDetail() *Detail {
	return &Detail{
		Book:       *d.Book,
		Chapters:   d.ChapterList,
		Recommends: d.Recommends,
	}
}
