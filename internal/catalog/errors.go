package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// previewLimit 错误信息里保留的响应长度
const previewLimit = 300

// ErrMissingBaseURL 未配置上游地址
var ErrMissingBaseURL = errors.New("catalog: missing API_BASE_URL")

// HTTPError 上游返回非 2xx
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return strings.TrimSpace(fmt.Sprintf("%s fetch failed: %d %s %s", e.Op, e.StatusCode, e.Status, e.Body))
}

// ShapeError 响应结构与预期不符
type ShapeError struct {
	Op      string
	Preview string
	Err     error
}

func (e *ShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected %s response shape: %v: %s", e.Op, e.Err, e.Preview)
	}
	return fmt.Sprintf("unexpected %s response shape: %s", e.Op, e.Preview)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// APIError 上游返回 success=false
type APIError struct {
	Message string
	Status  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "API error"
	}
	status := e.Status
	if status == "" {
		status = "unknown"
	}
	return fmt.Sprintf("%s (status: %s)", msg, status)
}

func truncate(b []byte) string {
	if len(b) > previewLimit {
		b = b[:previewLimit]
	}
	return string(b)
}
