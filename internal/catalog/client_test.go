package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNewClient_MissingBaseURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "  "})
	assert.ErrorIs(t, err, ErrMissingBaseURL)
}

func TestClient_ForYou(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dramabox/foryou", r.URL.Path)
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"bookId":"41000100001","bookName":"Istri Rahasia","coverWap":"https://img/a.jpg","chapterCount":80,"playCount":"1.2M","corner":{"name":"Populer"}},
			{"bookId":"41000100002","bookName":"CEO Dingin","cover":"https://img/b.jpg","playCount":35000}
		]`))
	})

	items, err := c.ForYou(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Istri Rahasia", items[0].BookName)
	assert.Equal(t, "https://img/a.jpg", items[0].CoverURL())
	assert.Equal(t, "Populer", items[0].CornerName())
	assert.Equal(t, FlexString("1.2M"), items[0].PlayCount)
	assert.Equal(t, "https://img/b.jpg", items[1].CoverURL())
	assert.Equal(t, FlexString("35000"), items[1].PlayCount)
}

func TestClient_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := c.Latest(context.Background())
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestClient_HTTPErrorBodyTruncated(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	})

	_, err := c.Trending(context.Background())
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Len(t, httpErr.Body, previewLimit)
}

func TestClient_ShapeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	_, err := c.Trending(context.Background())
	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "trending", shapeErr.Op)
	assert.Contains(t, shapeErr.Preview, `"data"`)
}

func TestClient_Search(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/dramabox/search", r.URL.Path)
		assert.Equal(t, "cinta sejati", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`[{"bookId":"1","bookName":"Cinta Sejati","tagNames":["Romansa","CEO","Balas Dendam","Keluarga"]}]`))
	})

	items, err := c.Search(context.Background(), "  cinta sejati ")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"Romansa", "CEO", "Balas Dendam"}, items[0].TagList(3))

	empty, err := c.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, int32(1), calls.Load(), "空关键字不应请求上游")
}

func TestClient_AllEpisodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dramabox/allepisode", r.URL.Path)
		assert.Equal(t, "41000100001", r.URL.Query().Get("bookId"))
		_, _ = w.Write([]byte(`[{"chapterId":"c1","chapterIndex":0,"chapterName":"EP 1","cdnList":[{"cdnDomain":"cdn","isDefault":1,"videoPathList":[{"quality":720,"videoPath":"https://cdn/1.m3u8","isDefault":1}]}]}]`))
	})

	eps, err := c.AllEpisodes(context.Background(), "4100%20010 0001")
	require.NoError(t, err)
	require.Len(t, eps, 1)

	url, ok := SelectStream(eps[0])
	assert.True(t, ok)
	assert.Equal(t, "https://cdn/1.m3u8", url)
	assert.Equal(t, 1, eps[0].Number())
}

func TestClient_Detail(t *testing.T) {
	tests := []struct {
		name      string
		bodies    []string
		wantBook  string
		wantNil   bool
		wantErr   string
		wantCalls int32
	}{
		{
			name:      "直接的 data.book",
			bodies:    []string{`{"success":true,"message":"ok","data":{"book":{"bookId":"1","bookName":"A"},"chapterList":[{"id":"c1","index":0}],"recommends":[{"bookId":"2","bookName":"B"}]}}`},
			wantBook:  "A",
			wantCalls: 1,
		},
		{
			name:      "嵌套的 data.data.book",
			bodies:    []string{`{"success":true,"data":{"data":{"book":{"bookId":"1","bookName":"Nested"},"chapterList":[]}}}`},
			wantBook:  "Nested",
			wantCalls: 1,
		},
		{
			name: "两次都不存在",
			bodies: []string{
				`{"success":false,"status":12000,"message":"book not found"}`,
				`{"success":false,"status":12000,"message":"book not found"}`,
			},
			wantNil:   true,
			wantCalls: 2,
		},
		{
			name: "第一次不存在第二次成功",
			bodies: []string{
				`{"success":false,"status":12000}`,
				`{"success":true,"data":{"book":{"bookId":"1","bookName":"Retry"}}}`,
			},
			wantBook:  "Retry",
			wantCalls: 2,
		},
		{
			name:      "其他业务错误",
			bodies:    []string{`{"success":false,"status":500,"message":"server busy"}`},
			wantErr:   "server busy (status: 500)",
			wantCalls: 1,
		},
		{
			name: "浮点形式的不存在状态",
			bodies: []string{
				`{"success":false,"status":12000.0}`,
				`{"success":false,"status":1.2e4}`,
			},
			wantNil:   true,
			wantCalls: 2,
		},
		{
			name:      "字符串状态码不算不存在",
			bodies:    []string{`{"success":false,"status":"12000","message":"book not found"}`},
			wantErr:   "book not found (status: 12000)",
			wantCalls: 1,
		},
		{
			name:      "非数字状态码",
			bodies:    []string{`{"success":false,"status":"GONE","message":"removed"}`},
			wantErr:   "removed (status: GONE)",
			wantCalls: 1,
		},
		{
			name:      "业务错误没有状态码",
			bodies:    []string{`{"success":false}`},
			wantErr:   "API error (status: unknown)",
			wantCalls: 1,
		},
		{
			name:      "结构不符",
			bodies:    []string{`{"success":true,"data":{"items":[]}}`},
			wantErr:   "unexpected detail response shape",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				assert.Equal(t, "41000100001", r.URL.Query().Get("bookId"))
				idx := int(n) - 1
				if idx >= len(tt.bodies) {
					idx = len(tt.bodies) - 1
				}
				_, _ = w.Write([]byte(tt.bodies[idx]))
			})

			detail, err := c.Detail(context.Background(), " 41000100001 ")
			assert.Equal(t, tt.wantCalls, calls.Load())

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, detail)
				return
			}
			require.NotNil(t, detail)
			assert.Equal(t, tt.wantBook, detail.Book.BookName)
		})
	}
}

func TestClient_DetailAPIErrorType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"status":"403","message":"forbidden"}`))
	})

	_, err := c.Detail(context.Background(), "1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "403", apiErr.Status)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw      string
		wantCode float64
		wantNum  bool
		wantText string
	}{
		{`12000`, 12000, true, "12000"},
		{`12000.0`, 12000, true, "12000"},
		{`"403"`, 0, false, "403"},
		{`"GONE"`, 0, false, "GONE"},
		{`null`, 0, false, ""},
		{``, 0, false, ""},
		{`true`, 0, false, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			code, isNum, text := parseStatus([]byte(tt.raw))
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantNum, isNum)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	c, err := NewClient(Options{BaseURL: " http://upstream.test/ "})
	require.NoError(t, err)
	assert.Equal(t, "http://upstream.test", c.BaseURL())
}

func TestCleanBookID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"41000100001", "41000100001"},
		{" 4100 0100001 ", "41000100001"},
		{"4100%200100001", "41000100001"},
		{"bad%zz", "bad%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanBookID(tt.in))
		})
	}
}

func TestDrama_IsNew(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	assert.True(t, Drama{ShelfTime: "2026-10-15 08:00:00"}.IsNew(now))
	assert.False(t, Drama{ShelfTime: "2026-09-01"}.IsNew(now))
	assert.False(t, Drama{ShelfTime: "kemarin"}.IsNew(now))
	assert.False(t, Drama{}.IsNew(now))
}

func TestDrama_Rank(t *testing.T) {
	assert.Equal(t, 7, Drama{RankVo: &RankVo{Sort: 7}}.Rank(0))
	assert.Equal(t, 3, Drama{}.Rank(2))
}
