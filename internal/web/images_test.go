package web

import (
	"bytes"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverImage(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)

	resp := do(t, s, httptest.NewRequest(http.MethodGet, "/img/cover/41000100001?title=Istri+Rahasia", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	_, err := png.Decode(resp.Body)
	assert.NoError(t, err)
}

func TestReadLimited(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		declared int64
		wantErr  bool
	}{
		{"未声明长度", "abcd", -1, false},
		{"刚好等于上限", "abcdefgh", 8, false},
		{"声明长度超限", "abc", 9, true},
		{"实际内容超限", "abcdefghi", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := readLimited(strings.NewReader(tt.body), tt.declared, 8)
			if tt.wantErr {
				assert.ErrorIs(t, err, errImageTooLarge)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestProxyImage(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 'J', 'F', 'I', 'F'}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(jpeg)
		case "/moved.jpg":
			http.Redirect(w, r, "/ok.jpg", http.StatusFound)
		case "/escape.jpg":
			// localhost 指向同一个服务，但不在白名单里
			http.Redirect(w, r, "http://localhost:"+r.Host[strings.LastIndex(r.Host, ":")+1:]+"/ok.jpg", http.StatusFound)
		case "/loop.jpg":
			http.Redirect(w, r, "/loop.jpg", http.StatusFound)
		case "/huge.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(bytes.Repeat([]byte{0xff}, maxImageBytes+1))
		case "/html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)
	host, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Web.ImageHosts = append(cfg.Web.ImageHosts, host.Hostname())
	s := New(cfg, Deps{Catalog: &fakeCatalog{}})

	tests := []struct {
		name     string
		remote   string
		wantType string
		wantBody []byte
	}{
		{"白名单内", upstream.URL + "/ok.jpg", "image/jpeg", jpeg},
		{"同域跳转", upstream.URL + "/moved.jpg", "image/jpeg", jpeg},
		{"跳出白名单", upstream.URL + "/escape.jpg", "image/png", nil},
		{"跳转过多", upstream.URL + "/loop.jpg", "image/png", nil},
		{"图片过大", upstream.URL + "/huge.jpg", "image/png", nil},
		{"上游 404", upstream.URL + "/missing.jpg", "image/png", nil},
		{"不是图片", upstream.URL + "/html", "image/png", nil},
		{"不在白名单", "https://evil.example.com/a.jpg", "image/png", nil},
		{"非法协议", "file:///etc/passwd", "image/png", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/img/proxy?" + url.Values{"url": {tt.remote}, "id": {"b1"}, "title": {"T"}}.Encode()
			resp := do(t, s, httptest.NewRequest(http.MethodGet, target, nil))
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantType, resp.Header.Get("Content-Type"))

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			if tt.wantBody != nil {
				assert.Equal(t, tt.wantBody, body)
			} else {
				_, err := png.Decode(bytes.NewReader(body))
				assert.NoError(t, err)
			}
		})
	}
}
