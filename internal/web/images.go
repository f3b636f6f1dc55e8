package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/smysle/dramabox-web/pkg/imggen"
)

const (
	imageCacheControl = "public, max-age=86400"
	maxImageBytes     = 5 << 20
	maxImageRedirects = 3
)

var errImageTooLarge = errors.New("image too large")

// imageRedirectPolicy 跳转目标也必须在白名单内
func (s *Server) imageRedirectPolicy() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxImageRedirects {
			return fmt.Errorf("stopped after %d redirects", maxImageRedirects)
		}
		if !allowedImageURL(req.URL, s.cfg.Web.ImageHostAllowed) {
			return fmt.Errorf("redirect to %s not allowed", req.URL.Host)
		}
		return nil
	})
}

func allowedImageURL(u *url.URL, allowed func(string) bool) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && allowed(u.Hostname())
}

// coverImage 占位封面
func (s *Server) coverImage(c *fiber.Ctx) error {
	return s.sendPlaceholder(c, c.Params("bookId"), c.Query("title"))
}

// proxyImage 代理白名单域名的封面，失败时返回占位图
func (s *Server) proxyImage(c *fiber.Ctx) error {
	raw := c.Query("url")
	bookID := c.Query("id")
	title := c.Query("title")

	u, err := url.Parse(raw)
	if err != nil || !allowedImageURL(u, s.cfg.Web.ImageHostAllowed) {
		s.log.Debug().Str("url", raw).Msg("图片地址不在白名单，使用占位图")
		return s.sendPlaceholder(c, bookID, title)
	}

	resp, err := s.images.R().
		SetContext(c.UserContext()).
		SetDoNotParseResponse(true).
		Get(u.String())
	if err != nil {
		s.log.Debug().Err(err).Str("url", raw).Msg("获取封面失败")
		return s.sendPlaceholder(c, bookID, title)
	}
	defer resp.RawBody().Close()

	contentType := resp.Header().Get(fiber.HeaderContentType)
	if !resp.IsSuccess() || !strings.HasPrefix(contentType, "image/") {
		s.log.Debug().Int("status", resp.StatusCode()).Str("type", contentType).Msg("封面响应无效")
		return s.sendPlaceholder(c, bookID, title)
	}

	body, err := readLimited(resp.RawBody(), resp.RawResponse.ContentLength, maxImageBytes)
	if err != nil {
		s.log.Debug().Err(err).Str("url", raw).Msg("读取封面失败")
		return s.sendPlaceholder(c, bookID, title)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, imageCacheControl)
	return c.Send(body)
}

// readLimited 最多读取 limit 字节，超出返回 errImageTooLarge
func readLimited(r io.Reader, declared, limit int64) ([]byte, error) {
	if declared > limit {
		return nil, errImageTooLarge
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errImageTooLarge
	}
	return body, nil
}

func (s *Server) sendPlaceholder(c *fiber.Ctx, bookID, title string) error {
	png, err := imggen.GenerateCover(imggen.CoverConfig{
		Title:    title,
		Subtitle: s.cfg.SiteName,
		Seed:     bookID,
	})
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, imageCacheControl)
	return c.Send(png)
}
