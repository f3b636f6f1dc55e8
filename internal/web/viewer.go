package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/smysle/dramabox-web/internal/watching"
)

const viewerLocal = "viewer"

// viewer 为每个浏览器分配一个匿名 ID，继续观看记录按它隔离
func (s *Server) viewer(c *fiber.Ctx) error {
	id := c.Cookies(s.cfg.Web.CookieName)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     s.cfg.Web.CookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   s.cfg.Web.CookieMaxAgeDays * 24 * 3600,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	c.Locals(viewerLocal, id)
	return c.Next()
}

func viewerID(c *fiber.Ctx) string {
	id, _ := c.Locals(viewerLocal).(string)
	return id
}

// store 当前观看者的继续观看列表
func (s *Server) store(c *fiber.Ctx) *watching.Store {
	return watching.NewStore(s.backend, watching.KeyFor(viewerID(c)),
		watching.WithMaxItems(s.cfg.Storage.MaxItems))
}
