package web

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/smysle/dramabox-web/internal/catalog"
	"github.com/smysle/dramabox-web/internal/player"
	"github.com/smysle/dramabox-web/pkg/utils"
)

// home 首页：继续观看 + 三个栏目并发加载，单个栏目失败只影响自己
func (s *Server) home(c *fiber.Ctx) error {
	ctx := c.UserContext()
	now := time.Now().In(s.loc)

	rails := []*rail{
		{Key: "foryou", Title: "For You"},
		{Key: "latest", Title: "Latest", Subtitle: "Update terbaru yang baru masuk"},
		{Key: "trending", Title: "Trending", Subtitle: "Paling ramai ditonton saat ini"},
	}
	fetchers := []func(context.Context) ([]catalog.Drama, error){
		s.catalog.ForYou,
		s.catalog.Latest,
		s.catalog.Trending,
	}

	var g errgroup.Group
	for i, r := range rails {
		r := r
		fetch := fetchers[i]
		g.Go(func() error {
			items, err := fetch(ctx)
			if err != nil {
				s.log.Warn().Err(err).Str("rail", r.Key).Msg("加载首页栏目失败")
				r.Err = err.Error()
				return nil
			}
			r.Cards = toCards(items, now, 2, 0)
			return nil
		})
	}

	store := s.store(c)
	view := homeView{
		ResumeAvailable: store.Available(),
		Rails:           rails,
	}
	view.Resume = toResumeCards(store.ReadAll(ctx))

	_ = g.Wait()
	return s.render(c, fiber.StatusOK, "home", "", view)
}

// search 搜索页：热门搜索 + 搜索结果，失败时当作空列表
func (s *Server) search(c *fiber.Ctx) error {
	ctx := c.UserContext()
	q := strings.TrimSpace(c.Query("q"))

	var popular, results []catalog.Drama
	var g errgroup.Group
	g.Go(func() error {
		items, err := s.catalog.PopularSearch(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("加载热门搜索失败")
			return nil
		}
		popular = items
		return nil
	})
	if q != "" {
		g.Go(func() error {
			items, err := s.catalog.Search(ctx, q)
			if err != nil {
				s.log.Warn().Err(err).Str("q", q).Msg("搜索失败")
				return nil
			}
			results = items
			return nil
		})
	}
	_ = g.Wait()

	view := searchView{Query: q}
	for i, p := range popular {
		if i >= popularLimit {
			break
		}
		view.Popular = append(view.Popular, chip{
			Label: p.BookName,
			Href:  "/search?q=" + urlQuery(p.BookName),
		})
	}
	view.Results = toCards(results, time.Now().In(s.loc), 3, 0)

	return s.render(c, fiber.StatusOK, "search", "Search", view)
}

// drama 详情页
func (s *Server) drama(c *fiber.Ctx) error {
	bookID := catalog.CleanBookID(c.Params("bookId"))
	if bookID == "" {
		return fiber.ErrNotFound
	}

	detail, err := s.catalog.Detail(c.UserContext(), bookID)
	if err != nil {
		s.log.Warn().Err(err).Str("bookId", bookID).Msg("加载剧集详情失败")
		return s.render(c, fiber.StatusBadGateway, "notice", "Detail", notice{
			Heading:   "Gagal memuat detail drama.",
			Detail:    utils.Truncate(err.Error(), detailLimit),
			Tone:      toneError,
			BackHref:  "/",
			BackLabel: "Kembali",
		})
	}
	if detail == nil {
		return s.render(c, fiber.StatusNotFound, "notice", "Detail", notice{
			Heading:     "Detail belum tersedia",
			Message:     `API sedang mengembalikan status "buku tidak ditemukan" untuk ID ini. Coba refresh beberapa saat lagi.`,
			Tone:        toneInfo,
			RefreshHref: dramaHref(bookID),
			BackHref:    "/",
			BackLabel:   "Kembali ke Home",
		})
	}

	book := detail.Book
	now := time.Now().In(s.loc)
	view := dramaView{
		Book:       book,
		Cover:      coverSrc(book.Cover, book.BookID, book.BookName),
		Views:      formatThousands(book.ViewCount),
		Follows:    formatThousands(book.FollowCount),
		Genres:     book.Genres(),
		Recommends: toCards(detail.Recommends, now, 0, recommendLimit),
	}
	if shelf, ok := book.ShelfDate(); ok {
		view.Released = releasedText(shelf, now, s.loc)
	}
	if first, ok := detail.FirstChapter(); ok {
		view.PlayHref = watchHref(book.BookID, first.ID)
	}
	for _, ch := range detail.Chapters {
		view.Chapters = append(view.Chapters, chapterLink{
			Number: ch.Index + 1,
			Href:   watchHref(book.BookID, ch.ID),
			UTime:  ch.UTime,
		})
	}

	return s.render(c, fiber.StatusOK, "drama", book.BookName, view)
}

// watch 播放页：详情和分集并发加载
func (s *Server) watch(c *fiber.Ctx) error {
	ctx := c.UserContext()
	bookID := catalog.CleanBookID(c.Params("bookId"))
	if bookID == "" {
		return fiber.ErrNotFound
	}
	chapterID := strings.TrimSpace(c.Query("chapterId"))

	var (
		detail   *catalog.Detail
		episodes []catalog.Episode
	)
	var g errgroup.Group
	g.Go(func() error {
		d, err := s.catalog.Detail(ctx, bookID)
		if err != nil {
			// 详情失败按“暂不可用”处理
			s.log.Warn().Err(err).Str("bookId", bookID).Msg("加载剧集详情失败")
			return nil
		}
		detail = d
		return nil
	})
	g.Go(func() error {
		eps, err := s.catalog.AllEpisodes(ctx, bookID)
		if err != nil {
			// 分集失败按空列表处理，由下面的分支给出提示
			s.log.Warn().Err(err).Str("bookId", bookID).Msg("加载分集失败")
			return nil
		}
		episodes = eps
		return nil
	})
	_ = g.Wait()

	if detail == nil {
		return s.render(c, fiber.StatusNotFound, "notice", "Watch", notice{
			Heading:     "Video belum tersedia",
			Message:     "Detail drama untuk ID ini belum bisa diambil dari API saat ini. Coba refresh beberapa saat lagi.",
			Tone:        toneInfo,
			RefreshHref: watchHref(bookID, ""),
			BackHref:    "/",
			BackLabel:   "Kembali ke Home",
		})
	}

	book := detail.Book
	idx := findEpisode(episodes, chapterID)
	if idx < 0 {
		return s.render(c, fiber.StatusNotFound, "notice", book.BookName, notice{
			Message:   "Episode tidak tersedia untuk diputar.",
			Tone:      toneInfo,
			BackHref:  dramaHref(book.BookID),
			BackLabel: "Kembali ke Detail",
		})
	}
	selected := episodes[idx]

	src, ok := catalog.SelectStream(selected)
	if !ok {
		return s.render(c, fiber.StatusNotFound, "notice", book.BookName, notice{
			Message:   "Video URL tidak tersedia untuk episode ini.",
			Tone:      toneInfo,
			BackHref:  dramaHref(book.BookID),
			BackLabel: "Kembali ke Detail",
		})
	}

	entry, found := s.store(c).Find(ctx, book.BookID)
	plan := player.PlanSource(src)

	view := watchView{
		BookName:    book.BookName,
		ChapterName: selected.ChapterName,
		DetailHref:  dramaHref(book.BookID),
		Player: playerConfig{
			Src:       plan.Src,
			Segmented: plan.Segmented,
			StartAt:   player.ResumeOffset(entry, found, selected.ChapterID),
			WindowMs:  s.progressWindow().Milliseconds(),
			Meta: playerMeta{
				BookID:       book.BookID,
				BookName:     book.BookName,
				Cover:        book.Cover,
				ChapterID:    selected.ChapterID,
				ChapterIndex: selected.ChapterIndex,
			},
		},
	}
	for i, ep := range episodes {
		link := episodeLink{
			Number: ep.Number(),
			Href:   watchHref(book.BookID, ep.ChapterID),
			Active: i == idx,
		}
		view.Episodes = append(view.Episodes, link)
		switch i {
		case idx - 1:
			prev := link
			view.Prev = &prev
		case idx + 1:
			next := link
			view.Next = &next
		}
	}
	for _, st := range catalog.SortedStreams(selected) {
		view.Downloads = append(view.Downloads, download{
			Quality:  st.Quality,
			Href:     st.VideoPath,
			Filename: fmt.Sprintf("%s - EP %d - %dp.mp4", book.BookName, selected.Number(), st.Quality),
			VIP:      st.IsVIP(),
			Default:  st.IsDefault(),
		})
	}

	return s.render(c, fiber.StatusOK, "watch", book.BookName, view)
}

// findEpisode 没指定分集时取第一集
func findEpisode(episodes []catalog.Episode, chapterID string) int {
	if chapterID == "" {
		if len(episodes) == 0 {
			return -1
		}
		return 0
	}
	for i, ep := range episodes {
		if ep.ChapterID == chapterID {
			return i
		}
	}
	return -1
}

func (s *Server) progressWindow() time.Duration {
	if s.cfg.Web.ProgressWindow <= 0 {
		return player.DefaultWindow
	}
	return time.Duration(s.cfg.Web.ProgressWindow) * time.Second
}
