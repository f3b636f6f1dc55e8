package web

import (
	"fmt"
	"net/url"
	"time"

	"github.com/smysle/dramabox-web/internal/catalog"
	"github.com/smysle/dramabox-web/internal/watching"
	"github.com/smysle/dramabox-web/pkg/utils"
)

const (
	resumeLimit    = 12
	popularLimit   = 12
	recommendLimit = 8
	introLimit     = 90
	detailLimit    = 300

	toneError = "error"
	toneInfo  = "info"
)

// card 剧集卡片
type card struct {
	BookID    string
	Title     string
	Cover     string
	Href      string
	Episodes  int
	PlayCount string
	Intro     string
	Tags      []string
	Corner    string
	New       bool
	Hot       string
	Rank      int
	Top       bool
}

// rail 首页的一个栏目
type rail struct {
	Key      string
	Title    string
	Subtitle string
	Cards    []card
	Err      string
}

// resumeCard 继续观看卡片
type resumeCard struct {
	BookID   string
	Title    string
	Cover    string
	Href     string
	Episode  int
	Position string
	Duration string
	Percent  int
}

type homeView struct {
	Resume          []resumeCard
	ResumeAvailable bool
	Rails           []*rail
}

type chip struct {
	Label string
	Href  string
}

type searchView struct {
	Query   string
	Popular []chip
	Results []card
}

type chapterLink struct {
	Number int
	Href   string
	UTime  string
}

type dramaView struct {
	Book       catalog.Book
	Cover      string
	Released   string
	Views      string
	Follows    string
	Genres     []string
	PlayHref   string
	Chapters   []chapterLink
	Recommends []card
}

// playerMeta 进度上报时带上的剧集信息
type playerMeta struct {
	BookID       string `json:"bookId"`
	BookName     string `json:"bookName"`
	Cover        string `json:"cover"`
	ChapterID    string `json:"chapterId"`
	ChapterIndex int    `json:"chapterIndex"`
}

// playerConfig 播放器脚本的参数
type playerConfig struct {
	Src       string     `json:"src"`
	Segmented bool       `json:"segmented"`
	StartAt   float64    `json:"startAt"`
	WindowMs  int64      `json:"windowMs"`
	Meta      playerMeta `json:"meta"`
}

type episodeLink struct {
	Number int
	Href   string
	Active bool
}

type download struct {
	Quality  int
	Href     string
	Filename string
	VIP      bool
	Default  bool
}

type watchView struct {
	BookName    string
	ChapterName string
	DetailHref  string
	Player      playerConfig
	Prev        *episodeLink
	Next        *episodeLink
	Episodes    []episodeLink
	Downloads   []download
}

// notice 提示页：不可用、出错、空结果
type notice struct {
	Heading     string
	Message     string
	Detail      string
	Tone        string
	RefreshHref string
	BackHref    string
	BackLabel   string
}

func dramaHref(bookID string) string {
	return "/drama/" + url.PathEscape(bookID)
}

func watchHref(bookID, chapterID string) string {
	href := "/watch/" + url.PathEscape(bookID)
	if chapterID != "" {
		href += "?chapterId=" + url.QueryEscape(chapterID)
	}
	return href
}

// coverSrc 上游封面走代理，没有封面时用占位图
func coverSrc(remote, bookID, title string) string {
	if remote == "" {
		return "/img/cover/" + url.PathEscape(bookID) + "?" + url.Values{"title": {title}}.Encode()
	}
	return "/img/proxy?" + url.Values{"url": {remote}, "id": {bookID}, "title": {title}}.Encode()
}

func playCount(raw catalog.FlexString) string {
	if n, ok := utils.ParseCount(string(raw)); ok {
		return utils.FormatCount(n)
	}
	return string(raw)
}

// toCards 列表转卡片，tagLimit 为每张卡片的标签数
func toCards(items []catalog.Drama, now time.Time, tagLimit, limit int) []card {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]card, 0, len(items))
	for i, d := range items {
		rank := d.Rank(i)
		out = append(out, card{
			BookID:    d.BookID,
			Title:     d.BookName,
			Cover:     coverSrc(d.CoverURL(), d.BookID, d.BookName),
			Href:      dramaHref(d.BookID),
			Episodes:  d.ChapterCount,
			PlayCount: playCount(d.PlayCount),
			Intro:     utils.Truncate(d.Introduction, introLimit),
			Tags:      d.TagList(tagLimit),
			Corner:    d.CornerName(),
			New:       d.IsNew(now),
			Hot:       d.HotCode(),
			Rank:      rank,
			Top:       rank <= 3,
		})
	}
	return out
}

func toResumeCards(items []watching.Entry) []resumeCard {
	if len(items) > resumeLimit {
		items = items[:resumeLimit]
	}
	out := make([]resumeCard, 0, len(items))
	for _, e := range items {
		rc := resumeCard{
			BookID:   e.BookID,
			Title:    e.BookName,
			Cover:    coverSrc(e.Cover, e.BookID, e.BookName),
			Href:     watchHref(e.BookID, e.ChapterID),
			Episode:  e.ChapterIndex + 1,
			Position: utils.FormatClock(e.PositionSec),
			Percent:  utils.RoundPercent(e.Percent()),
		}
		if e.DurationSec > 0 {
			rc.Duration = utils.FormatClock(e.DurationSec)
		}
		out = append(out, rc)
	}
	return out
}

// releasedText 上架日期，例如 "02 Jan 2006 · 3 hari lalu"
func releasedText(shelf, now time.Time, loc *time.Location) string {
	date := utils.FormatDate(shelf, loc)
	if date == "" {
		return ""
	}
	switch days := utils.DaysBetween(shelf, now); {
	case shelf.After(now):
		return date
	case days == 0:
		return date + " · hari ini"
	default:
		return fmt.Sprintf("%s · %d hari lalu", date, days)
	}
}

func urlQuery(s string) string { return url.QueryEscape(s) }

func formatThousands(n int64) string { return utils.FormatThousands(n) }
