// Package catalog 上游剧集 API 客户端
package catalog

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// FlexString 兼容上游有时返回数字、有时返回字符串的字段
type FlexString string

// UnmarshalJSON 实现 json.Unmarshaler
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	*s = FlexString(data)
	return nil
}

// Corner 封面角标
type Corner struct {
	CornerType int    `json:"cornerType,omitempty"`
	Name       string `json:"name,omitempty"`
	Color      string `json:"color,omitempty"`
}

// RankVo 榜单信息
type RankVo struct {
	HotCode  string `json:"hotCode,omitempty"`
	Sort     int    `json:"sort,omitempty"`
	RankType int    `json:"rankType,omitempty"`
}

// Drama 列表中的剧集摘要
type Drama struct {
	BookID       string     `json:"bookId"`
	BookName     string     `json:"bookName"`
	CoverWap     string     `json:"coverWap,omitempty"`
	Cover        string     `json:"cover,omitempty"`
	ChapterCount int        `json:"chapterCount,omitempty"`
	Introduction string     `json:"introduction,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	TagNames     []string   `json:"tagNames,omitempty"`
	PlayCount    FlexString `json:"playCount,omitempty"`
	Corner       *Corner    `json:"corner,omitempty"`
	ShelfTime    string     `json:"shelfTime,omitempty"`
	Protagonist  string     `json:"protagonist,omitempty"`
	RankVo       *RankVo    `json:"rankVo,omitempty"`
	Labels       []string   `json:"labels,omitempty"`
}

// CoverURL 优先使用竖版封面
func (d Drama) CoverURL() string {
	if d.CoverWap != "" {
		return d.CoverWap
	}
	return d.Cover
}

// TagList 返回最多 n 个标签，tagNames 优先
func (d Drama) TagList(n int) []string {
	tags := d.TagNames
	if len(tags) == 0 {
		tags = d.Tags
	}
	if n > 0 && len(tags) > n {
		tags = tags[:n]
	}
	return tags
}

// Rank 榜单名次，没有时用列表位置
func (d Drama) Rank(idx int) int {
	if d.RankVo != nil && d.RankVo.Sort > 0 {
		return d.RankVo.Sort
	}
	return idx + 1
}

// HotCode 热度标记
func (d Drama) HotCode() string {
	if d.RankVo == nil {
		return ""
	}
	return d.RankVo.HotCode
}

// CornerName 角标文字
func (d Drama) CornerName() string {
	if d.Corner == nil {
		return ""
	}
	return d.Corner.Name
}

// ShelfDate 解析上架时间
func (d Drama) ShelfDate() (time.Time, bool) {
	return parseShelfTime(d.ShelfTime)
}

// IsNew 上架 7 天内视为新剧
func (d Drama) IsNew(now time.Time) bool {
	t, ok := d.ShelfDate()
	if !ok {
		return false
	}
	return t.After(now.Add(-7 * 24 * time.Hour))
}

var shelfLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseShelfTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range shelfLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Book 详情页的剧集信息
type Book struct {
	BookID       string   `json:"bookId"`
	BookName     string   `json:"bookName"`
	Cover        string   `json:"cover"`
	ViewCount    int64    `json:"viewCount"`
	FollowCount  int64    `json:"followCount"`
	Introduction string   `json:"introduction,omitempty"`
	ChapterCount int      `json:"chapterCount,omitempty"`
	Labels       []string `json:"labels,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	TypeTwoNames []string `json:"typeTwoNames,omitempty"`
	ShelfTime    string   `json:"shelfTime,omitempty"`
}

// ShelfDate 解析上架时间
func (b Book) ShelfDate() (time.Time, bool) {
	return parseShelfTime(b.ShelfTime)
}

// Genres 类型标签，typeTwoNames 优先，最多 10 个
func (b Book) Genres() []string {
	g := b.TypeTwoNames
	if len(g) == 0 {
		g = b.Tags
	}
	if len(g) > 10 {
		g = g[:10]
	}
	return g
}

// Chapter 详情页的分集摘要
type Chapter struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Index    int     `json:"index"`
	IndexStr string  `json:"indexStr,omitempty"`
	Unlock   bool    `json:"unlock"`
	MP4      string  `json:"mp4,omitempty"`
	M3U8URL  string  `json:"m3u8Url,omitempty"`
	M3U8Flag bool    `json:"m3u8Flag,omitempty"`
	Cover    string  `json:"cover,omitempty"`
	UTime    string  `json:"utime,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Detail 剧集详情（统一为 data.book 结构）
type Detail struct {
	Book       Book      `json:"book"`
	Chapters   []Chapter `json:"chapterList"`
	Recommends []Drama   `json:"recommends"`
}

// FirstChapter 第一个可播放的分集
func (d *Detail) FirstChapter() (Chapter, bool) {
	if d == nil || len(d.Chapters) == 0 {
		return Chapter{}, false
	}
	return d.Chapters[0], true
}

// Stream 某个清晰度的视频地址
type Stream struct {
	Quality     int    `json:"quality"`
	VideoPath   string `json:"videoPath"`
	IsDefaultI  int    `json:"isDefault"`
	IsEntry     int    `json:"isEntry"`
	IsVipEquity int    `json:"isVipEquity"`
}

// IsDefault 是否默认清晰度
func (s Stream) IsDefault() bool { return s.IsDefaultI == 1 }

// IsVIP 是否会员清晰度
func (s Stream) IsVIP() bool { return s.IsVipEquity == 1 }

// CDN 一个分发节点及其所有清晰度
type CDN struct {
	CDNDomain     string   `json:"cdnDomain"`
	IsDefaultI    int      `json:"isDefault"`
	VideoPathList []Stream `json:"videoPathList"`
}

// IsDefault 是否默认节点
func (c CDN) IsDefault() bool { return c.IsDefaultI == 1 }

// Episode 单集播放清单
type Episode struct {
	ChapterID     string `json:"chapterId"`
	ChapterIndex  int    `json:"chapterIndex"`
	IsCharge      int    `json:"isCharge"`
	ChapterName   string `json:"chapterName"`
	CDNList       []CDN  `json:"cdnList"`
	ChapterImg    string `json:"chapterImg,omitempty"`
	ChapterType   int    `json:"chapterType,omitempty"`
	ChargeChapter bool   `json:"chargeChapter,omitempty"`
}

// Number 展示用的集数（从 1 开始）
func (e Episode) Number() int { return e.ChapterIndex + 1 }
