package player

import (
	"github.com/smysle/dramabox-web/internal/watching"
)

// ResumeOffset 续播位置：只有记录的分集与当前打开的分集相同才续播，否则从 0 开始
func ResumeOffset(entry watching.Entry, found bool, chapterID string) float64 {
	if !found || entry.ChapterID == "" || entry.ChapterID != chapterID {
		return 0
	}
	if entry.PositionSec < 0 {
		return 0
	}
	return entry.PositionSec
}
