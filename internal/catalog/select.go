package catalog

import "sort"

// preferredQuality 没有默认清晰度时优先选择的档位
const preferredQuality = 720

// DefaultCDN 默认节点，没有标记时取第一个
func DefaultCDN(ep Episode) (CDN, bool) {
	for _, cdn := range ep.CDNList {
		if cdn.IsDefault() {
			return cdn, true
		}
	}
	if len(ep.CDNList) == 0 {
		return CDN{}, false
	}
	return ep.CDNList[0], true
}

// SelectStream 选出一个可播放地址。
// 顺序：默认清晰度 -> 720p -> 最高清晰度；没有可用地址时第二个返回值为 false。
func SelectStream(ep Episode) (string, bool) {
	cdn, ok := DefaultCDN(ep)
	if !ok || len(cdn.VideoPathList) == 0 {
		return "", false
	}

	for _, s := range cdn.VideoPathList {
		if s.IsDefault() {
			return s.VideoPath, s.VideoPath != ""
		}
	}

	for _, s := range cdn.VideoPathList {
		if s.Quality == preferredQuality {
			return s.VideoPath, s.VideoPath != ""
		}
	}

	best := sortByQuality(cdn.VideoPathList)[0]
	return best.VideoPath, best.VideoPath != ""
}

// SortedStreams 默认节点的全部清晰度，从高到低
func SortedStreams(ep Episode) []Stream {
	cdn, ok := DefaultCDN(ep)
	if !ok {
		return nil
	}
	return sortByQuality(cdn.VideoPathList)
}

func sortByQuality(streams []Stream) []Stream {
	sorted := make([]Stream, len(streams))
	copy(sorted, streams)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Quality > sorted[j].Quality
	})
	return sorted
}
