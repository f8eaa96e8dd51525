package search

import "strings"

// triggers is the substring allow-list for time-sensitive or factual
// queries. A heuristic, not a classifier: misses in both directions are
// acceptable.
var triggers = []string{
	"là ai", "là gì", "giá", "bao nhiêu", "tỷ giá", "thời tiết",
	"mấy giờ", "tin tức", "ở đâu", "hôm nay", "lịch sử", "ngày mấy",
	"mới", "tin", "số liệu",
}

// Needs reports whether the message should be augmented with a web search.
// Pure and deterministic.
func Needs(message string) bool {
	lower := strings.ToLower(message)
	for _, t := range triggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
