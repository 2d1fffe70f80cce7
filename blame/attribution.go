package blame

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NoChangesMessage 是没有任何可归属行时的报告文本，批量汇总时会被过滤掉。
const NoChangesMessage = "No changes detected."

// AuthorAttribution 单个作者在本次变更中涉及的行。
type AuthorAttribution struct {
	Author string
	Count  int
	Lines  []int
}

// Attribute 将落在 changed 中的 blame 记录按作者分桶，作者按首次出现顺序排列。
func Attribute(records []Record, changed ChangedLines) []AuthorAttribution {
	var (
		result []AuthorAttribution
		index  = make(map[string]int)
	)
	for _, r := range records {
		if !changed.Contains(r.Line) {
			continue
		}
		author := r.Author()
		i, ok := index[author]
		if !ok {
			i = len(result)
			index[author] = i
			result = append(result, AuthorAttribution{Author: author})
		}
		result[i].Count++
		result[i].Lines = append(result[i].Lines, r.Line)
	}
	return result
}

// Format 按行数降序渲染归属结果，行数相同保持首次出现顺序。
func Format(attributions []AuthorAttribution) string {
	if len(attributions) == 0 {
		return NoChangesMessage
	}

	sorted := make([]AuthorAttribution, len(attributions))
	copy(sorted, attributions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	lines := make([]string, 0, len(sorted))
	for _, a := range sorted {
		noun := "lines"
		if a.Count == 1 {
			noun = "line"
		}
		lines = append(lines, fmt.Sprintf("%s modified %d %s (%s)", a.Author, a.Count, noun, joinInts(a.Lines)))
	}
	return strings.Join(lines, "\n")
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
