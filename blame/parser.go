package blame

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	authorPrefix     = "author "
	authorMailPrefix = "author-mail "
	authorTimePrefix = "author-time "
)

var (
	// commitHeaderPattern 匹配 porcelain 每行记录的首行："<40 位 hash> <orig> <final> [<count>]"
	commitHeaderPattern = regexp.MustCompile(`^[0-9a-f]{40}`)

	// hunkHeaderPattern 匹配 "@@ -a[,b] +c[,d] @@"，依次捕获 a、b、c、d
	hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

// Record 表示 blame 输出中的一行及其作者信息。
type Record struct {
	CommitHash  string
	AuthorName  string
	AuthorEmail string
	Timestamp   int64
	Content     string
	// Line 为该行在当前文件中的 1-based 位置。
	Line int
}

// Date 返回作者时间的 ISO-8601 (UTC) 表示。
func (r Record) Date() string {
	return time.Unix(r.Timestamp, 0).UTC().Format(time.RFC3339)
}

// Author 返回 "Name <email>" 形式的作者标识。
func (r Record) Author() string {
	return r.AuthorName + " <" + r.AuthorEmail + ">"
}

// commitMeta 同一提交的作者元数据。
type commitMeta struct {
	name    string
	email   string
	time    int64
	hasName bool
	hasMail bool
	hasTime bool
}

func (m commitMeta) complete() bool {
	return m.hasName && m.hasMail && m.hasTime
}

// Parse 解析 `git blame --porcelain` / `--line-porcelain` 的输出。
//
// 内容行（以 TAB 开头）只在提交 hash 与作者三项元数据都已知时才生成记录。
// 普通 porcelain 格式只在某提交首次出现时输出完整头部，之后的行只有 hash 行，
// 因此元数据按提交缓存，用于补全这些缩写头部。
func Parse(raw string) []Record {
	var (
		records []Record
		hash    string
		current commitMeta
		cache   = make(map[string]commitMeta)
	)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")

		switch {
		case strings.HasPrefix(line, "\t"):
			meta := current
			if !meta.complete() {
				if cached, ok := cache[hash]; ok {
					meta = cached
				}
			}
			if hash != "" && meta.complete() {
				cache[hash] = meta
				records = append(records, Record{
					CommitHash:  hash,
					AuthorName:  meta.name,
					AuthorEmail: meta.email,
					Timestamp:   meta.time,
					Content:     line[1:],
					Line:        len(records) + 1,
				})
			}
			hash = ""
			current = commitMeta{}

		case strings.HasPrefix(line, authorMailPrefix):
			current.email = strings.TrimSuffix(strings.TrimPrefix(line[len(authorMailPrefix):], "<"), ">")
			current.hasMail = true

		case strings.HasPrefix(line, authorTimePrefix):
			ts, err := strconv.ParseInt(strings.TrimSpace(line[len(authorTimePrefix):]), 10, 64)
			if err == nil {
				current.time = ts
				current.hasTime = true
			}

		case strings.HasPrefix(line, authorPrefix):
			current.name = line[len(authorPrefix):]
			current.hasName = true

		case commitHeaderPattern.MatchString(line):
			hash = strings.Fields(line)[0]
		}
	}
	return records
}

// ChangedLines 为新版本文件中被新增的行号集合。
type ChangedLines map[int]struct{}

// Contains 判断行号是否在集合中。
func (c ChangedLines) Contains(line int) bool {
	_, ok := c[line]
	return ok
}

// Sorted 返回升序行号。
func (c ChangedLines) Sorted() []int {
	lines := make([]int, 0, len(c))
	for l := range c {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

// ParseChangedLines 按 unified diff 的行号映射规则提取新增行号。
// 第一个 hunk 之前的文件头（含 "+++"/"---"）整体跳过；hunk 内每个 "+" 行都是新增行，
// 即使内容本身以 "++" 开头。"-" 行在新文件中没有位置，不推进计数器；"\ No newline" 标记行同样忽略。
func ParseChangedLines(diff string) ChangedLines {
	changed := make(ChangedLines)
	current := 0
	inHunk := false

	for _, line := range strings.Split(diff, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if h, ok := parseHunkHeader(line); ok {
			current = h.NewStart
			inHunk = true
			continue
		}
		if strings.HasPrefix(line, "diff ") {
			inHunk = false
			continue
		}
		if !inHunk {
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			changed[current] = struct{}{}
			current++
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, `\`):
		default:
			current++
		}
	}
	return changed
}

// Hunk 为一个 hunk 头中的新旧行范围，Count 缺省为 1。
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
}

func parseHunkHeader(line string) (Hunk, bool) {
	m := hunkHeaderPattern.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, false
	}
	count := func(s string) int {
		if s == "" {
			return 1
		}
		n, _ := strconv.Atoi(s)
		return n
	}
	oldStart, _ := strconv.Atoi(m[1])
	newStart, _ := strconv.Atoi(m[3])
	return Hunk{OldStart: oldStart, OldCount: count(m[2]), NewStart: newStart, NewCount: count(m[4])}, true
}

// ParseHunks 返回 diff 中所有 hunk 头，保持出现顺序。
func ParseHunks(diff string) []Hunk {
	var hunks []Hunk
	for _, line := range strings.Split(diff, "\n") {
		if h, ok := parseHunkHeader(strings.TrimSuffix(line, "\r")); ok {
			hunks = append(hunks, h)
		}
	}
	return hunks
}

// MapLines 将旧版本行号按 hunks（旧 -> 新）平移到新版本。
// 落在被改写或删除区间内的行在新版本中没有对应位置，直接丢弃。
func MapLines(lines ChangedLines, hunks []Hunk) ChangedLines {
	mapped := make(ChangedLines, len(lines))
	for line := range lines {
		shift, kept := 0, true
		for _, h := range hunks {
			if h.OldCount == 0 {
				// 纯插入：插在旧第 OldStart 行之后
				if line > h.OldStart {
					shift += h.NewCount
				}
				continue
			}
			if line >= h.OldStart && line < h.OldStart+h.OldCount {
				kept = false
				break
			}
			if line >= h.OldStart+h.OldCount {
				shift += h.NewCount - h.OldCount
			}
		}
		if kept {
			mapped[line+shift] = struct{}{}
		}
	}
	return mapped
}
