package collector

import (
	"path"
	"strings"
)

// submoduleMarkers 子模块相关输出行的行首标记。
var submoduleMarkers = []string{"Subproject commit ", "Entering ", "Submodule "}

// submoduleSuffix 状态行末尾的子模块注释，路径本身不参与匹配。
const submoduleSuffix = " (Submodule changes)"

// stagedCodes 暂存区列中被视为"已暂存"的状态码：Modified、Added、Deleted、Renamed。
const stagedCodes = "MADR"

// StatusEntry 为 `git status --porcelain` 的一行。
// Index 与 Worktree 分别是 XY 两列的状态字符。
type StatusEntry struct {
	Index    byte
	Worktree byte
	Path     string
	OrigPath string // 仅 rename/copy 时非空
}

// IsUntracked 对应 "??"。
func (e StatusEntry) IsUntracked() bool {
	return e.Index == '?' && e.Worktree == '?'
}

// IsNew 未跟踪或已作为新文件加入暂存区。
func (e StatusEntry) IsNew() bool {
	return e.IsUntracked() || e.Index == 'A'
}

// IsDeleted 在暂存区或工作树中被删除。
func (e StatusEntry) IsDeleted() bool {
	return e.Index == 'D' || e.Worktree == 'D'
}

// IsStaged 暂存区列为 M/A/D/R 之一。
func (e StatusEntry) IsStaged() bool {
	return e.Index != 0 && strings.IndexByte(stagedCodes, e.Index) >= 0
}

// IsChanged 两列中任意一列非空白。
func (e StatusEntry) IsChanged() bool {
	return e.Index != ' ' || e.Worktree != ' '
}

// Status 保持 git 输出顺序的状态条目列表。
type Status []StatusEntry

// ParseStatus 解析 porcelain 输出。空行与子模块状态行被丢弃。
// 输出不能预先 TrimSpace，否则首行的空白状态列会丢失。
func ParseStatus(out string) Status {
	var entries Status
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || isSubmoduleLine(line) || len(line) < 3 {
			continue
		}

		entry := StatusEntry{Index: line[0], Worktree: line[1]}
		rest := line[2:]
		// "R100 old -> new"：相似度分数紧跟在状态码之后
		if entry.Index == 'R' && isDigit(entry.Worktree) {
			entry.Worktree = ' '
			if i := strings.IndexByte(line, ' '); i >= 0 {
				rest = line[i:]
			}
		}
		rest = strings.TrimSpace(rest)
		if rest == "" {
			continue
		}

		if before, after, ok := strings.Cut(rest, " -> "); ok && (entry.Index == 'R' || entry.Index == 'C' || entry.Worktree == 'R') {
			entry.OrigPath = unquotePath(before)
			entry.Path = unquotePath(after)
		} else {
			entry.Path = unquotePath(rest)
		}
		entries = append(entries, entry)
	}
	return entries
}

// Files 返回变更文件路径。onlyStaged 时仅保留暂存区列为 M/A/D/R 的条目，
// 否则保留任意一列非空白的条目。重命名条目返回新路径。
func (s Status) Files(onlyStaged bool) []string {
	files := make([]string, 0, len(s))
	for _, e := range s {
		if onlyStaged {
			if !e.IsStaged() {
				continue
			}
		} else if !e.IsChanged() {
			continue
		}
		files = append(files, e.Path)
	}
	return files
}

// Lookup 按规范化后的路径查找条目。
func (s Status) Lookup(file string) (StatusEntry, bool) {
	want := NormalizePath(file)
	for _, e := range s {
		if NormalizePath(e.Path) == want {
			return e, true
		}
	}
	return StatusEntry{}, false
}

// NormalizePath 去掉前导斜杠并清理为相对仓库根目录的 slash 路径。
func NormalizePath(file string) string {
	return path.Clean(strings.TrimLeft(strings.ReplaceAll(file, "\\", "/"), "/"))
}

func isSubmoduleLine(line string) bool {
	for _, marker := range submoduleMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return strings.HasSuffix(line, submoduleSuffix)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
