package collector

// ChangeCategory 表示一次收集中文件所属的变更类别。
type ChangeCategory int

const (
	Staged ChangeCategory = iota
	Unstaged
	Untracked
	Deleted
)

// String 返回类别名称
func (c ChangeCategory) String() string {
	switch c {
	case Staged:
		return "staged"
	case Unstaged:
		return "unstaged"
	case Untracked:
		return "untracked"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Header 返回 diff 中该类别的分节注释行。
func (c ChangeCategory) Header() string {
	switch c {
	case Staged:
		return "# Staged changes:"
	case Unstaged:
		return "# Unstaged changes:"
	case Untracked:
		return "# New files:"
	case Deleted:
		return "# Deleted files:"
	default:
		return ""
	}
}

// listArgs 为该类别的文件列表查询参数，同时用作存在性探测。
func (c ChangeCategory) listArgs() []string {
	switch c {
	case Staged:
		return []string{"diff", "--cached", "--name-only"}
	case Unstaged:
		return []string{"diff", "--name-only"}
	case Untracked:
		return []string{"ls-files", "--others", "--exclude-standard"}
	case Deleted:
		return []string{"ls-files", "--deleted"}
	default:
		return nil
	}
}

// DiffFragment 单个文件的 unified diff 文本及其收集时的类别。
type DiffFragment struct {
	Category ChangeCategory
	Path     string
	Text     string
}

// Probe 记录四类变更是否存在。
type Probe struct {
	HasHead   bool
	Staged    bool
	Unstaged  bool
	Untracked bool
	Deleted   bool
}

// Any 只要有一类变更即返回 true。
func (p Probe) Any() bool {
	return p.Staged || p.Unstaged || p.Untracked || p.Deleted
}

// ChangeSet 一次收集的结果：合并后的 diff 文本与变更文件列表。
type ChangeSet struct {
	Diff       string
	Fragments  []DiffFragment
	Files      []string
	OnlyStaged bool
}

// Repository 为解析后的仓库根目录，作为后续所有操作的工作目录显式传递。
type Repository struct {
	Root string
}
