package collector

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// binarySniffLen 与 git 判断二进制文件时检查的字节数一致。
const binarySniffLen = 8000

// BlobToken 返回内容对应的 git blob 对象 ID 的 7 位缩写，
// 作为合成 diff 中 index 行的占位标识。
func BlobToken(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:7]
}

// SplitLines 按物理行拆分，末尾换行符不产生额外的空行。
func SplitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// isBinary 前 8000 字节中出现 NUL 即视为二进制。
func isBinary(content []byte) bool {
	if len(content) > binarySniffLen {
		content = content[:binarySniffLen]
	}
	return bytes.IndexByte(content, 0) >= 0
}

// SynthesizeNewFile 为未跟踪文件生成与 git 新文件 diff 同形的文本：
// 整个文件作为一个从 0 行开始的新增 hunk。
func SynthesizeNewFile(file string, content []byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", file, file)
	sb.WriteString("new file mode 100644\n")
	fmt.Fprintf(&sb, "index 0000000..%s", BlobToken(content))

	if isBinary(content) {
		fmt.Fprintf(&sb, "\nBinary files /dev/null and b/%s differ", file)
		return sb.String()
	}

	lines := SplitLines(string(content))
	if len(lines) == 0 {
		return sb.String()
	}

	sb.WriteString("\n--- /dev/null\n")
	fmt.Fprintf(&sb, "+++ b/%s\n", file)
	fmt.Fprintf(&sb, "@@ -0,0 +1,%d @@", len(lines))
	for _, line := range lines {
		sb.WriteString("\n+")
		sb.WriteString(line)
	}
	return sb.String()
}

// SynthesizeDeletedFile 为已删除文件生成镜像 diff。
// perLine 为 false 时整个旧内容（去首尾空白）折叠为单个 "-" 行；
// 为 true 时每个原始行输出一个 "-" 行。
func SynthesizeDeletedFile(file, oldContent string, perLine bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", file, file)
	sb.WriteString("deleted file mode 100644\n")
	fmt.Fprintf(&sb, "--- a/%s\n", file)
	sb.WriteString("+++ /dev/null\n")

	if !perLine {
		sb.WriteString("@@ -1 +0,0 @@\n")
		sb.WriteString("-")
		sb.WriteString(strings.TrimSpace(oldContent))
		sb.WriteString("\n")
		return sb.String()
	}

	lines := SplitLines(oldContent)
	fmt.Fprintf(&sb, "@@ -1,%d +0,0 @@\n", len(lines))
	for _, line := range lines {
		sb.WriteString("-")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
