package prompt

import (
	"strings"

	"github.com/penwyp/gitsage/internal/logger"
	"go.uber.org/zap"
)

// DefaultMaxDiffLength 默认 diff 最大字符数
const DefaultMaxDiffLength = 100000

const (
	truncMarker  = "\n...(truncated)"
	closingLine  = "Please provide ONLY the commit message, without any additional text or explanations."
	diffHeading  = "Git diff to analyze:"
	blameHeading = "Git blame analysis:"
)

// Builder 将 diff 与 blame 报告组合为提交信息生成所需的 Prompt 文本。
// 支持语言指令、提交格式模板与 diff 截断。
type Builder struct {
	lang          Language
	format        Format
	maxDiffLength int    // 字符数，0 表示不截断
	custom        string // 自定义指令，非空时替代格式模板与语言指令
	logger        *zap.Logger
}

// Option 配置 Builder
type Option func(*Builder)

// WithLogger 设置日志记录器
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = logger.OrNop(l) }
}

// WithCustomInstructions 使用自定义指令替代内置模板
func WithCustomInstructions(instructions string) Option {
	return func(b *Builder) { b.custom = strings.TrimSpace(instructions) }
}

// NewBuilder 创建 Prompt Builder。
// 不支持的格式回退到 conventional，不支持的语言回退到 english。
func NewBuilder(lang, format string, maxDiffLength int, opts ...Option) *Builder {
	b := &Builder{
		lang:          Language(strings.ToLower(lang)),
		format:        Format(strings.ToLower(format)),
		maxDiffLength: maxDiffLength,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.format == "" {
		b.format = FormatConventional
	}
	if b.lang == "" {
		b.lang = LanguageEnglish
	}
	if !IsValidFormat(string(b.format)) {
		b.logger.Warn("Invalid commit format, falling back to conventional", zap.String("format", format))
		b.format = FormatConventional
	}
	if !IsValidLanguage(string(b.lang)) {
		b.logger.Warn("Invalid commit language, falling back to english", zap.String("language", lang))
		b.lang = LanguageEnglish
	}
	return b
}

// Language 返回生效的语言
func (b *Builder) Language() Language { return b.lang }

// Format 返回生效的格式
func (b *Builder) Format() Format { return b.format }

// TruncateDiff 超过最大长度时截断（按字符计），并追加截断标记。
func (b *Builder) TruncateDiff(diff string) string {
	if b.maxDiffLength <= 0 {
		return diff
	}
	runes := []rune(diff)
	if len(runes) <= b.maxDiffLength {
		return diff
	}
	b.logger.Debug("Truncating diff",
		zap.Int("length", len(runes)),
		zap.Int("max", b.maxDiffLength))
	return string(runes[:b.maxDiffLength]) + truncMarker
}

// BuildSystemPrompt 构建格式模板与语言指令部分。
func (b *Builder) BuildSystemPrompt() string {
	if b.custom != "" {
		return b.custom
	}
	return templates[b.format] + "\n\n" + languageLines[b.lang]
}

// BuildUserPrompt 构建包含 diff 与 blame 报告的数据部分。
func (b *Builder) BuildUserPrompt(diff, report string) string {
	return strings.Join([]string{
		diffHeading + "\n" + b.TruncateDiff(diff),
		blameHeading + "\n" + report,
		closingLine,
	}, "\n\n")
}

// Build 生成最终 Prompt。
func (b *Builder) Build(diff, report string) string {
	out := b.BuildSystemPrompt() + "\n\n" + b.BuildUserPrompt(diff, report)
	b.logger.Debug("Built prompt", zap.Int("estimated_tokens", EstimateTokens(out)))
	return out
}

// EstimateTokens 估算文本的 token 数量。
// 简化算法：平均每个 token 3 个字节。
func EstimateTokens(text string) int {
	return (len(text) + 2) / 3
}
