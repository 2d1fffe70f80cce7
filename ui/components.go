package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/penwyp/gitsage/internal/pipeline"
)

// UIColors 定义统一的颜色主题
type UIColors struct {
	Gray   lipgloss.Color
	Blue   lipgloss.Color
	Green  lipgloss.Color
	Yellow lipgloss.Color
	Red    lipgloss.Color
	White  lipgloss.Color
	Orange lipgloss.Color
}

// DefaultColors 返回默认的颜色主题
func DefaultColors() UIColors {
	return UIColors{
		Gray:   lipgloss.Color("245"),
		Blue:   lipgloss.Color("39"),
		Green:  lipgloss.Color("42"),
		Yellow: lipgloss.Color("220"),
		Red:    lipgloss.Color("196"),
		White:  lipgloss.Color("255"),
		Orange: lipgloss.Color("208"),
	}
}

// UIStyles 定义统一的样式
type UIStyles struct {
	Colors  UIColors
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// DefaultStyles 返回默认的样式集
func DefaultStyles() UIStyles {
	colors := DefaultColors()
	return UIStyles{
		Colors:  colors,
		Title:   lipgloss.NewStyle().Foreground(colors.White).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(colors.Gray),
		Success: lipgloss.NewStyle().Foreground(colors.Green),
		Warning: lipgloss.NewStyle().Foreground(colors.Yellow),
		Error:   lipgloss.NewStyle().Foreground(colors.Red),
	}
}

// RenderSummary 渲染一行运行摘要，例如：
//
//	✓ /home/dev/project · staged only · 3 files · 1 skipped
//
// maxWidth <= 0 表示不限制宽度。
func RenderSummary(res *pipeline.Result, skipped int, maxWidth int) string {
	if res == nil {
		return ""
	}
	styles := DefaultStyles()

	scope := "all changes"
	if res.OnlyStaged {
		scope = "staged only"
	}

	parts := []string{
		styles.Title.Render(res.Repo.Root),
		styles.Muted.Render(scope),
		styles.Muted.Render(pluralize(len(res.Files), "file")),
	}
	if skipped > 0 {
		parts = append(parts, styles.Warning.Render(fmt.Sprintf("%d skipped", skipped)))
	}

	line := styles.Success.Render("✓") + " " + strings.Join(parts, styles.Muted.Render(" · "))
	if maxWidth > 0 {
		line = truncateContent(line, maxWidth)
	}
	return line
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// truncateContent 按显示宽度截断内容
func truncateContent(content string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(content) <= maxWidth {
		return content
	}
	return lipgloss.NewStyle().MaxWidth(maxWidth).Render(content)
}
