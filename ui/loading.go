package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/penwyp/gitsage/internal/pipeline"
)

// RunFunc 执行一次完整分析，progress 报告阶段变化。
type RunFunc func(ctx context.Context, progress func(pipeline.Stage)) (*pipeline.Result, error)

// LoadingModel 在分析执行期间展示 Spinner 与当前阶段。
// 完成后通过 tea.Quit 退出，将结果或 err 写回自身字段。
type LoadingModel struct {
	stage   pipeline.Stage
	spinner spinner.Model
	styles  UIStyles

	ctx    context.Context
	cancel context.CancelFunc
	run    RunFunc
	stages chan pipeline.Stage

	result *pipeline.Result
	err    error
}

// NewLoadingModel 创建 LoadingModel，run 在 Init 返回的 Cmd 中执行。
func NewLoadingModel(ctx context.Context, run RunFunc) *LoadingModel {
	ctx, cancel := context.WithCancel(ctx)
	sp := spinner.New()
	sp.Spinner = spinner.Line
	return &LoadingModel{
		stage:   pipeline.StageLocate,
		spinner: sp,
		styles:  DefaultStyles(),
		ctx:     ctx,
		cancel:  cancel,
		run:     run,
		stages:  make(chan pipeline.Stage, 8),
	}
}

// Init 启动分析并开始监听阶段变化
func (m *LoadingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runCmd(), waitForStage(m.stages))
}

// Update 处理消息
func (m *LoadingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.err = context.Canceled
			return m, tea.Quit
		}
	case stageMsg:
		if m.stage != pipeline.StageDone {
			m.stage = msg.stage
		}
		return m, waitForStage(m.stages)
	case doneMsg:
		m.stage = pipeline.StageDone
		m.result = msg.result
		return m, tea.Quit
	case errorMsg:
		m.stage = pipeline.StageDone
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View 根据阶段显示文字，完成后清空
func (m *LoadingModel) View() string {
	var (
		status string
		color  lipgloss.Color
	)
	switch m.stage {
	case pipeline.StageLocate:
		status, color = "Locating repository…", m.styles.Colors.Orange
	case pipeline.StageCollect:
		status, color = "Collecting changes…", m.styles.Colors.Blue
	case pipeline.StageAttribute:
		status, color = "Attributing changed lines…", m.styles.Colors.Green
	default:
		return ""
	}
	return m.spinner.View() + " " + lipgloss.NewStyle().Foreground(color).Render(status)
}

// Stage 返回当前阶段
func (m *LoadingModel) Stage() pipeline.Stage {
	return m.stage
}

// Result 返回结果
func (m *LoadingModel) Result() (*pipeline.Result, error) {
	return m.result, m.err
}

// ---------------- tea.Msg 定义 ----------------

type stageMsg struct{ stage pipeline.Stage }

type doneMsg struct{ result *pipeline.Result }

type errorMsg struct{ err error }

// ---------------- Cmd 实现 --------------------

func (m *LoadingModel) runCmd() tea.Cmd {
	return func() tea.Msg {
		defer close(m.stages)
		res, err := m.run(m.ctx, func(s pipeline.Stage) {
			select {
			case m.stages <- s:
			default:
			}
		})
		if err != nil {
			return errorMsg{err}
		}
		return doneMsg{result: res}
	}
}

// waitForStage 读取下一个阶段；通道关闭时返回 nil，不再继续监听。
func waitForStage(stages <-chan pipeline.Stage) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-stages
		if !ok {
			return nil
		}
		return stageMsg{stage: s}
	}
}
