package blame

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers 默认并发分析的文件数
const DefaultWorkers = 4

// FileResult 单个文件的分析结果，Err 非空时 Summary 无意义。
type FileResult struct {
	File    string
	Summary string
	Err     error
}

// Report 按输入文件顺序排列的批量结果。
type Report struct {
	Results []FileResult
}

// String 以空行连接各文件摘要，跳过失败的文件与 "No changes detected."。
func (r *Report) String() string {
	if r == nil {
		return ""
	}
	var parts []string
	for _, res := range r.Results {
		if res.Err != nil || res.Summary == NoChangesMessage {
			continue
		}
		parts = append(parts, res.Summary)
	}
	return strings.Join(parts, "\n\n")
}

// Failures 合并所有单文件错误，没有失败时返回 nil。
func (r *Report) Failures() error {
	if r == nil {
		return nil
	}
	var err error
	for _, res := range r.Results {
		if res.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", res.File, res.Err))
		}
	}
	return err
}

// AnalyzeAll 以最多 workers 个并发分析 files。
// 单文件失败记录在对应的 FileResult 中，不影响其他文件；
// 只有 ctx 被取消时才返回错误。
func (a *Analyzer) AnalyzeAll(ctx context.Context, files []string, workers int) (*Report, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	report := &Report{Results: make([]FileResult, len(files))}
	if len(files) == 0 {
		return report, nil
	}

	status, statusErr := a.git.Status(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := FileResult{File: file}
			if statusErr != nil {
				res.Err = statusErr
			} else {
				res.Summary, res.Err = a.analyze(gctx, file, status)
			}
			if res.Err != nil {
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				a.logger.Warn("Skipping file in blame report", zap.String("file", file), zap.Error(res.Err))
			}
			report.Results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}
