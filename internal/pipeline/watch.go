package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/gitsage/internal/errors"
	"github.com/penwyp/gitsage/internal/logger"
	"go.uber.org/zap"
)

// DefaultWatchDebounce git 操作通常连续写多次 index，等待其稳定
const DefaultWatchDebounce = 300 * time.Millisecond

// watchedNames 是 .git 目录下触发重新分析的文件
var watchedNames = map[string]bool{
	"index": true,
	"HEAD":  true,
}

// WatchRepository 监听 gitDir 中的 index 与 HEAD，变化稳定后调用 onChange。
// 阻塞直到 ctx 结束；ctx 结束时返回 nil。onChange 不会并发执行。
func WatchRepository(ctx context.Context, gitDir string, debounce time.Duration, l *zap.Logger, onChange func()) error {
	log := logger.OrNop(l)
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrTypeRepository, "failed to create repository watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(gitDir); err != nil {
		return errors.Wrap(errors.ErrTypeRepository, "failed to watch git directory", err)
	}
	log.Debug("Watching repository", zap.String("git_dir", gitDir))

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	// 定时器只负责发信号，onChange 在本 goroutine 中串行执行
	fire := make(chan struct{}, 1)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-fire:
			onChange()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watchedNames[filepath.Base(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			log.Debug("Repository event", zap.String("op", event.Op.String()), zap.String("path", event.Name))

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Repository watcher error", zap.Error(err))
		}
	}
}
