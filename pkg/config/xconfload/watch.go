package xconfload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// OnChange 配置变更回调。err 表示这次重载是否成功。
type OnChange func(src *Source, err error)

// Watcher 监视配置文件变更并自动重载。
type Watcher struct {
	src      *Source
	fsw      *fsnotify.Watcher
	onChange OnChange
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	running bool
	timer   *time.Timer
}

// WatchOption 监视器可选配置。
type WatchOption func(*Watcher)

// WithDebounce 设置防抖窗口，窗口内的多次变更只触发一次重载。
// 默认 100ms。
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watch 创建配置文件监视器。
// 监视的是文件所在目录而非文件本身：编辑器保存时可能先删再建，
// 直接监视文件会丢失后续事件。
// 返回的 Watcher 需调用 StartAsync 开始监视，Stop 停止。
func Watch(src *Source, onChange OnChange, opts ...WatchOption) (*Watcher, error) {
	if src == nil || src.fromBytes || src.path == "" {
		return nil, ErrWatchUnsupported
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconfload: create watcher: %w", err)
	}

	dir := filepath.Dir(src.path)
	if err := fsw.Add(dir); err != nil {
		closeErr := fsw.Close()
		return nil, errors.Join(
			fmt.Errorf("xconfload: watch directory %s: %w", dir, err),
			closeErr,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		src:      src,
		fsw:      fsw,
		onChange: onChange,
		debounce: 100 * time.Millisecond,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// StartAsync 在后台 goroutine 中启动监视循环，立即返回。
// 重复调用只启动一次。
func (w *Watcher) StartAsync() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run()
}

// Stop 停止监视。保证返回后不再有回调执行中的重载被投递。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	w.cancel()
	w.running = false
	return w.fsw.Close()
}

func (w *Watcher) run() {
	filename := filepath.Base(w.src.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.onChange != nil {
				w.onChange(w.src, fmt.Errorf("xconfload: watch error: %w", err))
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	if filepath.Base(event.Name) != filename {
		return
	}
	// Write: 直接修改；Create: 部分编辑器新建；Rename: vim/emacs 原子写入
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		err := w.src.Reload()
		if w.onChange != nil {
			w.onChange(w.src, err)
		}
	})
}
