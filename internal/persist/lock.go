package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	lockRetry      = 10 * time.Millisecond
	lockStaleAfter = 10 * time.Second
)

// LockFile is an advisory lock shared by processes that agree on path.
// It is held while the file exists. A lock file older than the stale
// limit is left over from a holder that died and gets broken.
type LockFile struct {
	path       string
	retry      time.Duration
	staleAfter time.Duration
}

func NewLockFile(path string) *LockFile {
	return &LockFile{path: path, retry: lockRetry, staleAfter: lockStaleAfter}
}

// Lock blocks until the lock is acquired or ctx is done.
func (l *LockFile) Lock(ctx context.Context) (func(), error) {
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
			_ = f.Close()
			var once sync.Once
			return func() {
				once.Do(func() { _ = os.Remove(l.path) })
			}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("acquire lock %s: %w", l.path, err)
		}

		if info, statErr := os.Stat(l.path); statErr == nil {
			if age := time.Since(info.ModTime()); age > l.staleAfter {
				slog.WarnContext(ctx, "Breaking stale lock", "path", l.path, "age", age.String())
				_ = os.Remove(l.path)
				continue
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", l.path, ctx.Err())
		case <-time.After(l.retry):
		}
	}
}
