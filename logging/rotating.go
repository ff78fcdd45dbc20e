package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	filePrefix         = "diagnostic-"
	defaultRetention   = 4
	defaultMaxFileSize = 100 * 1024 * 1024
	cleanupInterval    = 24 * time.Hour
)

var numberedFile = regexp.MustCompile(`^diagnostic-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger is an io.Writer that starts a new file every ISO week, or
// sooner when the current file reaches maxFileSize. Files older than the
// retention window are removed once a day.
type RotatingLogger struct {
	dir         string
	retention   time.Duration
	maxFileSize int64

	mu   sync.Mutex
	file *os.File
	week string
	size int64
	now  func() time.Time

	stop chan struct{}
	done chan struct{}
}

// NewRotatingLogger creates the directory, opens the file for the current week
// and starts the cleanup loop.
func NewRotatingLogger(dir string, retentionWeeks int, maxFileSize int64) (*RotatingLogger, error) {
	if retentionWeeks <= 0 {
		retentionWeeks = defaultRetention
	}
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	rl := &RotatingLogger{
		dir:         dir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		now:         time.Now,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	rl.mu.Lock()
	err := rl.openLocked(weekKey(rl.now()), false)
	rl.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go rl.cleanupLoop()
	return rl, nil
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write implements io.Writer.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := weekKey(rl.now())
	switch {
	case rl.file == nil || week != rl.week:
		if err := rl.openLocked(week, false); err != nil {
			return 0, err
		}
	case rl.size+int64(len(p)) > rl.maxFileSize:
		if err := rl.openLocked(week, true); err != nil {
			return 0, err
		}
	}

	n, err := rl.file.Write(p)
	rl.size += int64(n)
	return n, err
}

// openLocked switches to the file for week. When full is set the base file
// (or the last numbered one) is skipped and the next number is used.
func (rl *RotatingLogger) openLocked(week string, full bool) error {
	if rl.file != nil {
		_ = rl.file.Close()
		rl.file = nil
	}

	name := rl.pickFile(week, full)
	path := filepath.Join(rl.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	rl.file = f
	rl.week = week
	rl.size = size
	return nil
}

func (rl *RotatingLogger) pickFile(week string, full bool) string {
	base := filePrefix + week + ".log"
	highest, last := rl.highestNumbered(week)

	if highest == 0 {
		if !full {
			if info, err := os.Stat(filepath.Join(rl.dir, base)); err != nil || info.Size() < rl.maxFileSize {
				return base
			}
		}
		return fmt.Sprintf("%s%s_%02d.log", filePrefix, week, 1)
	}

	if !full {
		if info, err := os.Stat(filepath.Join(rl.dir, last)); err == nil && info.Size() < rl.maxFileSize {
			return last
		}
	}
	return fmt.Sprintf("%s%s_%02d.log", filePrefix, week, highest+1)
}

func (rl *RotatingLogger) highestNumbered(week string) (int, string) {
	matches, _ := filepath.Glob(filepath.Join(rl.dir, filePrefix+week+"_??.log"))
	sort.Strings(matches)

	highest, last := 0, ""
	for _, m := range matches {
		sub := numberedFile.FindStringSubmatch(filepath.Base(m))
		if len(sub) < 2 {
			continue
		}
		if n, _ := strconv.Atoi(sub[1]); n > highest {
			highest, last = n, filepath.Base(m)
		}
	}
	return highest, last
}

func (rl *RotatingLogger) cleanupLoop() {
	defer close(rl.done)
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			if _, err := rl.cleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
			}
		}
	}
}

// cleanup removes log files whose modification time is past retention.
// The file currently being written is never removed.
func (rl *RotatingLogger) cleanup() (int, error) {
	entries, err := os.ReadDir(rl.dir)
	if err != nil {
		return 0, fmt.Errorf("read log directory: %w", err)
	}

	rl.mu.Lock()
	current := ""
	if rl.file != nil {
		current = filepath.Base(rl.file.Name())
	}
	rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.retention)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == current || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(rl.dir, name)) == nil {
			removed++
		}
	}
	return removed, nil
}

// Close stops the cleanup loop and closes the current file.
func (rl *RotatingLogger) Close() error {
	select {
	case <-rl.stop:
	default:
		close(rl.stop)
	}

	select {
	case <-rl.done:
	case <-time.After(time.Second):
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file == nil {
		return nil
	}
	err := rl.file.Close()
	rl.file = nil
	return err
}
