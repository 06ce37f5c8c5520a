package sessionlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	// DirName is the subdirectory of the app directory holding run logs.
	DirName = "session-logs"
	// MaxFiles is the number of run logs kept after pruning.
	MaxFiles = 50

	filePrefix = "session-"
	fileSuffix = ".jsonl"
)

var (
	nowFn    = time.Now
	getpidFn = os.Getpid
)

// File appends captured entries to a per-run JSONL file. All methods are
// safe for concurrent use, and a nil *File ignores writes.
type File struct {
	mu   sync.Mutex
	f    *os.File
	path string
	seq  uint64
}

type fileRecord struct {
	Seq uint64 `json:"seq"`
	Entry
}

// Open creates a new run log in dir and prunes old ones past MaxFiles.
func Open(dir string) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("session log directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session log directory: %w", err)
	}

	// pid suffix keeps sub-second restarts from sharing a file.
	name := fmt.Sprintf("%s%s-%d%s", filePrefix, nowFn().Format("20060102-150405"), getpidFn(), fileSuffix)
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}

	prune(dir, name, MaxFiles)
	return &File{f: f, path: path}, nil
}

// Path returns the file location, or "" for a nil File.
func (l *File) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Write appends one entry. It is shaped as an EntryCallback. Failures go to
// stderr since slog would route them back here.
func (l *File) Write(entry Entry) {
	if l == nil {
		return
	}

	var syncFile *os.File
	var writeErr error

	l.mu.Lock()
	if l.f == nil {
		l.mu.Unlock()
		return
	}
	l.seq++
	raw, err := json.Marshal(fileRecord{Seq: l.seq, Entry: entry})
	if err != nil {
		writeErr = fmt.Errorf("marshal: %w", err)
	} else if _, err := l.f.Write(append(raw, '\n')); err != nil {
		writeErr = fmt.Errorf("write: %w", err)
	} else if entry.Level == slog.LevelError.String() {
		syncFile = l.f
	}
	l.mu.Unlock()

	if syncFile != nil {
		if err := syncFile.Sync(); err != nil && !isCloseRace(err) {
			fmt.Fprintf(os.Stderr, "[session-log] failed to sync log file: %v\n", err)
		}
	}
	if writeErr != nil {
		fmt.Fprintf(os.Stderr, "[session-log] failed to record entry: %v\n", writeErr)
	}
}

// Close flushes and closes the file. Later writes are dropped.
func (l *File) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	return errors.Join(f.Sync(), f.Close())
}

// Sync after Close is benign during shutdown.
func isCloseRace(err error) bool {
	return errors.Is(err, os.ErrClosed) ||
		(runtime.GOOS == "windows" && errors.Is(err, syscall.EINVAL))
}

// prune removes the oldest run logs so at most keep remain. The active file
// is never removed.
func prune(dir, active string, keep int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("[session-log] failed to read log directory for cleanup", "dir", dir, "error", err)
		return
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			names = append(names, name)
		}
	}
	// Names start with a sortable timestamp.
	sort.Strings(names)

	excess := len(names) - keep
	for _, name := range names {
		if excess <= 0 {
			break
		}
		if name == active {
			continue
		}
		target := filepath.Join(dir, name)
		if err := os.Remove(target); err != nil {
			slog.Warn("[session-log] failed to delete old log file", "path", target, "error", err)
			continue
		}
		slog.Debug("[session-log] deleted old log file", "path", target)
		excess--
	}
}
