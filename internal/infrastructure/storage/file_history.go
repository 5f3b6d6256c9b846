package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// FileHistory keeps delivered links in a newline-delimited text file.
type FileHistory struct {
	path string
	mu   sync.Mutex
}

var _ ports.HistoryStore = (*FileHistory)(nil)

// NewFileHistory binds the store to path. The file is created on first append.
func NewFileHistory(path string) *FileHistory {
	return &FileHistory{path: path}
}

// Path returns the backing file location.
func (h *FileHistory) Path() string {
	return h.path
}

// Load returns every recorded link. A missing file is an empty history.
func (h *FileHistory) Load(_ context.Context) (domain.LinkSet, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewLinkSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", h.path, err)
	}
	defer f.Close()

	links := domain.NewLinkSet()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		links.Add(strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read history %s: %w", h.path, err)
	}
	return links, nil
}

// Append writes links in a single write and syncs the file.
func (h *FileHistory) Append(_ context.Context, links []string) error {
	var b strings.Builder
	for _, link := range links {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		b.WriteString(link)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if dir := filepath.Dir(h.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	f, err := os.OpenFile(h.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history %s: %w", h.path, err)
	}

	payload := b.String()
	if missingTrailingNewline(f) {
		payload = "\n" + payload
	}

	if _, err := f.WriteString(payload); err != nil {
		_ = f.Close()
		return fmt.Errorf("append history: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync history: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	return nil
}

func missingTrailingNewline(f *os.File) bool {
	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		return false
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	return last[0] != '\n'
}
