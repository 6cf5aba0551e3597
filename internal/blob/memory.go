package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Memory keeps objects in process memory.
type Memory struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]object
}

type object struct {
	data        []byte
	contentType string
	generation  int64
}

// NewMemory constructs a Memory store whose URLs start with baseURL.
func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]object)}
}

// Upload implements the blob contract.
func (m *Memory) Upload(_ context.Context, path string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.objects[path]
	m.objects[path] = object{data: data, contentType: contentType, generation: prev.generation + 1}
	return nil
}

// DownloadURL implements the blob contract.
func (m *Memory) DownloadURL(_ context.Context, path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	if !ok {
		return "", ErrNotFound
	}
	return fmt.Sprintf("%s/%s?v=%d", m.baseURL, path, obj.generation), nil
}

// Object returns the stored bytes and content type of path.
func (m *Memory) Object(path string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), obj.data...), obj.contentType, true
}

// ServeHTTP serves stored objects by path, so URLs from DownloadURL resolve
// when baseURL points at the mount.
func (m *Memory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, contentType, ok := m.Object(strings.TrimPrefix(r.URL.Path, "/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}
