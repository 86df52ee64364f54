package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// TempManager hands out scratch file paths for processing steps and
// cleans them up afterwards. The scratch directory is shared by all
// jobs; names are random, so jobs never collide.
type TempManager struct {
	mu   sync.Mutex
	root string
	made bool
}

func NewTempManager(root string) *TempManager {
	if strings.TrimSpace(root) == "" {
		root = filepath.Join(os.TempDir(), "subtitle-worker")
	}
	return &TempManager{root: root}
}

// Allocate reserves a unique path inside the scratch directory. The
// directory is created on first use. The extension may be given with
// or without the leading dot.
func (m *TempManager) Allocate(extension string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.made {
		if err := os.MkdirAll(m.root, 0o755); err != nil {
			return "", fmt.Errorf("create scratch dir: %w", err)
		}
		m.made = true
	}

	extension = strings.TrimPrefix(strings.TrimSpace(extension), ".")
	name := uuid.New().String()
	if extension != "" {
		name = name + "." + extension
	}
	return filepath.Join(m.root, name), nil
}

// Release removes one allocated path. It is idempotent: a path that
// was never written, or already removed, is a no-op. Paths outside the
// scratch directory are refused.
func (m *TempManager) Release(path string) error {
	if !m.owns(path) {
		return fmt.Errorf("release %s: outside scratch dir", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReleaseAll removes every path in the slice, continuing past
// individual failures. Used in deferred job cleanup.
func (m *TempManager) ReleaseAll(paths []string) {
	for _, p := range paths {
		_ = m.Release(p)
	}
}

func (m *TempManager) owns(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	root, err := filepath.Abs(m.root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
