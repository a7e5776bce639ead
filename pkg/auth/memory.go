package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wemcdonald/sqlaccess/pkg/permissions"
)

// MemoryStore implements DatasetStore over an in-process map. It is used
// for tests and for permission directories loaded from disk.
type MemoryStore struct {
	datasets map[string][]permissions.Dataset // userID -> datasets
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		datasets: make(map[string][]permissions.Dataset),
	}
}

// AddDataset grants a permission document to a user
func (m *MemoryStore) AddDataset(userID string, dataset permissions.Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[userID] = append(m.datasets[userID], dataset)
}

// RemoveUser drops every dataset granted to a user
func (m *MemoryStore) RemoveUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.datasets, userID)
}

// Users returns the users holding at least one dataset, sorted.
func (m *MemoryStore) Users() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]string, 0, len(m.datasets))
	for u := range m.datasets {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// FetchPermissionedDatasets implements DatasetStore.
func (m *MemoryStore) FetchPermissionedDatasets(ctx context.Context, userID string, page, pageSize int) (*permissions.DatasetPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 0 || pageSize <= 0 {
		return nil, fmt.Errorf("invalid page %d with size %d", page, pageSize)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.datasets[userID]
	result := &permissions.DatasetPage{
		Datasets: []permissions.Dataset{},
		Total:    len(all),
		Page:     page,
		PageSize: pageSize,
	}
	start := page * pageSize
	if start >= len(all) {
		return result, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	result.Datasets = append(result.Datasets, all[start:end]...)
	return result, nil
}

// LoadDir loads permission documents laid out as <dir>/<userID>/<name>.yml.
// Each subdirectory name is a user id.
func (m *MemoryStore) LoadDir(dir string) error {
	users, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read permissions dir: %w", err)
	}
	for _, user := range users {
		if !user.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, user.Name()))
		if err != nil {
			return fmt.Errorf("read permissions for %s: %w", user.Name(), err)
		}
		for _, f := range files {
			ext := filepath.Ext(f.Name())
			if f.IsDir() || (ext != ".yml" && ext != ".yaml") {
				continue
			}
			content, err := os.ReadFile(filepath.Join(dir, user.Name(), f.Name()))
			if err != nil {
				return fmt.Errorf("read dataset %s: %w", f.Name(), err)
			}
			m.AddDataset(user.Name(), permissions.Dataset{
				Name:       strings.TrimSuffix(f.Name(), ext),
				YMLContent: string(content),
			})
		}
	}
	return nil
}
