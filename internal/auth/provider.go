package auth

import (
	"context"
	"sync/atomic"

	"github.com/wemcdonald/sqlaccess/pkg/permissions"
)

// MockStore implements auth.DatasetStore for testing
type MockStore struct {
	FetchFunc func(ctx context.Context, userID string, page, pageSize int) (*permissions.DatasetPage, error)

	calls atomic.Int64
}

// StaticDatasets returns a MockStore serving the given documents to any user
// on a single page.
func StaticDatasets(ymlContents ...string) *MockStore {
	datasets := make([]permissions.Dataset, 0, len(ymlContents))
	for _, content := range ymlContents {
		datasets = append(datasets, permissions.Dataset{YMLContent: content})
	}
	return &MockStore{
		FetchFunc: func(_ context.Context, _ string, page, pageSize int) (*permissions.DatasetPage, error) {
			result := &permissions.DatasetPage{Total: len(datasets), Page: page, PageSize: pageSize}
			if page == 0 {
				result.Datasets = datasets
			}
			return result, nil
		},
	}
}

func (m *MockStore) FetchPermissionedDatasets(ctx context.Context, userID string, page, pageSize int) (*permissions.DatasetPage, error) {
	m.calls.Add(1)
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, userID, page, pageSize)
	}
	return &permissions.DatasetPage{Page: page, PageSize: pageSize}, nil
}

// Calls reports how many pages have been requested.
func (m *MockStore) Calls() int {
	return int(m.calls.Load())
}
