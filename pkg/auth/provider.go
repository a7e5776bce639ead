package auth

import (
	"context"
	"fmt"

	"github.com/wemcdonald/sqlaccess/pkg/permissions"
)

// DefaultPageSize is the page size FetchAll uses when none is given.
const DefaultPageSize = 1000

// DatasetStore serves the permission documents granted to a user.
type DatasetStore interface {
	// FetchPermissionedDatasets returns one page of a user's datasets.
	// Pages are numbered from zero.
	FetchPermissionedDatasets(ctx context.Context, userID string, page, pageSize int) (*permissions.DatasetPage, error)
}

// FetchAll reads every page of a user's datasets. It stops once Total
// datasets have been read or a page comes back empty.
func FetchAll(ctx context.Context, store DatasetStore, userID string, pageSize int) ([]permissions.Dataset, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var datasets []permissions.Dataset
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := store.FetchPermissionedDatasets(ctx, userID, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch datasets page %d: %w", page, err)
		}
		if result == nil || len(result.Datasets) == 0 {
			return datasets, nil
		}
		datasets = append(datasets, result.Datasets...)
		if len(datasets) >= result.Total {
			return datasets, nil
		}
	}
}
