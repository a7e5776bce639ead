package auth

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/wemcdonald/sqlaccess/pkg/permissions"
)

// DefaultDatasetTable is the table SQLStore keeps grants in.
const DefaultDatasetTable = "permissioned_datasets"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLStore implements DatasetStore over a database/sql table of
// (user_id, dataset_name, yml_content) rows. The sqlite3 and pgx drivers
// are supported.
type SQLStore struct {
	db     *sql.DB
	driver string
	table  string
}

// OpenSQLStore opens a store on driver and dsn. An empty table selects
// DefaultDatasetTable.
func OpenSQLStore(driver, dsn, table string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %v store", driver)
	}
	store, err := NewSQLStore(db, driver, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB, driver, table string) (*SQLStore, error) {
	switch driver {
	case "sqlite3", "pgx":
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	if table == "" {
		table = DefaultDatasetTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid store table name %q", table)
	}
	return &SQLStore{db: db, driver: driver, table: table}, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// placeholder returns the n-th (1-based) bind marker for the driver.
func (s *SQLStore) placeholder(n int) string {
	if s.driver == "pgx" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) bind(query string, n int) string {
	args := make([]any, n)
	for i := range args {
		args[i] = s.placeholder(i + 1)
	}
	return fmt.Sprintf(query, args...)
}

// Migrate creates the grants table when it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			user_id TEXT NOT NULL,
			dataset_name TEXT NOT NULL,
			yml_content TEXT NOT NULL,
			PRIMARY KEY (user_id, dataset_name)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to migrate %v", s.table)
		}
	}
	return nil
}

// Grant stores a dataset for a user, replacing one with the same name.
func (s *SQLStore) Grant(ctx context.Context, userID string, dataset permissions.Dataset) error {
	if strings.TrimSpace(dataset.Name) == "" {
		return fmt.Errorf("dataset name is required")
	}
	query := s.bind(`INSERT INTO `+s.table+` (user_id, dataset_name, yml_content) VALUES (%s, %s, %s)
		ON CONFLICT (user_id, dataset_name) DO UPDATE SET yml_content = excluded.yml_content`, 3)
	if _, err := s.db.ExecContext(ctx, query, userID, dataset.Name, dataset.YMLContent); err != nil {
		return errors.Wrapf(err, "failed to grant %v to %v", dataset.Name, userID)
	}
	return nil
}

// Revoke removes a named dataset from a user. It reports whether a grant
// existed.
func (s *SQLStore) Revoke(ctx context.Context, userID, datasetName string) (bool, error) {
	query := s.bind(`DELETE FROM `+s.table+` WHERE user_id = %s AND dataset_name = %s`, 2)
	result, err := s.db.ExecContext(ctx, query, userID, datasetName)
	if err != nil {
		return false, errors.Wrapf(err, "failed to revoke %v from %v", datasetName, userID)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read revoke result")
	}
	return n > 0, nil
}

// FetchPermissionedDatasets implements DatasetStore. Datasets are ordered
// by name so pages are stable.
func (s *SQLStore) FetchPermissionedDatasets(ctx context.Context, userID string, page, pageSize int) (*permissions.DatasetPage, error) {
	if page < 0 || pageSize <= 0 {
		return nil, fmt.Errorf("invalid page %d with size %d", page, pageSize)
	}

	result := &permissions.DatasetPage{
		Datasets: []permissions.Dataset{},
		Page:     page,
		PageSize: pageSize,
	}
	countQuery := s.bind(`SELECT COUNT(*) FROM `+s.table+` WHERE user_id = %s`, 1)
	if err := s.db.QueryRowContext(ctx, countQuery, userID).Scan(&result.Total); err != nil {
		return nil, errors.Wrapf(err, "failed to count datasets for %v", userID)
	}

	query := s.bind(`SELECT dataset_name, yml_content FROM `+s.table+`
		WHERE user_id = %s ORDER BY dataset_name LIMIT %s OFFSET %s`, 3)
	rows, err := s.db.QueryContext(ctx, query, userID, pageSize, page*pageSize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch datasets for %v", userID)
	}
	defer rows.Close()

	for rows.Next() {
		var d permissions.Dataset
		if err := rows.Scan(&d.Name, &d.YMLContent); err != nil {
			return nil, errors.Wrap(err, "failed to scan dataset")
		}
		result.Datasets = append(result.Datasets, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read datasets")
	}
	return result, nil
}
