package sqlparser

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableNames(refs []TableReference) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Table)
	}
	return names
}

func TestExtractPhysicalTables(t *testing.T) {
	t.Run("simple select", func(t *testing.T) {
		tables, err := ExtractPhysicalTables("SELECT * FROM users", "")
		require.NoError(t, err)
		require.Len(t, tables, 1)
		assert.Equal(t, "users", tables[0].Table)
	})

	t.Run("join keeps order", func(t *testing.T) {
		tables, err := ExtractPhysicalTables("SELECT u.id, o.order_id FROM users u JOIN orders o ON u.id = o.user_id", "postgres")
		require.NoError(t, err)
		assert.Equal(t, []string{"users", "orders"}, tableNames(tables))
	})

	t.Run("schema qualified", func(t *testing.T) {
		tables, err := ExtractPhysicalTables("SELECT * FROM public.users u JOIN sales.orders o ON u.id = o.user_id", "")
		require.NoError(t, err)
		require.Len(t, tables, 2)
		assert.Equal(t, TableReference{Schema: "public", Table: "users", FullName: "public.users"}, tables[0])
		assert.Equal(t, TableReference{Schema: "sales", Table: "orders", FullName: "sales.orders"}, tables[1])
	})

	t.Run("database qualified", func(t *testing.T) {
		tables, err := ExtractPhysicalTables("SELECT id FROM warehouse.public.users", "")
		require.NoError(t, err)
		require.Len(t, tables, 1)
		assert.Equal(t, "warehouse.public.users", tables[0].FullName)
	})

	t.Run("excludes CTEs", func(t *testing.T) {
		sql := `
			WITH user_stats AS (
				SELECT user_id, COUNT(*) as count FROM orders GROUP BY user_id
			)
			SELECT u.name, us.count
			FROM users u
			JOIN user_stats us ON u.id = us.user_id`
		tables, err := ExtractPhysicalTables(sql, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"orders", "users"}, tableNames(tables))
	})

	t.Run("multiple CTEs", func(t *testing.T) {
		sql := `
			WITH top5 AS (
				SELECT ptr.product_name, SUM(ptr.metric_producttotalrevenue) AS total_revenue
				FROM ont_ont.product_total_revenue AS ptr
				GROUP BY ptr.product_name
				ORDER BY total_revenue DESC
				LIMIT 5
			),
			quarterly_data AS (
				SELECT * FROM ont_ont.product_quarterly_sales
			)
			SELECT q.*, t.total_revenue
			FROM quarterly_data q
			JOIN top5 t ON q.product_name = t.product_name`
		tables, err := ExtractPhysicalTables(sql, "")
		require.NoError(t, err)
		require.Len(t, tables, 2)
		assert.Equal(t, "ont_ont.product_total_revenue", tables[0].FullName)
		assert.Equal(t, "ont_ont.product_quarterly_sales", tables[1].FullName)
	})

	t.Run("recursive CTE", func(t *testing.T) {
		sql := `
			WITH RECURSIVE org AS (
				SELECT id, manager_id FROM employees WHERE manager_id IS NULL
				UNION ALL
				SELECT e.id, e.manager_id FROM employees e JOIN org o ON e.manager_id = o.id
			)
			SELECT * FROM org`
		tables, err := ExtractPhysicalTables(sql, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"employees"}, tableNames(tables))
	})

	t.Run("subquery", func(t *testing.T) {
		sql := `SELECT * FROM users u WHERE u.id IN (SELECT user_id FROM orders WHERE total > 100)`
		tables, err := ExtractPhysicalTables(sql, "")
		require.NoError(t, err)
		names := tableNames(tables)
		sort.Strings(names)
		assert.Equal(t, []string{"orders", "users"}, names)
	})

	t.Run("union", func(t *testing.T) {
		sql := `SELECT id, name FROM employees UNION SELECT id, name FROM contractors`
		tables, err := ExtractPhysicalTables(sql, "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"employees", "contractors"}, tableNames(tables))
	})

	t.Run("deduplicates case-insensitively", func(t *testing.T) {
		sql := `SELECT * FROM users u1 JOIN USERS u2 ON u1.manager_id = u2.id`
		tables, err := ExtractPhysicalTables(sql, "")
		require.NoError(t, err)
		require.Len(t, tables, 1)
		assert.Equal(t, "users", tables[0].Table)
	})

	t.Run("CTE name drops qualified references too", func(t *testing.T) {
		sql := `
			WITH users AS (SELECT id FROM public.accounts)
			SELECT u.id FROM users u JOIN public.users p ON p.id = u.id`
		tables, err := ExtractPhysicalTables(sql, "")
		require.NoError(t, err)
		require.Len(t, tables, 1)
		assert.Equal(t, "public.accounts", tables[0].FullName)
	})

	t.Run("select without tables", func(t *testing.T) {
		tables, err := ExtractPhysicalTables("SELECT 1", "")
		require.NoError(t, err)
		assert.Empty(t, tables)
	})

	t.Run("mysql grammar", func(t *testing.T) {
		sql := "SELECT u.name FROM `shop`.`users` u LEFT JOIN orders o ON o.user_id = u.id"
		tables, err := ExtractPhysicalTables(sql, "mysql")
		require.NoError(t, err)
		require.Len(t, tables, 2)
		assert.Equal(t, "shop.users", tables[0].FullName)
		assert.Equal(t, "orders", tables[1].FullName)
	})

	t.Run("insert select", func(t *testing.T) {
		tables, err := ExtractPhysicalTables("INSERT INTO audit_log SELECT * FROM events", "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"audit_log", "events"}, tableNames(tables))
	})

	t.Run("parse error is tagged", func(t *testing.T) {
		_, err := ExtractPhysicalTables("SELECT * FROM", "snowflake")
		var pe *ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, DialectSnowflake, pe.Dialect)
	})
}
