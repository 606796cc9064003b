package evaluator

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tablelandnetwork/sqlparser"

	"github.com/web3ekko/ekko-streams/internal/alerttypes"
	"github.com/web3ekko/ekko-streams/pkg/kv"
)

// ErrInvalidDatasource is returned when a datasource's SQL is not a single
// allow-listed SELECT statement.
var ErrInvalidDatasource = errors.New("datasource sql must be a single SELECT statement")

// DatasourceRunner resolves and executes a template's datasource catalog
// against the columnar store, joining results into the evaluation frame by
// target_key (I4's "{datasource_id}__{column}" column mapping).
type DatasourceRunner struct {
	db *sql.DB
	kv kv.Store
}

// NewDatasourceRunner builds a runner against the columnar store's DuckDB
// handle (shared with pkg/columnar's writer) and the KV datasource catalog.
func NewDatasourceRunner(db *sql.DB, store kv.Store) *DatasourceRunner {
	return &DatasourceRunner{db: db, kv: store}
}

// datasourceCatalogEntry is the shape stored at datasource_catalog:{id}.
type datasourceCatalogEntry struct {
	SQL string `json:"sql"`
}

// Run resolves ds's SQL (inline, or via its catalog_id), validates it's a
// single SELECT, executes it, and returns its result columns keyed by
// column name, left-joined onto targets by a target_key result column.
func (r *DatasourceRunner) Run(ctx context.Context, ds alerttypes.Datasource, targets []alerttypes.TargetKey) (map[string][]interface{}, error) {
	sqlText, err := r.resolveSQL(ctx, ds)
	if err != nil {
		return nil, err
	}
	if err := validateSelect(sqlText); err != nil {
		return nil, errors.Wrapf(err, "datasource %q", ds.ID)
	}

	rows, err := r.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, errors.Wrapf(err, "executing datasource %q", ds.ID)
	}
	defer rows.Close()

	cols, byTarget, err := scanByTargetKey(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "scanning datasource %q", ds.ID)
	}

	out := make(map[string][]interface{}, len(cols))
	for _, col := range cols {
		if col == "target_key" {
			continue
		}
		values := make([]interface{}, len(targets))
		for i, target := range targets {
			if row, ok := byTarget[string(target)]; ok {
				values[i] = row[col]
			}
		}
		out[col] = values
	}
	return out, nil
}

func (r *DatasourceRunner) resolveSQL(ctx context.Context, ds alerttypes.Datasource) (string, error) {
	if ds.SQL != "" {
		return ds.SQL, nil
	}
	if ds.CatalogID == "" {
		return "", errors.Wrapf(ErrInvalidDatasource, "datasource %q has neither sql nor catalog_id", ds.ID)
	}
	var entry datasourceCatalogEntry
	key := fmt.Sprintf("datasource_catalog:%s", ds.CatalogID)
	if err := kv.GetJSON(ctx, r.kv, key, &entry); err != nil {
		return "", errors.Wrapf(err, "resolving datasource catalog %q", ds.CatalogID)
	}
	return entry.SQL, nil
}

// validateSelect allow-lists the SQL as exactly one SELECT statement,
// matching internal/gateway/queryengine.go's validation pattern.
func validateSelect(sqlText string) error {
	ast, err := sqlparser.Parse(sqlText)
	if err != nil {
		return errors.Wrap(err, "parsing datasource sql")
	}
	if len(ast.Statements) != 1 {
		return ErrInvalidDatasource
	}
	if _, ok := ast.Statements[0].(*sqlparser.Select); !ok {
		return ErrInvalidDatasource
	}
	return nil
}

// scanByTargetKey generically scans rows into column maps keyed by the
// result set's target_key column, per queryengine.go's rowsToTableData
// pattern.
func scanByTargetKey(rows *sql.Rows) (columns []string, byTarget map[string]map[string]interface{}, err error) {
	columns, err = rows.Columns()
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading result columns")
	}

	byTarget = map[string]map[string]interface{}{}
	for rows.Next() {
		vals := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, errors.Wrap(err, "scanning result row")
		}

		row := make(map[string]interface{}, len(columns))
		var key string
		for i, col := range columns {
			row[col] = vals[i]
			if col == "target_key" {
				if s, ok := vals[i].(string); ok {
					key = s
				}
			}
		}
		if key == "" {
			continue
		}
		byTarget[key] = row
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "iterating result rows")
	}
	return columns, byTarget, nil
}
