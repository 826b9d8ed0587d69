package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/loykin/sqlmigrate/internal/common"
	"github.com/loykin/sqlmigrate/internal/constants"
	"github.com/loykin/sqlmigrate/internal/script"
	"github.com/loykin/sqlmigrate/internal/store"
	"github.com/loykin/sqlmigrate/internal/util"
)

// Watermark reports the highest integer identifier already applied and
// whether every applied identifier is an integer.
type Watermark interface {
	MaxNumericID(ctx context.Context, q store.DBTX) (int64, bool, error)
}

// CatalogSource reads scripts stored as rows in the target database:
//
//	id, description, script, script_order, min_version, max_version, created_at, is_active
//
// With a Watermark only rows whose id is above the highest applied id are read.
// The filter compares id with an integer parameter, so the id column must be an
// integer type. It is dropped when the ledger holds a non-integer identifier
// and the ledger alone then decides what is pending.
type CatalogSource struct {
	DB        store.DBTX
	Dialect   store.Dialect
	Table     string
	Watermark Watermark
}

// NewCatalogSource returns a catalog source over table, or the default catalog table.
func NewCatalogSource(db store.DBTX, dialect store.Dialect, table string) (*CatalogSource, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		table = constants.DefaultCatalogTable
	}
	if !util.SafeIdentifier(table) {
		return nil, fmt.Errorf("%w: invalid catalog table name %q", ErrInvalidConfig, table)
	}
	if db == nil || dialect == nil {
		return nil, fmt.Errorf("%w: catalog source requires a database", ErrInvalidConfig)
	}
	return &CatalogSource{DB: db, Dialect: dialect, Table: table}, nil
}

func (c *CatalogSource) ListScripts(ctx context.Context) ([]script.Script, error) {
	return c.ListScriptsOn(ctx, c.DB)
}

func (c *CatalogSource) ListScriptsOn(ctx context.Context, q store.DBTX) ([]script.Script, error) {
	query := fmt.Sprintf("SELECT id, description, script, script_order, min_version, max_version, created_at, is_active FROM %s", c.Table)
	var args []any
	if c.Watermark != nil {
		mark, allNumeric, err := c.Watermark.MaxNumericID(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("catalog watermark: %w", err)
		}
		if allNumeric {
			query += " WHERE id > " + c.Dialect.Placeholder(1)
			args = append(args, mark)
		} else {
			common.GetLogger().WithComponent("source").Debug("ledger holds non-integer ids, reading whole catalog", "table", c.Table)
		}
	}
	query += " ORDER BY script_order, id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog %s: %w", c.Table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []script.Script
	for rows.Next() {
		var (
			s                   script.Script
			desc, order, lo, hi sql.NullString
			body                string
			createdAt, active   interface{}
		)
		if err := rows.Scan(&s.ID, &desc, &body, &order, &lo, &hi, &createdAt, &active); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		s.Description = desc.String
		s.Order = order.String
		s.MinVersion = lo.String
		s.MaxVersion = hi.String
		s.Body = []string{body}
		s.CreatedAt = c.Dialect.ConvertTimeFromStorage(createdAt)
		if active != nil {
			s.Active = script.Bool(c.Dialect.ConvertBoolFromStorage(active))
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog rows: %w", err)
	}
	common.GetLogger().WithComponent("source").Debug("listed catalog", "table", c.Table, "count", len(out))
	return out, nil
}
