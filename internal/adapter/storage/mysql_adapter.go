package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rl1809/vending-machine/internal/catalog"
	"github.com/rl1809/vending-machine/internal/core/domain"
)

// MySQLAdapter reads the catalog from a table shaped like:
//
//	CREATE TABLE catalog (
//	    selection VARCHAR(32) PRIMARY KEY,
//	    price     DECIMAL(10,2) NULL,
//	    quantity  INT NULL
//	);
//
// NULL columns are reported as missing fields rather than defaulted.
type MySQLAdapter struct {
	db    *sql.DB
	table string
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db, table: "catalog"}
}

func (m *MySQLAdapter) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT selection, price, quantity FROM `+m.table)
	if err != nil {
		return nil, fmt.Errorf("%w: query catalog: %v", catalog.ErrInvalidResource, err)
	}
	defer rows.Close()

	entries := make(map[string]catalog.Entry)
	for rows.Next() {
		var (
			selection string
			price     sql.NullString
			quantity  sql.NullInt64
		)
		if err := rows.Scan(&selection, &price, &quantity); err != nil {
			return nil, fmt.Errorf("%w: scan catalog row: %v", catalog.ErrConversionFailure, err)
		}

		var e catalog.Entry
		if price.Valid {
			p, err := decimal.NewFromString(price.String)
			if err != nil {
				return nil, fmt.Errorf("%w: %q price %q: %v", catalog.ErrConversionFailure, selection, price.String, err)
			}
			e.Price = &p
		}
		if quantity.Valid {
			q := int(quantity.Int64)
			e.Quantity = &q
		}
		entries[selection] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate catalog: %v", catalog.ErrInvalidResource, err)
	}

	return catalog.Build(entries)
}
