package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/peatrisk/internal/types"

	_ "modernc.org/sqlite" // SQLite driver
)

// GeoPackageLoader reads one feature table from a GeoPackage (.gpkg) file.
type GeoPackageLoader struct {
	// Table selects the feature table; empty means the first table listed in
	// gpkg_geometry_columns.
	Table string
}

type geometryColumn struct {
	table  string
	column string
	srsID  int
}

// Load reads every row of the feature table. The geometry column is decoded
// from GeoPackage binary; all other columns become properties, except the
// integer primary key which becomes the feature ID.
func (l *GeoPackageLoader) Load(ctx context.Context, path string) (*types.FeatureSet, error) {
	// Open in read-only mode with immutable flag
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Verify schema exists
	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='gpkg_geometry_columns'").Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("database does not contain gpkg_geometry_columns table")
	}

	gc, err := l.geometryColumn(ctx, db)
	if err != nil {
		return nil, err
	}

	pk, err := primaryKey(ctx, db, gc.table)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(gc.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	fs := &types.FeatureSet{SRID: gc.srsID}
	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}

		f := types.Feature{Properties: make(map[string]interface{}, len(cols))}
		for i, col := range cols {
			switch {
			case strings.EqualFold(col, gc.column):
				blob, ok := values[i].([]byte)
				if !ok || len(blob) == 0 {
					continue
				}
				g, err := decodeGPKG(blob)
				if err != nil {
					return nil, fmt.Errorf("failed to decode geometry of row %d: %w", len(fs.Features)+1, err)
				}
				if f.Geometry, err = toOrb(g); err != nil {
					return nil, fmt.Errorf("row %d: %w", len(fs.Features)+1, err)
				}
			case pk != "" && strings.EqualFold(col, pk):
				f.ID = fmt.Sprint(values[i])
			default:
				f.Properties[col] = columnValue(values[i])
			}
		}
		fs.Features = append(fs.Features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating features: %w", err)
	}

	return fs, nil
}

func (l *GeoPackageLoader) geometryColumn(ctx context.Context, db *sql.DB) (geometryColumn, error) {
	query := "SELECT table_name, column_name, srs_id FROM gpkg_geometry_columns"
	var args []interface{}
	if l.Table != "" {
		query += " WHERE table_name = ?"
		args = append(args, l.Table)
	}
	query += " ORDER BY table_name LIMIT 1"

	var gc geometryColumn
	err := db.QueryRowContext(ctx, query, args...).Scan(&gc.table, &gc.column, &gc.srsID)
	if err == sql.ErrNoRows {
		if l.Table != "" {
			return geometryColumn{}, fmt.Errorf("feature table %q not found", l.Table)
		}
		return geometryColumn{}, fmt.Errorf("geopackage contains no feature tables")
	}
	if err != nil {
		return geometryColumn{}, fmt.Errorf("failed to query geometry columns: %w", err)
	}
	return gc, nil
}

// primaryKey returns the name of the table's primary key column, or "".
func primaryKey(ctx context.Context, db *sql.DB, table string) (string, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return "", fmt.Errorf("failed to read table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    interface{}
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return "", fmt.Errorf("failed to scan table info: %w", err)
		}
		if pk == 1 {
			return name, nil
		}
	}
	return "", rows.Err()
}

func columnValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
