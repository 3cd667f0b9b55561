// Package ddl renders CREATE TABLE statements for the fixed reconciled
// output tables across the supported SQL dialects. The table set is static,
// so there is no type inference here: each dialect maps the three logical
// column types and its own identifier quoting, and every statement is
// idempotent (IF NOT EXISTS, or an existence guard where the dialect has
// none).
package ddl

import (
	"fmt"
	"strings"
)

// Dialect selects identifier quoting and type spelling for one SQL engine.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
	MSSQL
	MySQL
)

// String returns the storage kind name the factory registers under.
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	case MSSQL:
		return "mssql"
	case MySQL:
		return "mysql"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// QuoteIdent quotes a single identifier for the dialect.
func (d Dialect) QuoteIdent(name string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case MSSQL:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// QuoteQualified quotes a possibly schema-qualified name, so a table prefix
// like "public." renders as "public"."table_schemes" rather than one quoted
// identifier.
func (d Dialect) QuoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}

// TypeName spells a logical column type in the dialect. Key columns get a
// bounded string type where the engine cannot index unbounded text.
func (d Dialect) TypeName(t ColType, key bool) string {
	switch d {
	case Postgres:
		switch t {
		case TypeReal:
			return "DOUBLE PRECISION"
		case TypeInteger:
			return "BIGINT"
		default:
			return "TEXT"
		}
	case SQLite:
		switch t {
		case TypeReal:
			return "REAL"
		case TypeInteger:
			return "INTEGER"
		default:
			return "TEXT"
		}
	case MSSQL:
		switch t {
		case TypeReal:
			return "DECIMAL(38, 10)"
		case TypeInteger:
			return "BIGINT"
		default:
			if key {
				return "NVARCHAR(255)"
			}
			return "NVARCHAR(MAX)"
		}
	case MySQL:
		switch t {
		case TypeReal:
			return "DOUBLE"
		case TypeInteger:
			return "BIGINT"
		default:
			if key {
				return "VARCHAR(255)"
			}
			return "TEXT"
		}
	}
	return "TEXT"
}

// BuildCreateTableSQL renders an idempotent CREATE TABLE statement for the
// given definition in the given dialect.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: table %s has no columns", name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("ddl: table %s has a column with an empty name", name)
		}
		def := d.QuoteIdent(c.Name) + " " + d.TypeName(c.Type, c.PrimaryKey)
		if c.PrimaryKey {
			def += " NOT NULL"
			pks = append(pks, d.QuoteIdent(c.Name))
		}
		cols = append(cols, def)
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	body := fmt.Sprintf("(\n  %s\n)", strings.Join(cols, ",\n  "))

	// SQL Server has no IF NOT EXISTS on CREATE TABLE; guard on OBJECT_ID.
	if d == MSSQL {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s %s;",
			strings.ReplaceAll(name, "'", "''"), d.QuoteQualified(name), body,
		), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s;", d.QuoteQualified(name), body), nil
}
