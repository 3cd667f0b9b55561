package ddl

// ColType is the logical column type of an output table. The reconciled
// tables only carry text, floating-point and integer columns, so the model
// stays this small on purpose.
type ColType int

const (
	TypeText ColType = iota
	TypeReal
	TypeInteger
)

// ColumnDef describes one column of a table definition. Name is the logical
// column name, unquoted; quoting and type spelling happen at render time per
// dialect.
type ColumnDef struct {
	Name       string
	Type       ColType
	PrimaryKey bool
}

// TableDef holds a table name and its ordered column list.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// ColumnNames returns the column names in definition order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// KeyColumns returns the primary-key column names in definition order.
func (t TableDef) KeyColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			out = append(out, c.Name)
		}
	}
	return out
}
