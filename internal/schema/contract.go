// Package schema describes the tabular shape of each agency source: field
// names, coarse types, per-field date layouts, and the header renames that
// align divergent source vocabularies onto the common one.
package schema

// Field describes a single column in a source contract.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // "text" | "int" | "real" | "date"
	Required bool   `json:"required,omitempty"`
	Layout   string `json:"layout,omitempty"` // date layout, per-source
}

// Contract describes one source table. HeaderMap maps raw CSV headers to
// canonical field names (e.g. "IMIS_ID" -> "Scheme_ID"); headers not listed
// pass through lowercase normalization in the parser.
type Contract struct {
	Name      string            `json:"name"`
	Fields    []Field           `json:"fields"`
	HeaderMap map[string]string `json:"header_map,omitempty"`
}

// Field returns the contract field with the given canonical name.
func (c Contract) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Required returns the names of the contract's required fields.
func (c Contract) Required() []string {
	var req []string
	for _, f := range c.Fields {
		if f.Required {
			req = append(req, f.Name)
		}
	}
	return req
}

// Columns returns the canonical field names in contract order.
func (c Contract) Columns() []string {
	cols := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		cols[i] = f.Name
	}
	return cols
}
