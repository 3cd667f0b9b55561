// Package csv implements a tolerant CSV parser for agency data dumps. Real
// exports arrive with UTF-8 BOMs, stray quotes, ragged rows, and headers that
// differ per agency; rows that cannot be parsed are skipped and counted, not
// fatal.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Row holds one parsed record keyed by canonical header name. Cells are raw
// strings; downstream decoding owns type coercion.
type Row map[string]string

// Options configures the CSV parser behavior. All fields are optional;
// sensible defaults are applied when a field is zero.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// ExpectedFields, when > 0, enforces a fixed field count per record.
	// Rows with a different width are skipped (soft-fail) and counted.
	ExpectedFields int

	// HeaderMap maps source header names to canonical keys. Only applies
	// when HasHeader is true. Unmapped headers fall back to lowercase with
	// spaces replaced by underscores.
	HeaderMap map[string]string

	// LazyQuotes tolerates unescaped quotes inside fields.
	LazyQuotes bool

	// OnSkip, when set, receives the 1-based data line number and error for
	// every skipped row.
	OnSkip func(line int, err error)
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\ufeff"

// Parse consumes CSV records from r and returns the parsed rows along with
// the number of rows that were skipped due to parse errors or field-count
// mismatches.
func (p *Parser) Parse(r io.Reader) ([]Row, int, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.TrimLeadingSpace = true
	if p.opt.LazyQuotes {
		cr.LazyQuotes = true
	}
	// Width is enforced after read so ragged rows soft-fail instead of
	// aborting the whole file.
	cr.FieldsPerRecord = -1

	var headers []string
	var out []Row
	var skipped int

	skip := func(line int, err error) {
		skipped++
		if p.opt.OnSkip != nil {
			p.opt.OnSkip(line, err)
		}
	}

	if p.opt.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, 0, fmt.Errorf("read csv header: %w", err)
		}
		headers = normalizeHeaders(h, p.opt)
	} else if p.opt.ExpectedFields > 0 {
		headers = make([]string, p.opt.ExpectedFields)
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
	}

	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skip(line, err)
			continue
		}

		if len(headers) > 0 && len(row) != len(headers) {
			skip(line, fmt.Errorf("incorrect number of fields (expected %d, got %d)", len(headers), len(row)))
			continue
		}

		rec := make(Row, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[keyFor(i, headers)] = val
		}
		out = append(out, rec)
	}

	return out, skipped, nil
}

// keyFor returns the column key for index idx, using headers when available,
// otherwise synthesizing a "col_N" name.
func keyFor(idx int, headers []string) string {
	if idx < len(headers) && headers[idx] != "" {
		return headers[idx]
	}
	return fmt.Sprintf("col_%d", idx)
}

// normalizeHeaders produces canonical header keys using HeaderMap (when
// provided) and simple normalization (lowercase, spaces to underscores). It
// also strips a UTF-8 BOM from the first cell if present.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if opt.HeaderMap != nil {
			if m, ok := opt.HeaderMap[c]; ok {
				res[i] = m
				continue
			}
		}
		res[i] = strings.ReplaceAll(strings.ToLower(c), " ", "_")
	}
	return res
}
