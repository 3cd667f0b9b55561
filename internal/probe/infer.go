package probe

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	csvparser "github.com/shiv0924/jjm-platform/internal/parser/csv"
)

// readSample parses the sample best-effort: variable field counts are
// tolerated, malformed lines are skipped, and rows whose width differs from
// the header are dropped so they cannot skew type inference.
func readSample(data []byte, delim rune) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var headers []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil, nil, nil
		}
		if err != nil || len(rec) == 0 {
			continue
		}
		headers = csvparser.StripHeaderBOM(rec)
		break
	}

	const maxRows = 5000
	rows := make([][]string, 0, 64)
	want := len(headers)
	for len(rows) < maxRows {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(rec) != want {
			continue
		}
		rows = append(rows, rec)
	}
	return headers, rows, nil
}

// inferTypes returns one contract type per header based on the sampled rows.
func inferTypes(headers []string, rows [][]string) []string {
	n := len(headers)
	cols := make([][]string, n)
	for _, row := range rows {
		for i := 0; i < n && i < len(row); i++ {
			cols[i] = append(cols[i], row[i])
		}
	}
	types := make([]string, n)
	for i := 0; i < n; i++ {
		types[i] = inferTypeForColumn(cols[i])
	}
	return types
}

// inferTypeForColumn guesses a contract type among int, real, date, and
// text. Every non-empty value must satisfy the narrower type, so a single
// "N/A" in a numeric column correctly demotes it to text; that is exactly
// the kind of column the pipeline's cleaning stage has to own.
func inferTypeForColumn(values []string) string {
	nonEmpty := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}
	if len(nonEmpty) == 0 {
		return "text"
	}

	allInt, allFloat, allDate := true, true, true
	for _, v := range nonEmpty {
		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allFloat = false
			}
		}
		if allDate && !parsesAsDate(v) {
			allDate = false
		}
		if !allInt && !allFloat && !allDate {
			break
		}
	}

	switch {
	case allInt:
		return "int"
	case allFloat:
		return "real"
	case allDate:
		return "date"
	default:
		return "text"
	}
}

func parsesAsDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// dateLayouts are the formats seen across department exports. The three at
// the top are the ones the six live sources actually use.
var dateLayouts = []string{
	"2006-01-02", // ISO: IMIS, GSDA, PGRS
	"02/01/2006", // DMY slash: ZP district offices
	"01-02-2006", // MDY dash: MJP financial system
	"2006/01/02",
	"02-Jan-2006",
	"20060102",
}

// dateLayoutPreference breaks ties between layouts that match the same
// sample, e.g. "05/01/2024" under both slash layouts. Departmental sources
// are DMY unless proven otherwise, then ISO, then MDY.
func dateLayoutPreference(layout string) int {
	switch layout {
	case "02/01/2006", "02-Jan-2006":
		return 3
	case "2006-01-02", "2006/01/02", "20060102":
		return 2
	case "01-02-2006":
		return 1
	default:
		return 0
	}
}

// detectColumnLayouts returns a layout per column inferred as date, chosen
// by scoring: the layout parsing the most samples wins, ties broken by
// dateLayoutPreference, then declaration order.
func detectColumnLayouts(rows [][]string, inferred []string) []string {
	n := len(inferred)
	out := make([]string, n)
	if len(rows) == 0 {
		return out
	}

	cols := make([][]string, n)
	for _, r := range rows {
		for c := 0; c < n && c < len(r); c++ {
			if v := strings.TrimSpace(r[c]); v != "" {
				cols[c] = append(cols[c], v)
			}
		}
	}

	for col := 0; col < n; col++ {
		if inferred[col] == "date" {
			out[col] = selectBestLayout(cols[col])
		}
	}
	return out
}

func selectBestLayout(samples []string) string {
	if len(samples) == 0 {
		return ""
	}
	scores := make([]int, len(dateLayouts))
	for _, s := range samples {
		for i, lay := range dateLayouts {
			if _, err := time.Parse(lay, s); err == nil {
				scores[i]++
			}
		}
	}

	bestIdx, bestScore, bestPref := -1, 0, -1
	for i, lay := range dateLayouts {
		sc := scores[i]
		if sc == 0 || sc < bestScore {
			continue
		}
		p := dateLayoutPreference(lay)
		if sc > bestScore || p > bestPref {
			bestIdx, bestScore, bestPref = i, sc, p
		}
	}
	if bestIdx < 0 {
		return ""
	}
	return dateLayouts[bestIdx]
}

// allNonEmptySample reports whether every sampled row has a value at colIdx.
func allNonEmptySample(rows [][]string, colIdx int) bool {
	if len(rows) == 0 {
		return false
	}
	for _, r := range rows {
		if colIdx >= len(r) || strings.TrimSpace(r[colIdx]) == "" {
			return false
		}
	}
	return true
}

// NormalizeFieldName converts arbitrary header text into a lowercase ASCII
// identifier safe for contracts and SQL schemas:
//  1. lowercase
//  2. strip accents (NFD, drop nonspacing marks, NFC)
//  3. keep [a-z0-9_]; map space, dash, and dot to underscore; drop the rest
//  4. fall back to "col" when nothing survives
func NormalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}
