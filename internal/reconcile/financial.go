package reconcile

import (
	"strconv"
	"strings"

	"github.com/shiv0924/jjm-platform/internal/domain"
)

// Corrector repairs the known column-swap defect in the financial report:
// operators occasionally key the raw currency figure into the lakhs column
// and vice versa. The heuristic is tuned to the expected orders of magnitude
// (raw currency well above the threshold, lakhs-denominated well below), so
// the threshold is a named, overridable policy rather than a hidden constant.
type Corrector struct {
	// SwapThreshold separates the two magnitude regimes. A lakhs value above
	// it combined with an actuals value below it is read as a swap.
	SwapThreshold float64
}

// Correct returns the (actuals, lakhs) pair with a detected swap undone, or
// the pair unchanged. Idempotent: a corrected pair never looks swapped again.
func (c Corrector) Correct(actuals, lakhs float64) (float64, float64) {
	if lakhs > c.SwapThreshold && actuals < c.SwapThreshold {
		return lakhs, actuals
	}
	return actuals, lakhs
}

// CleanedFinance is one financial-report row after correction. Stated carries
// the actuals figure exactly as the agency reported it; Cleaned is the figure
// after swap repair. StatedValid is false when the reported actuals field was
// absent or non-numeric, in which case no mismatch can be diagnosed.
type CleanedFinance struct {
	SchemeID    string
	District    string
	Stated      float64
	StatedValid bool
	Cleaned     float64
	Swapped     bool
}

// CleanRow parses and corrects one financial-report row. A missing figure
// reads as zero; a malformed one zeroes both figures, because a row with
// garbage in either money column cannot be trusted in whole.
func (c Corrector) CleanRow(row domain.FinanceRow) CleanedFinance {
	out := CleanedFinance{SchemeID: row.SchemeID, District: row.District}

	actuals, actualsOK := parseAmount(row.ExpenditureActuals)
	lakhs, lakhsOK := parseAmount(row.ExpenditureLakhs)
	out.Stated, out.StatedValid = actuals, actualsOK && strings.TrimSpace(row.ExpenditureActuals) != ""

	if !actualsOK || !lakhsOK {
		return out
	}
	cleaned, _ := c.Correct(actuals, lakhs)
	out.Cleaned = cleaned
	out.Swapped = cleaned != actuals
	return out
}

// CleanFinance corrects every financial-report row, preserving input order.
func CleanFinance(rows []domain.FinanceRow, c Corrector) []CleanedFinance {
	out := make([]CleanedFinance, len(rows))
	for i, r := range rows {
		out[i] = c.CleanRow(r)
	}
	return out
}

// parseAmount reads a money field. Empty is a legitimate absence and reads as
// zero; non-empty text that fails to parse reports ok=false.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
