// Package ints provides tolerant integer extraction for count-like columns.
// Agency exports decorate numbers with grouping commas, plain and non-breaking
// spaces, and occasional stray text; callers prefer "fail soft on malformed
// numbers" over aborting a row.
package ints

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseCount parses s as a non-negative count, tolerating grouping commas and
// any Unicode spaces (including NBSP). An empty value reads as 0, true. A
// value with no usable digits reads as 0, false.
func ParseCount(s string) (int64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ',' {
			return -1
		}
		return r
	}, s)

	if cleaned == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err == nil {
		return n, true
	}

	// Fall back to the first contiguous digit run (e.g. "1234 samples").
	runs, _ := ExtractInts(cleaned)
	if len(runs) > 0 {
		return int64(runs[0]), true
	}
	return 0, false
}

// ExtractInts scans s and returns all contiguous digit sequences as integers.
//
// It treats any run of Unicode digits as a number, converts it via
// strconv.Atoi, and appends it to the result slice. Non-digit characters
// separate numbers.
//
// On conversion error (e.g., out-of-range), it returns nil, nil to signal
// that the caller may want to drop the line entirely.
func ExtractInts(s string) ([]int, error) {
	var out []int
	var current []rune

	for _, r := range s {
		if unicode.IsDigit(r) {
			current = append(current, r)
		} else {
			if len(current) > 0 {
				n, err := parseRun(current)
				if err != nil {
					return nil, nil
				}
				out = append(out, n)
				current = nil
			}
		}
	}

	if len(current) > 0 {
		n, err := parseRun(current)
		if err != nil {
			return nil, nil
		}
		out = append(out, n)
	}

	return out, nil
}

func parseRun(run []rune) (int, error) {
	return strconv.Atoi(string(run))
}
