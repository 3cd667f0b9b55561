package ingest

import (
	"path/filepath"
	"strings"
)

// Classify maps a dump filename onto a logical source key. Department
// exports follow loose naming conventions (raw_imis_tap_water_status.csv,
// raw_zp_scheme_progress.csv, ...), so classification is by substring, case
// insensitive, with the two IMIS exports disambiguated first.
func Classify(filename string) (string, bool) {
	name := strings.ToLower(filepath.Base(filename))
	switch {
	case strings.Contains(name, "imis") && strings.Contains(name, "tap"):
		return "imis_tap", true
	case strings.Contains(name, "imis") && strings.Contains(name, "scheme"):
		return "imis_schemes", true
	case strings.Contains(name, "zp"):
		return "zp", true
	case strings.Contains(name, "mjp"):
		return "mjp", true
	case strings.Contains(name, "gsda"):
		return "gsda", true
	case strings.Contains(name, "pgrs"):
		return "pgrs", true
	}
	return "", false
}

// ClassifyPaths assigns each path to a logical source. Unclassifiable paths
// are returned separately so callers can surface them. When two files claim
// the same source the later one wins, matching how repeated uploads of the
// same export behave.
func ClassifyPaths(paths []string) (map[string]string, []string) {
	byKey := make(map[string]string)
	var unknown []string
	for _, p := range paths {
		key, ok := Classify(p)
		if !ok {
			unknown = append(unknown, p)
			continue
		}
		byKey[key] = p
	}
	return byKey, unknown
}
