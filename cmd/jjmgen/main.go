// Command jjmgen writes a seeded set of department dumps for local runs and
// demos. The generated files carry the portals' real quirks: an IMIS state
// label outside the canonical list, swapped financial columns in the MJP
// report, ghost rows with money moving against zero physical progress, and
// one scheme closed as Completed in the master while the district board
// still shows nothing built.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shiv0924/jjm-platform/internal/fixture"
)

var (
	flagOut        = flag.String("out", "./dumps", "Directory to write the generated CSV dumps into")
	flagSeed       = flag.Int64("seed", 42, "Deterministic seed; the same seed always produces the same dumps")
	flagDistricts  = flag.Int("districts", 50, "Number of districts across the district-keyed sources")
	flagFinance    = flag.Int("finance-rows", 30, "Number of MJP financial report rows")
	flagGrievances = flag.Int("grievances", 20, "Number of districts with a PGRS grievance ticket")
)

func main() {
	flag.Parse()

	files := fixture.Generate(fixture.Config{
		Seed:               *flagSeed,
		Districts:          *flagDistricts,
		FinanceRows:        *flagFinance,
		GrievanceDistricts: *flagGrievances,
	})
	if err := fixture.WriteDir(*flagOut, files); err != nil {
		fmt.Fprintf(os.Stderr, "jjmgen: %v\n", err)
		os.Exit(1)
	}

	for _, f := range files {
		fmt.Printf("generated %s (%d rows)\n", f.Name, len(f.Rows))
	}
	fmt.Printf("wrote %d dumps to %s (seed %d)\n", len(files), *flagOut, *flagSeed)
}
