// Package fixture generates the six raw department dumps used by demos and
// end-to-end tests.
//
// Each generated file reproduces the layout and the known defects of the
// corresponding live feed: the scheme the IMIS master reports "Completed"
// while the district body reports zero progress, the financially-active
// schemes with no physical work, the swapped MJP expenditure columns, the
// non-uniform state spellings, and the grievance tickets resolved before they
// were reported. Generation is fully deterministic for a given Config, so a
// pipeline run over the output produces a stable anomaly list.
package fixture

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Output filenames. The ingest classifier keys off these substrings, and they
// match what the departments actually publish.
const (
	FileIMISTap     = "raw_imis_tap_water_status.csv"
	FileIMISSchemes = "raw_imis_scheme_master.csv"
	FileZP          = "raw_zp_scheme_progress.csv"
	FileMJP         = "raw_mjp_financial_report.csv"
	FileGSDA        = "raw_gsda_water_quality.csv"
	FilePGRS        = "raw_pgrs_grievance.csv"
)

// ConflictSchemeID is the scheme present in both the IMIS master ("Completed")
// and the ZP progress report (0% physical). Every run over generated data
// yields exactly one Sync Conflict, for this id.
const ConflictSchemeID = "20118869"

// ConflictDistrict is the district of the seeded conflict scheme.
const ConflictDistrict = "Thane"

// Config controls the size and the seed of a generated dump set. Zero values
// select the defaults of the live demo data.
type Config struct {
	// Seed drives every random draw. Equal seeds produce byte-identical files.
	Seed int64

	// Districts is how many districts the scheme-level sources cover.
	// Defaults to 50 and is capped at the embedded district pool.
	Districts int

	// FinanceRows is the number of MJP transactions. Defaults to 30.
	FinanceRows int

	// GrievanceDistricts is how many districts file PGRS tickets.
	// Defaults to 20 and is capped at Districts.
	GrievanceDistricts int
}

// File is one generated dump, ready to serialize as CSV.
type File struct {
	Name   string
	Header []string
	Rows   [][]string
}

// districtPool mirrors the head of the national district listing the demo
// data was cut from: union territories first, then states alphabetically.
var districtPool = []string{
	"Nicobars", "North And Middle Andaman", "South Andamans",
	"Anantapur", "Chittoor", "East Godavari", "Guntur", "Krishna",
	"Kurnool", "Prakasam", "Spsr Nellore", "Srikakulam", "Visakhapatnam",
	"Vizianagaram", "West Godavari", "Y.S.R.",
	"Anjaw", "Changlang", "East Kameng", "East Siang", "Kamle",
	"Kra Daadi", "Kurung Kumey", "Leparada", "Lohit", "Longding",
	"Lower Dibang Valley", "Lower Siang", "Lower Subansiri", "Namsai",
	"Pakke Kessang", "Papum Pare", "Shi Yomi", "Siang", "Tawang",
	"Tirap", "Upper Siang", "Upper Subansiri", "West Kameng", "West Siang",
	"Baksa", "Barpeta", "Biswanath", "Bongaigaon", "Cachar",
	"Charaideo", "Chirang", "Darrang", "Dhemaji", "Dhubri",
}

// statePool is the state/UT listing of the national tap-water tracker. The
// first entry carries the tracker's own abbreviation for the islands, which
// is exactly the spelling drift the naming rules exist for.
var statePool = []string{
	"A & N Islands",
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh",
	"Dadra & Nagar Haveli and Daman & Diu", "Goa", "Gujarat", "Haryana",
	"Himachal Pradesh", "Jammu & Kashmir", "Jharkhand", "Karnataka",
	"Kerala", "Ladakh", "Lakshadweep", "Madhya Pradesh", "Maharashtra",
	"Manipur", "Meghalaya", "Mizoram", "Nagaland", "Odisha", "Puducherry",
	"Punjab", "Rajasthan", "Sikkim", "Tamil Nadu", "Telangana", "Tripura",
	"Uttar Pradesh", "Uttarakhand", "West Bengal",
}

// generator threads one seeded RNG through every draw so the whole dump set
// is a pure function of Config.
type generator struct {
	rng *rand.Rand
}

// Generate builds all six dumps in canonical source order.
func Generate(cfg Config) []File {
	districts := cfg.Districts
	if districts <= 0 || districts > len(districtPool) {
		districts = len(districtPool)
	}
	financeRows := cfg.FinanceRows
	if financeRows <= 0 {
		financeRows = 30
	}
	grievanceDistricts := cfg.GrievanceDistricts
	if grievanceDistricts <= 0 {
		grievanceDistricts = 20
	}
	if grievanceDistricts > districts {
		grievanceDistricts = districts
	}

	g := &generator{rng: rand.New(rand.NewSource(cfg.Seed))}
	common := districtPool[:districts]

	return []File{
		g.tapStatus(),
		g.schemeMaster(common),
		g.schemeProgress(common),
		g.financialReport(common, financeRows),
		g.waterQuality(common),
		g.grievances(common[:grievanceDistricts]),
	}
}

// WriteDir serializes the files into dir, creating it if needed.
func WriteDir(dir string, files []File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fixture: create dir: %w", err)
	}
	for _, f := range files {
		if err := writeCSV(filepath.Join(dir, f.Name), f); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, f File) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fixture: create %s: %w", f.Name, err)
	}
	w := csv.NewWriter(out)
	if err := w.Write(f.Header); err != nil {
		_ = out.Close()
		return fmt.Errorf("fixture: write %s: %w", f.Name, err)
	}
	for _, row := range f.Rows {
		if err := w.Write(row); err != nil {
			_ = out.Close()
			return fmt.Errorf("fixture: write %s: %w", f.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = out.Close()
		return fmt.Errorf("fixture: flush %s: %w", f.Name, err)
	}
	return out.Close()
}

// tapStatus is the state-level tracker export: one row per state/UT with
// household coverage figures and an ISO report date.
func (g *generator) tapStatus() File {
	rows := make([][]string, 0, len(statePool))
	for _, state := range statePool {
		total := int64(100_000 + g.rng.Intn(20_000_000))
		// Coverage between 30% and 100% of households.
		covered := total * int64(30+g.rng.Intn(71)) / 100
		rows = append(rows, []string{
			state,
			strconv.FormatInt(total, 10),
			strconv.FormatInt(covered, 10),
			g.randomDate("2006-01-02"),
		})
	}
	return File{
		Name:   FileIMISTap,
		Header: []string{"State Name", "Total_Households", "Tap_Connections", "Report_Date"},
		Rows:   rows,
	}
}

// schemeMaster is the IMIS central-truth export: one "Ongoing" scheme per
// district, plus the seeded scheme the master believes is finished.
func (g *generator) schemeMaster(districts []string) File {
	rows := make([][]string, 0, len(districts)+1)
	for _, dist := range districts {
		rows = append(rows, []string{
			g.schemeID(),
			dist,
			fmt.Sprintf("PWS %s Phase I", dist),
			"Ongoing",
			"",
		})
	}
	rows = append(rows, []string{
		ConflictSchemeID,
		ConflictDistrict,
		"Retrofitted PWS Thane",
		"Completed",
		"2025-01-15",
	})
	return File{
		Name:   FileIMISSchemes,
		Header: []string{"IMIS_ID", "District", "Scheme_Name", "Status", "Completion_Date"},
		Rows:   rows,
	}
}

// schemeProgress is the district body's export with UK-style dates. Every
// tenth row reports money spent against zero physical work, and the seeded
// conflict scheme shows up stalled at zero.
func (g *generator) schemeProgress(districts []string) File {
	rows := make([][]string, 0, len(districts)+1)
	for i, dist := range districts {
		phy := 10 + g.rng.Intn(91)
		fin := 10 + g.rng.Intn(91)
		if i%10 == 0 {
			phy = 0
			fin = 45
		}
		rows = append(rows, []string{
			g.schemeID(),
			dist,
			strconv.Itoa(phy),
			strconv.Itoa(fin),
			g.randomDate("02/01/2006"),
		})
	}
	rows = append(rows, []string{
		ConflictSchemeID,
		ConflictDistrict,
		"0",
		"0",
		"10/01/2025",
	})
	return File{
		Name:   FileZP,
		Header: []string{"Scheme_ID", "District", "Physical_Progress", "Financial_Progress", "Last_Updated"},
		Rows:   rows,
	}
}

// financialReport is the MJP transaction log with US-style dates. Rows 5 and
// 15 ship with the actuals and lakhs columns transposed.
func (g *generator) financialReport(districts []string, n int) File {
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		actuals := float64(100_000 + g.rng.Intn(4_900_001))
		lakhs := math.Round(actuals/100_000*100) / 100

		actualsCol := formatAmount(actuals)
		lakhsCol := formatAmount(lakhs)
		if i == 5 || i == 15 {
			actualsCol, lakhsCol = lakhsCol, actualsCol
		}

		rows = append(rows, []string{
			fmt.Sprintf("MJP-%d", 5000+g.rng.Intn(4001)),
			districts[g.rng.Intn(len(districts))],
			actualsCol,
			lakhsCol,
			g.randomDate("01-02-2006"),
		})
	}
	return File{
		Name:   FileMJP,
		Header: []string{"Scheme_Code", "District", "Expenditure_Actuals", "Expenditure_Lakhs", "Transaction_Date"},
		Rows:   rows,
	}
}

// waterQuality is the lab network's district-level export. The first district
// belongs to the islands and is labeled with the full state name, which the
// tracker abbreviates; the rest sit in Maharashtra.
func (g *generator) waterQuality(districts []string) File {
	rows := make([][]string, 0, len(districts))
	for i, dist := range districts {
		state := "Maharashtra"
		if i == 0 {
			state = "Andaman & Nicobar Islands"
		}
		rows = append(rows, []string{
			state,
			dist,
			strconv.Itoa(500 + g.rng.Intn(1501)),
			strconv.Itoa(g.rng.Intn(51)),
			g.randomDate("2006-01-02"),
		})
	}
	return File{
		Name:   FileGSDA,
		Header: []string{"State_Name", "District_Name", "Samples_Tested", "Contaminated_Samples", "Lab_Report_Date"},
		Rows:   rows,
	}
}

// grievances is the PGRS ticket export. Most tickets resolve five days after
// filing; roughly one in ten carries a resolution date before the filing
// date, the logical error the checks look for.
func (g *generator) grievances(districts []string) File {
	rows := make([][]string, 0, len(districts))
	for _, dist := range districts {
		reported := g.randomDay()
		resolved := reported.AddDate(0, 0, 5)
		if g.rng.Float64() < 0.1 {
			resolved = reported.AddDate(0, 0, -2)
		}
		rows = append(rows, []string{
			fmt.Sprintf("TKT-%d", 1000+g.rng.Intn(9000)),
			dist,
			"No Water",
			reported.Format("2006-01-02"),
			resolved.Format("2006-01-02"),
		})
	}
	return File{
		Name:   FilePGRS,
		Header: []string{"Ticket_ID", "District", "Issue", "Date_Reported", "Date_Resolved"},
		Rows:   rows,
	}
}

func (g *generator) schemeID() string {
	return fmt.Sprintf("SCH-%d", 10_000_000+g.rng.Intn(90_000_000))
}

// randomDay picks a day in the 2024 reporting year.
func (g *generator) randomDay() time.Time {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.AddDate(0, 0, g.rng.Intn(365))
}

func (g *generator) randomDate(layout string) string {
	return g.randomDay().Format(layout)
}

// formatAmount renders a currency figure the way the agency spreadsheets
// export them: plain decimal, no trailing zeros.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
