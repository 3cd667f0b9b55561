package schema

import "github.com/shiv0924/jjm-platform/internal/domain"

// Built-in contracts for the six logical sources. Config may override a
// source's HeaderMap when an agency ships a renamed export, but the field
// set and layouts are fixed properties of each feed.
var sourceContracts = map[string]Contract{
	domain.SourceIMISTap: {
		Name: domain.SourceIMISTap,
		Fields: []Field{
			{Name: "State_Name", Type: "text", Required: true},
			{Name: "Total_Households", Type: "int"},
			{Name: "Tap_Connections", Type: "int"},
			{Name: "Report_Date", Type: "date", Layout: domain.LayoutISO},
		},
		// The tracker exports human-facing headers with spaces.
		HeaderMap: map[string]string{
			"State Name":       "State_Name",
			"Total_Households": "Total_Households",
			"Tap_Connections":  "Tap_Connections",
			"Report_Date":      "Report_Date",
		},
	},

	domain.SourceIMISSchemes: {
		Name: domain.SourceIMISSchemes,
		Fields: []Field{
			{Name: "Scheme_ID", Type: "text", Required: true},
			{Name: "District", Type: "text"},
			{Name: "Scheme_Name", Type: "text"},
			{Name: "Status", Type: "text"},
			{Name: "Completion_Date", Type: "date", Layout: domain.LayoutISO},
		},
		HeaderMap: map[string]string{
			"IMIS_ID":         "Scheme_ID",
			"District":        "District",
			"Scheme_Name":     "Scheme_Name",
			"Status":          "Status",
			"Completion_Date": "Completion_Date",
		},
	},

	domain.SourceZP: {
		Name: domain.SourceZP,
		Fields: []Field{
			{Name: "Scheme_ID", Type: "text", Required: true},
			{Name: "District", Type: "text"},
			{Name: "Physical_Progress", Type: "real"},
			{Name: "Financial_Progress", Type: "real"},
			{Name: "Last_Updated", Type: "date", Layout: domain.LayoutUK},
		},
		HeaderMap: map[string]string{
			"Scheme_ID":          "Scheme_ID",
			"District":           "District",
			"Physical_Progress":  "Physical_Progress",
			"Financial_Progress": "Financial_Progress",
			"Last_Updated":       "Last_Updated",
		},
	},

	domain.SourceMJP: {
		Name: domain.SourceMJP,
		Fields: []Field{
			{Name: "Scheme_ID", Type: "text", Required: true},
			{Name: "District", Type: "text"},
			// Expenditure figures stay text: the financial corrector owns
			// their parsing (missing and malformed differ in outcome).
			{Name: "Expenditure_Actuals", Type: "text"},
			{Name: "Expenditure_Lakhs", Type: "text"},
			{Name: "Transaction_Date", Type: "date", Layout: domain.LayoutUS},
		},
		HeaderMap: map[string]string{
			"Scheme_Code":         "Scheme_ID",
			"District":            "District",
			"Expenditure_Actuals": "Expenditure_Actuals",
			"Expenditure_Lakhs":   "Expenditure_Lakhs",
			"Transaction_Date":    "Transaction_Date",
		},
	},

	domain.SourceGSDA: {
		Name: domain.SourceGSDA,
		Fields: []Field{
			{Name: "State_Name", Type: "text"},
			{Name: "District_Name", Type: "text", Required: true},
			{Name: "Samples_Tested", Type: "int"},
			{Name: "Contaminated_Samples", Type: "int"},
			{Name: "Lab_Report_Date", Type: "date", Layout: domain.LayoutISO},
		},
		HeaderMap: map[string]string{
			"State_Name":           "State_Name",
			"District_Name":        "District_Name",
			"Samples_Tested":       "Samples_Tested",
			"Contaminated_Samples": "Contaminated_Samples",
			"Lab_Report_Date":      "Lab_Report_Date",
		},
	},

	domain.SourcePGRS: {
		Name: domain.SourcePGRS,
		Fields: []Field{
			{Name: "Ticket_ID", Type: "text", Required: true},
			{Name: "District", Type: "text"},
			{Name: "Issue", Type: "text"},
			{Name: "Date_Reported", Type: "date", Layout: domain.LayoutISO},
			{Name: "Date_Resolved", Type: "date", Layout: domain.LayoutISO},
		},
		HeaderMap: map[string]string{
			"Ticket_ID":     "Ticket_ID",
			"District":      "District",
			"Issue":         "Issue",
			"Date_Reported": "Date_Reported",
			"Date_Resolved": "Date_Resolved",
		},
	},
}

// ForSource returns the built-in contract for a logical source key.
func ForSource(key string) (Contract, bool) {
	c, ok := sourceContracts[key]
	return c, ok
}

// MergeHeaderMap returns a copy of the contract with extra header renames
// layered on top of the built-in ones. Extra entries win on collision.
func (c Contract) MergeHeaderMap(extra map[string]string) Contract {
	if len(extra) == 0 {
		return c
	}
	merged := make(map[string]string, len(c.HeaderMap)+len(extra))
	for k, v := range c.HeaderMap {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	out := c
	out.HeaderMap = merged
	return out
}
