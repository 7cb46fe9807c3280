package types

// Result is the display-oriented query result contract: column order is the
// schema order (or projection order), every value is already rendered as
// text with NULL as the empty string and dates as calendar-date strings.
type Result struct {
	Columns []string
	Rows    []map[string]string
}

const (
	ActionInserted = "inserted"
	ActionUpdated  = "updated"
)

type UpsertOutcome struct {
	Action  string
	Message string
}

type KPIReport struct {
	InstallBaseTotal int64
	Customers        int64
}
