package fieldmeta

// LogicalField is a business-level field that may map to different physical
// column names across deployments. Aliases are tried first, in order, by
// NormKey equality; Tokens drive the fuzzy fallback (a column matches when
// its NormKey contains every token).
type LogicalField struct {
	FieldKey string
	Aliases  []string
	Tokens   []string
	Date     bool
}

var installBaseFields = []LogicalField{
	{FieldKey: "id", Aliases: []string{"Id", "ID"}, Tokens: []string{"id"}},
	{FieldKey: "serial_no", Aliases: []string{"Serial No.", "Serial No", "Serial_No", "SERIAL NO", "SerialNo"}, Tokens: []string{"serial"}},
	{FieldKey: "customer_name", Aliases: []string{"CUSTOMER_NAME", "CUSTOMER NAME", "CustomerName", "Customer Name"}, Tokens: []string{"customer", "name"}},
	{FieldKey: "zone", Aliases: []string{"ZONE", "Zone"}, Tokens: []string{"zone"}},
	{FieldKey: "service_engr", Aliases: []string{"SERVICE_ENGR", "SERVICE ENGR", "SERVICE_ENGINEER", "SERVICE ENGINEER"}, Tokens: []string{"service", "engr"}},
	{FieldKey: "sales_engr", Aliases: []string{"SALES_ENGR", "SALES ENGR", "SALES_ENGINEER", "SALES ENGINEER"}, Tokens: []string{"sales", "engr"}},
	{FieldKey: "cluster_no", Aliases: []string{"Cluster_No", "CLUSTER NO", "Cluster No"}, Tokens: []string{"cluster"}},
	{FieldKey: "location", Aliases: []string{"LOCATION", "Location"}, Tokens: []string{"location"}},
	{FieldKey: "state", Aliases: []string{"STATE", "State"}, Tokens: []string{"state"}},
	{FieldKey: "address", Aliases: []string{"Address", "ADDRESS"}, Tokens: []string{"address"}},
	{FieldKey: "machine_type", Aliases: []string{"Machine_Type", "MACHINE TYPE", "Machine Type"}, Tokens: []string{"machine", "type"}},
	{FieldKey: "model", Aliases: []string{"Model", "MODEL"}, Tokens: []string{"model"}},
	{FieldKey: "ink_type", Aliases: []string{"Ink type", "InkType", "INK TYPE"}, Tokens: []string{"ink"}},
	{FieldKey: "active_status", Aliases: []string{"Active Status", "ActiveStatus"}, Tokens: []string{"active", "status"}},
	{FieldKey: "mc_status", Aliases: []string{"Mc Status", "McStatus", "Machine Status", "MachineStatus"}, Tokens: []string{"status"}},
	{FieldKey: "contact_person", Aliases: []string{"Contact Person", "ContactPerson"}, Tokens: []string{"contact", "person"}},
	{FieldKey: "designation", Aliases: []string{"Designation"}, Tokens: []string{"designation"}},
	{FieldKey: "contact_no", Aliases: []string{"Contact No", "ContactNumber", "Contact Number"}, Tokens: []string{"contact", "no"}},
	{FieldKey: "email", Aliases: []string{"Email", "Email Id"}, Tokens: []string{"email"}},
	{FieldKey: "invoice_date", Aliases: []string{"Invoice Date", "INVOICE_DATE", "InvoiceDate"}, Tokens: []string{"invoice", "date"}, Date: true},
	{FieldKey: "installed_on", Aliases: []string{"Installed On", "INSTALLED_ON", "InstalledOn"}, Tokens: []string{"installed"}, Date: true},
	{FieldKey: "amc_invoice_date", Aliases: []string{"AMC Invoice Date", "AMC_INVOICE_DATE"}, Tokens: []string{"amc", "invoice"}, Date: true},
	{FieldKey: "amc_from", Aliases: []string{"AMC From", "AMC_FROM"}, Tokens: []string{"amc", "from"}, Date: true},
	{FieldKey: "amc_to", Aliases: []string{"AMC To", "AMC_TO"}, Tokens: []string{"amc", "to"}, Date: true},
	{FieldKey: "amc_due_date", Aliases: []string{"AMC Due Date", "AMC_DUE_DATE"}, Tokens: []string{"amc", "due"}, Date: true},
	{FieldKey: "filter_invoice_date", Aliases: []string{"Filter Invoice Date", "FILTER_INVOICE_DATE"}, Tokens: []string{"filter", "invoice"}, Date: true},
	{FieldKey: "next_filter_due_date", Aliases: []string{"Next Filter Due Date", "NEXT_FILTER_DUE_DATE"}, Tokens: []string{"filter", "due"}, Date: true},
	{FieldKey: "cluster_visit_plan", Aliases: []string{"Cluster Visit Plan", "CLUSTER_VISIT_PLAN"}, Tokens: []string{"cluster", "visit"}, Date: true},
	{FieldKey: "actual_visit", Aliases: []string{"Actual Visit", "ACTUAL_VISIT"}, Tokens: []string{"actual", "visit"}, Date: true},
	{FieldKey: "next_ter2_plan", Aliases: []string{"NEXT TER2 PLAN", "Next Ter2 Plan"}, Tokens: []string{"ter2"}, Date: true},
}

var reportFields = []LogicalField{
	{FieldKey: "id", Aliases: []string{"Id", "ID"}, Tokens: []string{"id"}},
	{FieldKey: "zone", Aliases: []string{"Zone", "ZONE"}, Tokens: []string{"zone"}},
	{FieldKey: "engineer_name", Aliases: []string{"EngineerName", "Engineer Name", "ENGINEER_NAME"}, Tokens: []string{"engineer", "name"}},
	{FieldKey: "month_year", Aliases: []string{"MonthYear", "Month Year", "MMM-YY", "MMM_YY", "MMM YY"}, Tokens: []string{"mmm"}},
	{FieldKey: "service_report_no", Aliases: []string{"ServiceReportNo", "Service report No", "Service report No."}, Tokens: []string{"report"}},
	{FieldKey: "customer_name", Aliases: []string{"CustomerName", "Customer Name"}, Tokens: []string{"customer", "name"}},
	{FieldKey: "location", Aliases: []string{"Location"}, Tokens: []string{"location"}},
	{FieldKey: "contact_person", Aliases: []string{"ContactPerson", "Contact Person"}, Tokens: []string{"contact", "person"}},
	{FieldKey: "designation", Aliases: []string{"Designation"}, Tokens: []string{"designation"}},
	{FieldKey: "contact_number", Aliases: []string{"ContactNumber", "Contact No", "Contact No."}, Tokens: []string{"contact", "no"}},
	{FieldKey: "email", Aliases: []string{"Email", "Email Id"}, Tokens: []string{"email"}},
	{FieldKey: "call_logged_date", Aliases: []string{"CallLoggedDate", "Call Logged Date"}, Tokens: []string{"call", "date"}, Date: true},
	{FieldKey: "problem_reported", Aliases: []string{"ProblemReported", "Problem Reported"}, Tokens: []string{"problem"}},
	{FieldKey: "machine_status", Aliases: []string{"MachineStatus", "Machine Status", "Mc Status", "McStatus"}, Tokens: []string{"status"}},
	{FieldKey: "visit_code1", Aliases: []string{"VisitCode1", "Visit Code 1"}, Tokens: []string{"visit", "code", "1"}},
	{FieldKey: "visit_code2", Aliases: []string{"VisitCode2", "Visit Code 2"}, Tokens: []string{"visit", "code", "2"}},
	{FieldKey: "ink_type", Aliases: []string{"InkType", "Ink type"}, Tokens: []string{"ink"}},
	{FieldKey: "visit_date", Aliases: []string{"VisitDate", "Visit Date"}, Tokens: []string{"visit", "date"}, Date: true},
	{FieldKey: "action_taken", Aliases: []string{"ActionTaken", "Action Taken"}, Tokens: []string{"action"}},
	{FieldKey: "remarks", Aliases: []string{"Remarks", "Remark"}, Tokens: []string{"remark"}},
	{FieldKey: "created_at", Aliases: []string{"CreatedAt", "Created At"}, Tokens: []string{"created"}},
}

var installBaseFieldByKey = indexFields(installBaseFields)
var reportFieldByKey = indexFields(reportFields)

func indexFields(fields []LogicalField) map[string]LogicalField {
	out := make(map[string]LogicalField, len(fields))
	for _, f := range fields {
		out[f.FieldKey] = f
	}
	return out
}

func InstallBaseField(fieldKey string) (LogicalField, bool) {
	f, ok := installBaseFieldByKey[fieldKey]
	return f, ok
}

func ReportField(fieldKey string) (LogicalField, bool) {
	f, ok := reportFieldByKey[fieldKey]
	return f, ok
}

// InstallBaseDateKey reports whether an upsert payload key names one of the
// install-base calendar fields, matching by NormKey so client key spelling
// does not matter.
func InstallBaseDateKey(payloadKey string) bool {
	nk := NormKey(payloadKey)
	for _, f := range installBaseFields {
		if f.Date && NormKey(f.FieldKey) == nk {
			return true
		}
	}
	return false
}
