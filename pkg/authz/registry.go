package authz

const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleUser      = "user"
	RoleAnonymous = "anonymous"
)

const (
	ActionRead  = "read"
	ActionWrite = "write"
)

const (
	ObjectIAMSession          = "iam.session"
	ObjectFieldOpsInstallBase = "fieldops.installbase"
	ObjectFieldOpsReports     = "fieldops.reports"
	ObjectFieldOpsKPI         = "fieldops.kpi"
)
