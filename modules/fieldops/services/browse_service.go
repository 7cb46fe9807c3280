package services

import (
	"context"

	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/fieldmeta"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/ports"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/query"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/types"
	"github.com/supankharikap/ServiceTeam/pkg/httperr"
)

const (
	listDefaultLimit = 500
	listMaxLimit     = 5000
	rowsByCustLimit  = 500
)

// installBaseSearchAliases are the column spellings a free-text install-base
// search prefers; the fallback over the leading schema columns kicks in only
// when none of them resolves.
var installBaseSearchAliases = []string{
	"CUSTOMER_NAME", "Serial_No", "LOCATION", "STATE", "ZONE",
	"SERVICE_ENGR", "SALES_ENGR", "Model", "Cluster_No",
}

var reportSearchAliases = []string{
	"CustomerName", "EngineerName", "Zone", "Location",
	"ServiceReportNo", "MonthYear", "MachineStatus",
}

// BrowseService owns the read paths over both tables: scoped lists,
// key-based row fetches and the KPI rollup.
type BrowseService struct {
	schema       ports.SchemaProvider
	rows         ports.RowStore
	installTable string
	reportsTable string
}

func NewBrowseService(schema ports.SchemaProvider, rows ports.RowStore, installTable string, reportsTable string) *BrowseService {
	return &BrowseService{schema: schema, rows: rows, installTable: installTable, reportsTable: reportsTable}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return listDefaultLimit
	}
	if limit > listMaxLimit {
		return listMaxLimit
	}
	return limit
}

// orderByKey resolves a logical field to an ORDER BY fragment, falling back
// to the first schema column so result order stays deterministic under any
// schema.
func orderByKey(cols []string, lookup func(string) (fieldmeta.LogicalField, bool), keys ...string) string {
	for _, key := range keys {
		if f, ok := lookup(key); ok {
			if col, ok := fieldmeta.Resolve(cols, f); ok {
				return query.Ident(col) + " DESC"
			}
		}
	}
	if len(cols) == 0 {
		return ""
	}
	return query.Ident(cols[0]) + " DESC"
}

// InstallBaseList returns scoped install-base rows, optionally narrowed by a
// free-text token search.
func (s *BrowseService) InstallBaseList(ctx context.Context, principal query.Principal, q string, limit int) (types.Result, error) {
	cols, err := s.schema.TableColumns(ctx, s.installTable)
	if err != nil {
		return types.Result{}, httperr.NewUnavailable("install base schema unavailable", err)
	}
	if len(cols) == 0 {
		return types.Result{}, httperr.NewBadRequest("install base table not found")
	}

	where := query.And(
		query.InstallBaseScope(cols, principal),
		query.TokenSearch(q, cols, installBaseSearchAliases),
	)
	orderBy := orderByKey(cols, fieldmeta.InstallBaseField, "id")

	res, err := s.rows.Select(ctx, s.installTable, cols, where, orderBy, clampLimit(limit))
	if err != nil {
		return types.Result{}, httperr.NewUnavailable("install base query failed", err)
	}
	return res, nil
}

// ReportList returns scoped visit-report rows, newest visit first.
func (s *BrowseService) ReportList(ctx context.Context, principal query.Principal, q string, limit int) (types.Result, error) {
	cols, err := s.schema.TableColumns(ctx, s.reportsTable)
	if err != nil {
		return types.Result{}, httperr.NewUnavailable("report schema unavailable", err)
	}
	if len(cols) == 0 {
		return types.Result{}, httperr.NewBadRequest("report table not found")
	}

	where := query.And(
		query.ReportScope(cols, principal),
		query.TokenSearch(q, cols, reportSearchAliases),
	)
	orderBy := orderByKey(cols, fieldmeta.ReportField, "visit_date", "id")

	res, err := s.rows.Select(ctx, s.reportsTable, cols, where, orderBy, clampLimit(limit))
	if err != nil {
		return types.Result{}, httperr.NewUnavailable("report query failed", err)
	}
	return res, nil
}

// bySerialProjectionKeys fixes the aliases a serial lookup returns. Fields
// absent from the current schema come back as empty strings under the same
// alias so the response shape never changes.
var bySerialProjectionKeys = []struct {
	alias    string
	fieldKey string
}{
	{"customerName", "customer_name"},
	{"serialNo", "serial_no"},
	{"location", "location"},
	{"state", "state"},
	{"address", "address"},
	{"model", "model"},
	{"inkType", "ink_type"},
}

// InstallBaseBySerial fetches the single install-base row matching a serial
// number exactly, projected to the fixed lookup shape. A miss returns an
// empty Result, not an error.
func (s *BrowseService) InstallBaseBySerial(ctx context.Context, principal query.Principal, serial string) (types.Result, error) {
	serial = fieldmeta.NormValue(serial)
	if serial == "" {
		return types.Result{}, httperr.NewBadRequest("serial required")
	}
	cols, err := s.schema.TableColumns(ctx, s.installTable)
	if err != nil {
		return types.Result{}, httperr.NewUnavailable("install base schema unavailable", err)
	}
	if len(cols) == 0 {
		return types.Result{}, httperr.NewBadRequest("install base table not found")
	}

	serialField, _ := fieldmeta.InstallBaseField("serial_no")
	serialCol, ok := fieldmeta.Resolve(cols, serialField)
	if !ok {
		return types.Result{}, httperr.NewBadRequest("Serial column not found")
	}

	projections := make([]ports.Projection, 0, len(bySerialProjectionKeys))
	for _, pk := range bySerialProjectionKeys {
		p := ports.Projection{Alias: pk.alias}
		if f, ok := fieldmeta.InstallBaseField(pk.fieldKey); ok {
			if col, ok := fieldmeta.Resolve(cols, f); ok {
				p.Column = col
			}
		}
		projections = append(projections, p)
	}

	where := query.And(
		query.KeyEquals(serialCol, serial),
		query.InstallBaseScope(cols, principal),
	)
	res, err := s.rows.SelectProjected(ctx, s.installTable, projections, where, "", 1)
	if err != nil {
		return types.Result{}, httperr.NewUnavailable("install base query failed", err)
	}
	return res, nil
}

// rowsByCustomerFieldKeys is the machine-roster projection shown when a
// customer is picked: one row per installed machine.
var rowsByCustomerFieldKeys = []struct {
	alias    string
	fieldKey string
}{
	{"serialNo", "serial_no"},
	{"customerName", "customer_name"},
	{"zone", "zone"},
	{"serviceEngr", "service_engr"},
	{"clusterNo", "cluster_no"},
	{"location", "location"},
	{"state", "state"},
	{"address", "address"},
	{"machineType", "machine_type"},
	{"model", "model"},
	{"inkType", "ink_type"},
	{"activeStatus", "active_status"},
	{"mcStatus", "mc_status"},
	{"contactPerson", "contact_person"},
	{"designation", "designation"},
	{"contactNo", "contact_no"},
	{"email", "email"},
	{"installedOn", "installed_on"},
}

// InstallBaseRowsByCustomer lists every scoped machine row registered under
// one customer name (normalized equality match).
func (s *BrowseService) InstallBaseRowsByCustomer(ctx context.Context, principal query.Principal, customer string) (types.Result, error) {
	customer = fieldmeta.NormValue(customer)
	if customer == "" {
		return types.Result{}, httperr.NewBadRequest("customer required")
	}
	cols, err := s.schema.TableColumns(ctx, s.installTable)
	if err != nil {
		return types.Result{}, httperr.NewUnavailable("install base schema unavailable", err)
	}
	if len(cols) == 0 {
		return types.Result{}, httperr.NewBadRequest("install base table not found")
	}

	custField, _ := fieldmeta.InstallBaseField("customer_name")
	custCol, ok := fieldmeta.Resolve(cols, custField)
	if !ok {
		return types.Result{}, httperr.NewBadRequest("Customer column not found")
	}

	projections := make([]ports.Projection, 0, len(rowsByCustomerFieldKeys))
	for _, pk := range rowsByCustomerFieldKeys {
		p := ports.Projection{Alias: pk.alias}
		if f, ok := fieldmeta.InstallBaseField(pk.fieldKey); ok {
			if col, ok := fieldmeta.Resolve(cols, f); ok {
				p.Column = col
			}
		}
		projections = append(projections, p)
	}

	orderBy := ""
	if f, ok := fieldmeta.InstallBaseField("serial_no"); ok {
		if col, ok := fieldmeta.Resolve(cols, f); ok {
			orderBy = query.Ident(col) + " ASC"
		}
	}
	if orderBy == "" {
		orderBy = query.Ident(custCol) + " ASC"
	}

	where := query.And(
		query.KeyEquals(custCol, customer),
		query.InstallBaseScope(cols, principal),
	)
	res, err := s.rows.SelectProjected(ctx, s.installTable, projections, where, orderBy, rowsByCustLimit)
	if err != nil {
		return types.Result{}, httperr.NewUnavailable("install base query failed", err)
	}
	return res, nil
}

// KPI computes the scoped install-base rollup: total machines and distinct
// customers visible to the caller.
func (s *BrowseService) KPI(ctx context.Context, principal query.Principal) (types.KPIReport, error) {
	cols, err := s.schema.TableColumns(ctx, s.installTable)
	if err != nil {
		return types.KPIReport{}, httperr.NewUnavailable("install base schema unavailable", err)
	}
	if len(cols) == 0 {
		return types.KPIReport{}, httperr.NewBadRequest("install base table not found")
	}

	scope := query.InstallBaseScope(cols, principal)
	total, err := s.rows.Count(ctx, s.installTable, scope)
	if err != nil {
		return types.KPIReport{}, httperr.NewUnavailable("install base query failed", err)
	}

	report := types.KPIReport{InstallBaseTotal: total}
	if f, ok := fieldmeta.InstallBaseField("customer_name"); ok {
		if col, ok := fieldmeta.Resolve(cols, f); ok {
			customers, err := s.rows.CountDistinct(ctx, s.installTable, col, scope)
			if err != nil {
				return types.KPIReport{}, httperr.NewUnavailable("install base query failed", err)
			}
			report.Customers = customers
		}
	}
	return report, nil
}
