package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/fieldmeta"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/ports"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/query"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/types"
	"github.com/supankharikap/ServiceTeam/pkg/httperr"
)

// UpsertService owns the write paths: install-base save (insert-or-update
// keyed by serial number, existence checked inside the caller's scope) and
// visit-report submission.
type UpsertService struct {
	schema       ports.SchemaProvider
	rows         ports.RowStore
	installTable string
	reportsTable string
}

func NewUpsertService(schema ports.SchemaProvider, rows ports.RowStore, installTable string, reportsTable string) *UpsertService {
	return &UpsertService{schema: schema, rows: rows, installTable: installTable, reportsTable: reportsTable}
}

// reportFieldOrder fixes the logical fields a report submission may carry,
// in storage order. Payload keys are matched by NormKey, so camelCase
// client keys line up with these.
var reportFieldOrder = []string{
	"zone", "engineer_name", "month_year", "service_report_no",
	"customer_name", "location", "contact_person", "designation",
	"contact_number", "email", "call_logged_date", "problem_reported",
	"machine_status", "visit_code1", "visit_code2", "ink_type",
	"visit_date", "action_taken", "remarks",
}

func payloadLookup(payload map[string]string) map[string]string {
	idx := make(map[string]string, len(payload))
	for k := range payload {
		nk := fieldmeta.NormKey(k)
		if _, ok := idx[nk]; !ok {
			idx[nk] = k
		}
	}
	return idx
}

// SaveInstallBase performs the existence-checked upsert. The check-then-act
// sequence runs under a per-key advisory lock; a racing insert that still
// trips the storage uniqueness constraint is retried as an update.
func (s *UpsertService) SaveInstallBase(ctx context.Context, principal query.Principal, payload map[string]string) (types.UpsertOutcome, error) {
	cols, err := s.schema.TableColumns(ctx, s.installTable)
	if err != nil {
		return types.UpsertOutcome{}, httperr.NewUnavailable("install base schema unavailable", err)
	}
	if len(cols) == 0 {
		return types.UpsertOutcome{}, httperr.NewBadRequest("install base table not found")
	}

	serialField, _ := fieldmeta.InstallBaseField("serial_no")
	custField, _ := fieldmeta.InstallBaseField("customer_name")
	serialCol, serialOK := fieldmeta.Resolve(cols, serialField)
	custCol, custOK := fieldmeta.Resolve(cols, custField)
	if !serialOK {
		return types.UpsertOutcome{}, httperr.NewBadRequest("Serial column not found")
	}

	payloadIdx := payloadLookup(payload)
	serial := fieldmeta.NormValue(payload[payloadIdx["serialno"]])
	customer := fieldmeta.NormValue(payload[payloadIdx["customername"]])
	if serial == "" {
		return types.UpsertOutcome{}, httperr.NewBadRequest("Serial No required")
	}
	if custOK && customer == "" {
		return types.UpsertOutcome{}, httperr.NewBadRequest("Customer Name required")
	}

	scope := query.InstallBaseScope(cols, principal)
	colIdx := fieldmeta.ColumnIndex(cols)

	var outcome types.UpsertOutcome
	lockKey := s.installTable + ":" + strings.ToUpper(serial)
	err = s.rows.WithKeyLock(ctx, lockKey, func(ctx context.Context, tx ports.RowStore) error {
		where := query.And(query.KeyEquals(serialCol, serial), scope)
		exists, err := tx.Exists(ctx, s.installTable, where)
		if err != nil {
			return err
		}

		if exists {
			out, err := s.updateInstallBase(ctx, tx, colIdx, serialCol, serial, where, payload)
			if err != nil {
				return err
			}
			outcome = out
			return nil
		}

		err = s.insertInstallBase(ctx, tx, colIdx, serialCol, serial, custCol, custOK, customer, payload)
		if errors.Is(err, ports.ErrDuplicateKey) {
			// Lost a race with a concurrent insert of the same key.
			out, uerr := s.updateInstallBase(ctx, tx, colIdx, serialCol, serial, where, payload)
			if uerr != nil {
				return uerr
			}
			outcome = out
			return nil
		}
		if err != nil {
			return err
		}
		outcome = types.UpsertOutcome{Action: types.ActionInserted, Message: "Inserted: " + serial}
		return nil
	})
	if err != nil {
		if httperr.IsBadRequest(err) {
			return types.UpsertOutcome{}, err
		}
		return types.UpsertOutcome{}, httperr.NewUnavailable("install base save failed", err)
	}
	return outcome, nil
}

func (s *UpsertService) updateInstallBase(ctx context.Context, tx ports.RowStore, colIdx map[string]string, serialCol string, serial string, where query.Predicate, payload map[string]string) (types.UpsertOutcome, error) {
	var set []ports.ColumnValue
	for k, v := range payload {
		col, ok := colIdx[fieldmeta.NormKey(k)]
		if !ok || col == serialCol {
			continue
		}
		set = append(set, ports.ColumnValue{Column: col, Value: coerceInstallBaseValue(k, v)})
	}
	if len(set) == 0 {
		return types.UpsertOutcome{Action: types.ActionUpdated, Message: "Nothing to update."}, nil
	}
	if _, err := tx.Update(ctx, s.installTable, set, where); err != nil {
		return types.UpsertOutcome{}, err
	}
	return types.UpsertOutcome{Action: types.ActionUpdated, Message: "Updated: " + serial}, nil
}

func (s *UpsertService) insertInstallBase(ctx context.Context, tx ports.RowStore, colIdx map[string]string, serialCol string, serial string, custCol string, custOK bool, customer string, payload map[string]string) error {
	values := []ports.ColumnValue{{Column: serialCol, Value: serial}}
	if custOK {
		values = append(values, ports.ColumnValue{Column: custCol, Value: customer})
	}
	for k, v := range payload {
		col, ok := colIdx[fieldmeta.NormKey(k)]
		if !ok || col == serialCol || (custOK && col == custCol) {
			continue
		}
		coerced := coerceInstallBaseValue(k, v)
		if coerced == nil || coerced == "" {
			continue
		}
		values = append(values, ports.ColumnValue{Column: col, Value: coerced})
	}
	return tx.Insert(ctx, s.installTable, values)
}

// coerceInstallBaseValue applies date coercion to calendar payload keys and
// passes everything else through untouched.
func coerceInstallBaseValue(payloadKey string, v string) any {
	if fieldmeta.InstallBaseDateKey(payloadKey) {
		return dateValue(v)
	}
	return v
}

// SubmitReport inserts one visit-report row. Every logical field that
// resolves against the current schema is written; the rest of the payload
// is ignored. A created-at column is stamped server-side when present.
func (s *UpsertService) SubmitReport(ctx context.Context, payload map[string]string) error {
	cols, err := s.schema.TableColumns(ctx, s.reportsTable)
	if err != nil {
		return httperr.NewUnavailable("report schema unavailable", err)
	}
	if len(cols) == 0 {
		return httperr.NewBadRequest("report table not found")
	}

	payloadIdx := payloadLookup(payload)

	var values []ports.ColumnValue
	for _, fieldKey := range reportFieldOrder {
		f, ok := fieldmeta.ReportField(fieldKey)
		if !ok {
			continue
		}
		col, ok := fieldmeta.Resolve(cols, f)
		if !ok {
			continue
		}
		v := payload[payloadIdx[fieldmeta.NormKey(fieldKey)]]
		if f.Date {
			values = append(values, ports.ColumnValue{Column: col, Value: dateValue(v)})
			continue
		}
		values = append(values, ports.ColumnValue{Column: col, Value: v})
	}

	if createdField, ok := fieldmeta.ReportField("created_at"); ok {
		if col, ok := fieldmeta.Resolve(cols, createdField); ok {
			values = append(values, ports.ColumnValue{Column: col, Value: time.Now().UTC()})
		}
	}

	if len(values) == 0 {
		return httperr.NewBadRequest("no matching columns in report table")
	}
	if err := s.rows.Insert(ctx, s.reportsTable, values); err != nil {
		return httperr.NewUnavailable("report insert failed", err)
	}
	return nil
}
