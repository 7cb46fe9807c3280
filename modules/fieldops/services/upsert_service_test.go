package services

import (
	"context"
	"testing"
	"time"

	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/ports"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/query"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/types"
	"github.com/supankharikap/ServiceTeam/pkg/httperr"
)

var installCols = []string{
	"id", "Serial_No", "CUSTOMER_NAME", "ZONE", "SERVICE_ENGR",
	"LOCATION", "Model", "Installed On",
}

var reportCols = []string{
	"id", "Zone", "EngineerName", "MonthYear", "CustomerName",
	"VisitDate", "ActionTaken", "CreatedAt",
}

func newUpsertFixture() (*UpsertService, *fakeRows) {
	schema := &fakeSchema{cols: map[string][]string{
		"fieldops.install_base":  installCols,
		"fieldops.visit_reports": reportCols,
	}}
	rows := newFakeRows()
	svc := NewUpsertService(schema, rows, "fieldops.install_base", "fieldops.visit_reports")
	return svc, rows
}

func TestSaveInstallBaseInsertsNewSerial(t *testing.T) {
	svc, rows := newUpsertFixture()
	admin := query.Principal{Role: "admin"}

	out, err := svc.SaveInstallBase(context.Background(), admin, map[string]string{
		"serialNo":     " SR-100 ",
		"customerName": "Acme Press",
		"location":     "Pune",
		"installedOn":  "2024-01-15",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out.Action != types.ActionInserted {
		t.Fatalf("action=%q", out.Action)
	}
	if out.Message != "Inserted: SR-100" {
		t.Fatalf("message=%q", out.Message)
	}
	if len(rows.inserts) != 1 {
		t.Fatalf("inserts=%d", len(rows.inserts))
	}
	if len(rows.locks) != 1 {
		t.Fatalf("locks=%d", len(rows.locks))
	}

	values := rows.inserts[0].values
	if v, _ := columnValue(values, "Serial_No"); v != "SR-100" {
		t.Fatalf("serial=%v", v)
	}
	if v, _ := columnValue(values, "CUSTOMER_NAME"); v != "Acme Press" {
		t.Fatalf("customer=%v", v)
	}
	v, ok := columnValue(values, "Installed On")
	if !ok {
		t.Fatalf("installed-on column missing")
	}
	ts, ok := v.(time.Time)
	if !ok || !ts.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("installed-on=%v", v)
	}
}

func TestSaveInstallBaseSecondCallUpdates(t *testing.T) {
	svc, rows := newUpsertFixture()
	admin := query.Principal{Role: "admin"}
	payload := map[string]string{"serialNo": "SR-200", "customerName": "Acme Press"}

	if _, err := svc.SaveInstallBase(context.Background(), admin, payload); err != nil {
		t.Fatalf("first save: err=%v", err)
	}
	out, err := svc.SaveInstallBase(context.Background(), admin, map[string]string{
		"serialNo": "sr-200",
		"location": "Nagpur",
	})
	if err != nil {
		t.Fatalf("second save: err=%v", err)
	}
	if out.Action != types.ActionUpdated {
		t.Fatalf("action=%q", out.Action)
	}
	if out.Message != "Updated: SR-200" {
		t.Fatalf("message=%q", out.Message)
	}
	if len(rows.updates) != 1 {
		t.Fatalf("updates=%d", len(rows.updates))
	}
	set := rows.updates[0].set
	if _, ok := columnValue(set, "Serial_No"); ok {
		t.Fatalf("key column must not appear in SET")
	}
	if v, _ := columnValue(set, "LOCATION"); v != "Nagpur" {
		t.Fatalf("location=%v", v)
	}
}

func TestSaveInstallBaseDuplicateKeyRetriesAsUpdate(t *testing.T) {
	svc, rows := newUpsertFixture()
	rows.insertErr = ports.ErrDuplicateKey
	admin := query.Principal{Role: "admin"}

	out, err := svc.SaveInstallBase(context.Background(), admin, map[string]string{
		"serialNo":     "SR-300",
		"customerName": "Acme Press",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out.Action != types.ActionUpdated {
		t.Fatalf("action=%q", out.Action)
	}
	if len(rows.updates) != 1 {
		t.Fatalf("updates=%d", len(rows.updates))
	}
}

func TestSaveInstallBaseBlankSerialRejected(t *testing.T) {
	svc, rows := newUpsertFixture()
	_, err := svc.SaveInstallBase(context.Background(), query.Principal{Role: "admin"}, map[string]string{
		"serialNo":     "   ",
		"customerName": "Acme Press",
	})
	if !httperr.IsBadRequest(err) {
		t.Fatalf("err=%v", err)
	}
	if len(rows.inserts) != 0 || len(rows.updates) != 0 {
		t.Fatalf("store must not be written")
	}
}

func TestSaveInstallBaseScopedUserCannotSeeForeignRow(t *testing.T) {
	svc, rows := newUpsertFixture()
	admin := query.Principal{Role: "admin"}
	if _, err := svc.SaveInstallBase(context.Background(), admin, map[string]string{
		"serialNo":     "SR-400",
		"customerName": "Acme Press",
		"zone":         "East",
	}); err != nil {
		t.Fatalf("seed: err=%v", err)
	}

	// The scoped existence predicate carries zone and engineer conjuncts,
	// so its first argument is still the serial key.
	user := query.Principal{Role: "user", Zone: "West", EngineerName: "Sita"}
	out, err := svc.SaveInstallBase(context.Background(), user, map[string]string{
		"serialNo":     "SR-401",
		"customerName": "Acme Press",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out.Action != types.ActionInserted {
		t.Fatalf("action=%q", out.Action)
	}
	if len(rows.inserts) != 2 {
		t.Fatalf("inserts=%d", len(rows.inserts))
	}
}

func TestSubmitReportResolvesColumnsAndCoercesDates(t *testing.T) {
	svc, rows := newUpsertFixture()
	before := time.Now().UTC()

	err := svc.SubmitReport(context.Background(), map[string]string{
		"zone":         "East",
		"engineerName": "Ravi",
		"monthYear":    "Jan-24",
		"customerName": "Acme Press",
		"visitDate":    "15-Jan-2024",
		"actionTaken":  "Replaced filter",
		"designation":  "ignored, no column in schema",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(rows.inserts) != 1 {
		t.Fatalf("inserts=%d", len(rows.inserts))
	}

	values := rows.inserts[0].values
	if v, _ := columnValue(values, "EngineerName"); v != "Ravi" {
		t.Fatalf("engineer=%v", v)
	}
	if _, ok := columnValue(values, "designation"); ok {
		t.Fatalf("unresolved field must be dropped")
	}
	v, ok := columnValue(values, "VisitDate")
	if !ok {
		t.Fatalf("visit date missing")
	}
	ts, ok := v.(time.Time)
	if !ok || !ts.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("visit date=%v", v)
	}
	created, ok := columnValue(values, "CreatedAt")
	if !ok {
		t.Fatalf("created-at missing")
	}
	cts, ok := created.(time.Time)
	if !ok || cts.Before(before) {
		t.Fatalf("created-at=%v", created)
	}
}

func TestSubmitReportNADateStoresNull(t *testing.T) {
	svc, rows := newUpsertFixture()
	err := svc.SubmitReport(context.Background(), map[string]string{
		"engineerName": "Ravi",
		"visitDate":    "NA",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	v, ok := columnValue(rows.inserts[0].values, "VisitDate")
	if !ok {
		t.Fatalf("visit date column missing")
	}
	if v != nil {
		t.Fatalf("visit date=%v, want nil", v)
	}
}

func TestSubmitReportMissingTableRejected(t *testing.T) {
	schema := &fakeSchema{cols: map[string][]string{}}
	svc := NewUpsertService(schema, newFakeRows(), "fieldops.install_base", "fieldops.visit_reports")
	err := svc.SubmitReport(context.Background(), map[string]string{"engineerName": "Ravi"})
	if !httperr.IsBadRequest(err) {
		t.Fatalf("err=%v", err)
	}
}
