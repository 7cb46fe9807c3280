package services

import (
	"context"
	"strings"

	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/fieldmeta"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/ports"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/query"
	"github.com/supankharikap/ServiceTeam/pkg/httperr"
)

const (
	minQueryLen     = 2
	suggestTotalCap = 12
	perColumnLimit  = 10
	quickLimit      = 20
)

// installBaseSuggestGroups orders the logical fields mined for general
// install-base suggestions. Earlier groups win slots in the capped output.
var installBaseSuggestGroups = []string{
	"customer_name", "serial_no", "location",
	"service_engr", "sales_engr", "zone", "cluster_no",
}

var reportSuggestGroups = []string{
	"month_year", "customer_name", "engineer_name", "zone",
}

// SuggestService mines distinct stored values for typeahead completion. All
// lookups run inside the caller's scope so suggestions never leak rows the
// list endpoints would hide.
type SuggestService struct {
	schema       ports.SchemaProvider
	rows         ports.RowStore
	installTable string
	reportsTable string
}

func NewSuggestService(schema ports.SchemaProvider, rows ports.RowStore, installTable string, reportsTable string) *SuggestService {
	return &SuggestService{schema: schema, rows: rows, installTable: installTable, reportsTable: reportsTable}
}

// tooShort gates suggestion queries: under two significant characters the
// candidate set is too broad to be useful and the store is never hit.
func tooShort(q string) bool {
	return len(strings.TrimSpace(q)) < minQueryLen
}

// dedupeAppend appends vals to out, skipping case-insensitive duplicates and
// stopping at limit.
func dedupeAppend(out []string, seen map[string]bool, vals []string, limit int) []string {
	for _, v := range vals {
		if len(out) >= limit {
			break
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToUpper(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

func (s *SuggestService) suggest(ctx context.Context, table string, cols []string, scope query.Predicate, lookup func(string) (fieldmeta.LogicalField, bool), groups []string, q string) ([]string, error) {
	out := []string{}
	seen := map[string]bool{}
	for _, key := range groups {
		if len(out) >= suggestTotalCap {
			break
		}
		f, ok := lookup(key)
		if !ok {
			continue
		}
		col, ok := fieldmeta.Resolve(cols, f)
		if !ok {
			continue
		}
		where := query.And(scope, query.Contains(col, q))
		vals, err := s.rows.DistinctValues(ctx, table, col, where, perColumnLimit)
		if err != nil {
			return nil, err
		}
		out = dedupeAppend(out, seen, vals, suggestTotalCap)
	}
	return out, nil
}

// InstallBaseSuggest returns up to suggestTotalCap distinct values matching q
// across the install-base suggestion groups. A too-short query returns an
// empty list without touching storage.
func (s *SuggestService) InstallBaseSuggest(ctx context.Context, principal query.Principal, q string) ([]string, error) {
	if tooShort(q) {
		return []string{}, nil
	}
	cols, err := s.schema.TableColumns(ctx, s.installTable)
	if err != nil {
		return nil, httperr.NewUnavailable("install base schema unavailable", err)
	}
	if len(cols) == 0 {
		return nil, httperr.NewBadRequest("install base table not found")
	}
	scope := query.InstallBaseScope(cols, principal)
	out, err := s.suggest(ctx, s.installTable, cols, scope, fieldmeta.InstallBaseField, installBaseSuggestGroups, strings.TrimSpace(q))
	if err != nil {
		return nil, httperr.NewUnavailable("install base query failed", err)
	}
	return out, nil
}

// ReportSuggest is InstallBaseSuggest over the visit-report log.
func (s *SuggestService) ReportSuggest(ctx context.Context, principal query.Principal, q string) ([]string, error) {
	if tooShort(q) {
		return []string{}, nil
	}
	cols, err := s.schema.TableColumns(ctx, s.reportsTable)
	if err != nil {
		return nil, httperr.NewUnavailable("report schema unavailable", err)
	}
	if len(cols) == 0 {
		return nil, httperr.NewBadRequest("report table not found")
	}
	scope := query.ReportScope(cols, principal)
	out, err := s.suggest(ctx, s.reportsTable, cols, scope, fieldmeta.ReportField, reportSuggestGroups, strings.TrimSpace(q))
	if err != nil {
		return nil, httperr.NewUnavailable("report query failed", err)
	}
	return out, nil
}

// quickSuggest is the single-column prefix lookup behind the customer and
// serial pickers on the entry forms.
func (s *SuggestService) quickSuggest(ctx context.Context, principal query.Principal, fieldKey string, q string) ([]string, error) {
	if tooShort(q) {
		return []string{}, nil
	}
	cols, err := s.schema.TableColumns(ctx, s.installTable)
	if err != nil {
		return nil, httperr.NewUnavailable("install base schema unavailable", err)
	}
	if len(cols) == 0 {
		return nil, httperr.NewBadRequest("install base table not found")
	}
	f, ok := fieldmeta.InstallBaseField(fieldKey)
	if !ok {
		return []string{}, nil
	}
	col, ok := fieldmeta.Resolve(cols, f)
	if !ok {
		return []string{}, nil
	}
	where := query.And(
		query.InstallBaseScope(cols, principal),
		query.HasPrefix(col, strings.TrimSpace(q)),
	)
	vals, err := s.rows.DistinctValues(ctx, s.installTable, col, where, quickLimit)
	if err != nil {
		return nil, httperr.NewUnavailable("install base query failed", err)
	}
	out := dedupeAppend([]string{}, map[string]bool{}, vals, quickLimit)
	return out, nil
}

// CustomerSuggest completes customer names by prefix for the entry forms.
func (s *SuggestService) CustomerSuggest(ctx context.Context, principal query.Principal, q string) ([]string, error) {
	return s.quickSuggest(ctx, principal, "customer_name", q)
}

// SerialSuggest completes serial numbers by prefix for the entry forms.
func (s *SuggestService) SerialSuggest(ctx context.Context, principal query.Principal, q string) ([]string, error) {
	return s.quickSuggest(ctx, principal, "serial_no", q)
}
