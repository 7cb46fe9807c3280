package query

import (
	"strings"

	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/fieldmeta"
)

// Principal is the caller identity a scope predicate is derived from. It is
// built once per request by the session layer and never mutated here.
type Principal struct {
	Role         string
	Zone         string
	EngineerName string
}

func (p Principal) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(p.Role), "admin")
}

// ManagerLike reports whether a role string names a manager or team-leader
// variant. Manager-like callers are scoped by zone only, never by their own
// engineer identity.
func ManagerLike(role string) bool {
	r := strings.ToLower(strings.TrimSpace(role))
	return strings.Contains(r, "manager") ||
		strings.Contains(r, "team leader") ||
		strings.Contains(r, "teamleader") ||
		strings.Contains(r, "team_leader")
}

// InstallBaseScope derives the row-level authorization predicate for the
// install-base registry. Admin sees everything. Manager-like roles are
// narrowed to their zone. Everyone else is narrowed to zone AND service
// engineer; sales-engineer scoping is retired policy and intentionally not
// applied. A conjunct whose value or column is missing is dropped rather
// than failing the request (fail-open on schema drift).
func InstallBaseScope(cols []string, p Principal) Predicate {
	var pred Predicate
	if p.IsAdmin() {
		return pred
	}

	zone := fieldmeta.NormValue(p.Zone)
	eng := fieldmeta.NormValue(p.EngineerName)

	zoneCol, zoneOK := resolveField(cols, fieldmeta.InstallBaseField, "zone")
	svcCol, svcOK := resolveField(cols, fieldmeta.InstallBaseField, "service_engr")

	if zone != "" && zoneOK {
		pred.Append(normEqClause(zoneCol), zone)
	}
	if ManagerLike(p.Role) {
		return pred
	}
	if eng != "" && svcOK {
		pred.Append(normEqClause(svcCol), eng)
	}
	return pred
}

// ReportScope is InstallBaseScope for the visit-report log; the engineer
// conjunct tests the report's engineer-name column.
func ReportScope(cols []string, p Principal) Predicate {
	var pred Predicate
	if p.IsAdmin() {
		return pred
	}

	zone := fieldmeta.NormValue(p.Zone)
	eng := fieldmeta.NormValue(p.EngineerName)

	zoneCol, zoneOK := resolveField(cols, fieldmeta.ReportField, "zone")
	engCol, engOK := resolveField(cols, fieldmeta.ReportField, "engineer_name")

	if zone != "" && zoneOK {
		pred.Append(normEqClause(zoneCol), zone)
	}
	if !ManagerLike(p.Role) && eng != "" && engOK {
		pred.Append(normEqClause(engCol), eng)
	}
	return pred
}

// KeyEquals builds the case/whitespace-insensitive business-key test used by
// the upsert existence check.
func KeyEquals(col string, value string) Predicate {
	var pred Predicate
	pred.Append(normEqClause(col), fieldmeta.NormValue(value))
	return pred
}

func resolveField(cols []string, lookup func(string) (fieldmeta.LogicalField, bool), key string) (string, bool) {
	f, ok := lookup(key)
	if !ok {
		return "", false
	}
	return fieldmeta.Resolve(cols, f)
}
