package query

import (
	"strings"
	"testing"
)

func TestPredicateSQLNumbering(t *testing.T) {
	var p Predicate
	p.Append(`"Zone" = ?`, "East")
	p.Append(`"Engr" = ?`, "Raj")

	sql, next := p.SQL(1)
	if sql != `"Zone" = $1 AND "Engr" = $2` {
		t.Fatalf("sql=%q", sql)
	}
	if next != 3 {
		t.Fatalf("next=%d", next)
	}

	sql, next = p.SQL(4)
	if sql != `"Zone" = $4 AND "Engr" = $5` {
		t.Fatalf("sql=%q", sql)
	}
	if next != 6 {
		t.Fatalf("next=%d", next)
	}
}

func TestPredicateEmpty(t *testing.T) {
	var p Predicate
	if !p.IsEmpty() {
		t.Fatal("zero predicate must be empty")
	}
	sql, next := p.WhereSQL(1)
	if sql != "" || next != 1 {
		t.Fatalf("sql=%q next=%d", sql, next)
	}
}

func TestPredicateWhereSQL(t *testing.T) {
	var p Predicate
	p.Append(`"Zone" = ?`, "East")
	sql, _ := p.WhereSQL(1)
	if sql != ` WHERE "Zone" = $1` {
		t.Fatalf("sql=%q", sql)
	}
}

func TestAndSkipsEmpty(t *testing.T) {
	var a, b Predicate
	a.Append(`"Zone" = ?`, "East")
	got := And(a, b)
	sql, _ := got.SQL(1)
	if sql != `"Zone" = $1` {
		t.Fatalf("sql=%q", sql)
	}
	if len(got.Args()) != 1 {
		t.Fatalf("args=%v", got.Args())
	}
}

func TestAndParamOrder(t *testing.T) {
	var scope, search Predicate
	scope.Append(`"Zone" = ?`, "East")
	search.Append(`("A" ILIKE ? OR "B" ILIKE ?)`, "%x%", "%y%")

	combined := And(scope, search)
	sql, next := combined.SQL(1)
	if next != 4 {
		t.Fatalf("next=%d", next)
	}
	if !strings.Contains(sql, `"Zone" = $1 AND ("A" ILIKE $2 OR "B" ILIKE $3)`) {
		t.Fatalf("sql=%q", sql)
	}
	args := combined.Args()
	if len(args) != 3 || args[0] != "East" || args[1] != "%x%" || args[2] != "%y%" {
		t.Fatalf("args=%v", args)
	}
}

func TestPredicateSQLKeepsQuestionMarkInsideIdentifiers(t *testing.T) {
	var p Predicate
	p.Append(Ident("Valid?")+`::text ILIKE ?`, "%east%")

	sql, next := p.SQL(1)
	if sql != `"Valid?"::text ILIKE $1` {
		t.Fatalf("sql=%q", sql)
	}
	if next != 2 {
		t.Fatalf("next=%d", next)
	}
	if got := p.Args(); len(got) != 1 || got[0] != "%east%" {
		t.Fatalf("args=%v", got)
	}
}

func TestNormEqClauseCollapsesWhitespaceRuns(t *testing.T) {
	got := normEqClause("Serial_No")
	want := `upper(btrim(regexp_replace(translate("Serial_No"::text, chr(9)||chr(10)||chr(13)||chr(160), '    '), ' +', ' ', 'g'))) = upper(?)`
	if got != want {
		t.Fatalf("clause=%q", got)
	}
}

func TestIdent(t *testing.T) {
	if got := Ident("Serial No."); got != `"Serial No."` {
		t.Fatalf("got %q", got)
	}
	if got := Ident(`we"ird`); got != `"we""ird"` {
		t.Fatalf("got %q", got)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := EscapeLike(`50%_a\b`); got != `50\%\_a\\b` {
		t.Fatalf("got %q", got)
	}
}
