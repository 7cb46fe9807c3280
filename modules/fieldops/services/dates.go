package services

import (
	"strings"
	"time"
)

var dateLayouts = []string{"2006-01-02", "2-Jan-06", "2-Jan-2006", "2-1-2006"}

func isNAToken(s string) bool {
	switch strings.ToUpper(s) {
	case "NA", "N/A", "NULL", "#VALUE!":
		return true
	}
	return false
}

// ParseDate accepts the calendar formats seen in spreadsheet exports and
// HTML date inputs. NA markers and anything unparseable report !ok.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isNAToken(s) {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateValue coerces a date input to a storable value: a time.Time, or nil
// (SQL NULL) for blank or unparseable input. Bad dates never fail a write.
func dateValue(s string) any {
	t, ok := ParseDate(s)
	if !ok {
		return nil
	}
	return t
}
