package web

import (
	"html/template"
	"time"
)

var templateFuncs = template.FuncMap{
	"date": displayDate,
	"key":  func(i int) int { return i + 1 },
}

// displayDate shortens an RFC 3339 added_at value to its date.
func displayDate(s string) string {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("2006-01-02")
	}
	return s
}
