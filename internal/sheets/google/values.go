package google

import (
	"fmt"
	"strings"

	"logbook/internal/core"
)

// tableValues converts a table into the values matrix the Sheets API
// expects, header row first.
func tableValues(t core.Table) [][]any {
	cols := t.Columns()
	out := make([][]any, 0, t.Len()+1)

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	out = append(out, header)

	for i := 0; i < t.Len(); i++ {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = t.Value(i, c)
		}
		out = append(out, row)
	}
	return out
}

// tabTitle turns a kind slug into a tab title: "audits" -> "Audits".
func tabTitle(kind string) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return "Untitled"
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}

// quoteTab quotes a tab title for A1 notation.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
