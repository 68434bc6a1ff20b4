// Package views derives read-only aggregations from record tables. Every
// function takes a table and returns a fresh result; nothing is cached or
// accumulated between calls.
//
// Grouping is literal: "Team A" and "team a " are different keys.
package views

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"logbook/internal/core"
)

var ErrEmptyDelimiter = errors.New("empty delimiter")

// CountBy counts rows per distinct value of column, in order of first
// appearance. Empty values are not counted.
func CountBy(t core.Table, column string) ([]core.KeyCount, error) {
	if err := requireColumn(t, column); err != nil {
		return nil, err
	}
	index := make(map[string]int)
	var out []core.KeyCount
	for i := 0; i < t.Len(); i++ {
		v := t.Value(i, column)
		if v == "" {
			continue
		}
		if pos, ok := index[v]; ok {
			out[pos].Count++
			continue
		}
		index[v] = len(out)
		out = append(out, core.KeyCount{Key: v, Count: 1})
	}
	return out, nil
}

// FilterByFY keeps rows whose dateColumn falls in fy. Rows with an unknown
// date are dropped.
func FilterByFY(t core.Table, dateColumn string, fy core.FinancialYear) (core.Table, error) {
	if err := requireColumn(t, dateColumn); err != nil {
		return t, err
	}
	return t.Filter(func(r core.Record) bool {
		got, ok := core.FinancialYearOf(core.CoerceDate(r[dateColumn]))
		return ok && got == fy
	}), nil
}

// ExplodeMultiValue emits one row per delimited value of column, each value
// trimmed of surrounding whitespace. Empty pieces are dropped; a row whose
// cell holds no value at all is kept once with an empty cell.
func ExplodeMultiValue(t core.Table, column, delimiter string) (core.Table, error) {
	if err := requireColumn(t, column); err != nil {
		return t, err
	}
	if delimiter == "" {
		return t, ErrEmptyDelimiter
	}
	return t.FlatMap(func(r core.Record) []core.Record {
		var out []core.Record
		for _, part := range strings.Split(r[column], delimiter) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			row := maps.Clone(r)
			row[column] = part
			out = append(out, row)
		}
		if len(out) == 0 {
			r[column] = ""
			out = append(out, r)
		}
		return out
	}), nil
}

// FilterEq keeps rows whose column equals value exactly.
func FilterEq(t core.Table, column, value string) (core.Table, error) {
	if err := requireColumn(t, column); err != nil {
		return t, err
	}
	return t.Filter(func(r core.Record) bool { return r[column] == value }), nil
}

// FilterStatus keeps rows whose column matches status ignoring case and
// surrounding whitespace.
func FilterStatus(t core.Table, column, status string) (core.Table, error) {
	if err := requireColumn(t, column); err != nil {
		return t, err
	}
	want := strings.TrimSpace(status)
	return t.Filter(func(r core.Record) bool {
		return strings.EqualFold(strings.TrimSpace(r[column]), want)
	}), nil
}

// FilterDateAfter keeps rows whose dateColumn is strictly after asOf.
func FilterDateAfter(t core.Table, dateColumn string, asOf core.Date) (core.Table, error) {
	if err := requireColumn(t, dateColumn); err != nil {
		return t, err
	}
	return t.Filter(func(r core.Record) bool {
		d := core.CoerceDate(r[dateColumn])
		return !d.IsUnknown() && d.After(asOf.Time)
	}), nil
}

// Distinct returns the non-empty values of column in order of first
// appearance.
func Distinct(t core.Table, column string) ([]string, error) {
	counts, err := CountBy(t, column)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(counts))
	for i, kc := range counts {
		out[i] = kc.Key
	}
	return out, nil
}

// FinancialYears lists the financial years present in dateColumn, newest
// first.
func FinancialYears(t core.Table, dateColumn string) ([]core.FinancialYear, error) {
	if err := requireColumn(t, dateColumn); err != nil {
		return nil, err
	}
	seen := make(map[core.FinancialYear]bool)
	var out []core.FinancialYear
	for i := 0; i < t.Len(); i++ {
		fy, ok := core.FinancialYearOf(t.Date(i, dateColumn))
		if !ok || seen[fy] {
			continue
		}
		seen[fy] = true
		out = append(out, fy)
	}
	slices.SortFunc(out, func(a, b core.FinancialYear) int { return cmp.Compare(b.Start, a.Start) })
	return out, nil
}

// CountByMonth counts rows per calendar month of dateColumn, oldest month
// first, labelled like "Jan 2025". Unknown dates are skipped.
func CountByMonth(t core.Table, dateColumn string) ([]core.KeyCount, error) {
	if err := requireColumn(t, dateColumn); err != nil {
		return nil, err
	}
	type month struct{ year, month int }
	counts := make(map[month]int)
	for i := 0; i < t.Len(); i++ {
		d := t.Date(i, dateColumn)
		if d.IsUnknown() {
			continue
		}
		counts[month{d.Year(), int(d.Month())}]++
	}

	keys := make([]month, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b month) int {
		if c := cmp.Compare(a.year, b.year); c != 0 {
			return c
		}
		return cmp.Compare(a.month, b.month)
	})

	out := make([]core.KeyCount, len(keys))
	for i, k := range keys {
		out[i] = core.KeyCount{
			Key:   core.NewDate(k.year, k.month, 1).MonthLabel(),
			Count: counts[k],
		}
	}
	return out, nil
}

// StackByDate counts rows per (date, key) pair for stacked bar charts,
// ordered by date then key. Rows with an unknown date or an empty key are
// skipped.
func StackByDate(t core.Table, dateColumn, keyColumn string) ([]core.StackCount, error) {
	if err := requireColumn(t, dateColumn); err != nil {
		return nil, err
	}
	if err := requireColumn(t, keyColumn); err != nil {
		return nil, err
	}
	type cell struct{ date, key string }
	counts := make(map[cell]int)
	for i := 0; i < t.Len(); i++ {
		d := t.Date(i, dateColumn)
		k := t.Value(i, keyColumn)
		if d.IsUnknown() || k == "" {
			continue
		}
		counts[cell{d.String(), k}]++
	}

	out := make([]core.StackCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, core.StackCount{Date: c.date, Key: c.key, Count: n})
	}
	slices.SortFunc(out, func(a, b core.StackCount) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out, nil
}

func requireColumn(t core.Table, column string) error {
	if !t.HasColumn(column) {
		return fmt.Errorf("%w: %q in %s", core.ErrUnknownColumn, column, t.Schema().Kind)
	}
	return nil
}
