package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical on-disk representation of a date-bearing field.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date. The zero value is the unknown-date marker.
	Date struct {
		time.Time
	}

	// FinancialYear is an April-to-March year identified by the calendar
	// year it starts in.
	FinancialYear struct {
		Start int
	}
)

var (
	ErrMissingFile     = errors.New("missing file")
	ErrParseFailure    = errors.New("parse failure")
	ErrSchemaMismatch  = errors.New("schema mismatch")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrConflict        = errors.New("conflict")
	ErrIO              = errors.New("io error")
	ErrUnknownKind     = errors.New("unknown record kind")
	ErrMissingField    = errors.New("missing required field")
)

// UnknownDate is substituted for any date field that fails to parse.
var UnknownDate = Date{}

// Accepted input layouts, tried in order. Numeric dash/slash/dot forms are
// day-first, matching what the data-entry forms ask users to type.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-1-2",
	"2006/1/2",
	"2-1-2006",
	"2/1/2006",
	"2.1.2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock and zone of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses free-form date text. Empty input yields UnknownDate
// without an error; anything else that matches no layout wraps
// ErrParseFailure.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownDate, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return UnknownDate, fmt.Errorf("%w: date %q", ErrParseFailure, s)
}

// CoerceDate is the tolerant parser: it never fails.
func CoerceDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		return UnknownDate
	}
	return d
}

// IsUnknown reports whether d is the unknown-date marker.
func (d Date) IsUnknown() bool {
	return d.IsZero()
}

// String returns the canonical YYYY-MM-DD form, or "" for an unknown date.
func (d Date) String() string {
	if d.IsUnknown() {
		return ""
	}
	return d.Format(DateLayout)
}

// Compact returns YYYYMMDD, used in certificate file names.
func (d Date) Compact() string {
	if d.IsUnknown() {
		return ""
	}
	return d.Format("20060102")
}

// MonthLabel returns labels like "Jan 2025".
func (d Date) MonthLabel() string {
	if d.IsUnknown() {
		return ""
	}
	return d.Format("Jan 2006")
}

// DaysFrom returns the whole calendar days from asOf to d (negative when d
// is earlier).
func (d Date) DaysFrom(asOf Date) int {
	return int(d.Sub(asOf.Time).Hours() / 24)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText never fails; unparseable text becomes UnknownDate.
func (d *Date) UnmarshalText(b []byte) error {
	*d = CoerceDate(string(b))
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsUnknown() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = UnknownDate
		return nil
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return fmt.Errorf("%w: date %s", ErrParseFailure, s)
	}
	*d = CoerceDate(unquoted)
	return nil
}

// FinancialYearOf derives the FY bucket of d. The second result is false for
// an unknown date.
func FinancialYearOf(d Date) (FinancialYear, bool) {
	if d.IsUnknown() {
		return FinancialYear{}, false
	}
	y := d.Year()
	if d.Month() < time.April {
		y--
	}
	return FinancialYear{Start: y}, true
}

// ParseFinancialYear accepts "2023-2024".
func ParseFinancialYear(s string) (FinancialYear, error) {
	first, second, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return FinancialYear{}, fmt.Errorf("%w: financial year %q", ErrParseFailure, s)
	}
	start, err := strconv.Atoi(first)
	if err != nil {
		return FinancialYear{}, fmt.Errorf("%w: financial year %q", ErrParseFailure, s)
	}
	end, err := strconv.Atoi(second)
	if err != nil || end != start+1 {
		return FinancialYear{}, fmt.Errorf("%w: financial year %q", ErrParseFailure, s)
	}
	return FinancialYear{Start: start}, nil
}

func (fy FinancialYear) String() string {
	return fmt.Sprintf("%d-%d", fy.Start, fy.Start+1)
}
