package records

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"logbook/internal/core"
)

// Decode projects every row of t onto a value of T using the csv tags of T.
// Date fields decode tolerantly; columns without a matching tag are ignored.
func Decode[T any](t core.Table) ([]T, error) {
	if t.Len() == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := writeTable(&buf, t); err != nil {
		return nil, err
	}

	dec, err := csvutil.NewDecoder(csv.NewReader(&buf))
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder for %s: %w", t.Schema().Kind, err)
	}

	var out []T
	if err := dec.Decode(&out); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode %s rows: %w", t.Schema().Kind, err)
	}
	return out, nil
}

// Encode builds a table of kind k from typed values.
func Encode[T any](k Kind, items []T) (core.Table, error) {
	schema, err := SchemaFor(k)
	if err != nil {
		return core.Table{}, err
	}
	tbl := core.NewTable(schema)
	if len(items) == 0 {
		return tbl, nil
	}

	data, err := csvutil.Marshal(items)
	if err != nil {
		return core.Table{}, fmt.Errorf("failed to encode %s rows: %w", k, err)
	}
	recs, err := readRecords(data)
	if err != nil {
		return core.Table{}, err
	}
	return tbl.Replace(recs)
}

// EncodeOne converts a single typed value into a record of kind k, ready to
// be appended.
func EncodeOne[T any](k Kind, item T) (core.Record, error) {
	tbl, err := Encode(k, []T{item})
	if err != nil {
		return nil, err
	}
	return tbl.Row(0), nil
}

func writeTable(w io.Writer, t core.Table) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()
	if err := cw.Write(cols); err != nil {
		return err
	}
	line := make([]string, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, c := range cols {
			line[j] = t.Value(i, c)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readRecords(data []byte) ([]core.Record, error) {
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	recs := make([]core.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(core.Record, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
