package metadata

import (
	"strconv"
	"strings"
)

const (
	ColumnName      = "Name"
	ColumnMaintext  = "Maintext"
	ColumnElabftwId = "elabftw_id"
	ColumnId        = "ID"
)

type Column struct {
	Name  string
	Value string
}

// Row is one CSV record, columns are kept in header order.
type Row []Column

// NewRow pairs a header with a record. a repeated header name keeps its
// first position and takes the last value. missing values are empty.
func NewRow(header, record []string) Row {
	row := make(Row, 0, len(header))
	for i, name := range header {
		value := ""
		if i < len(record) {
			value = record[i]
		}

		replaced := false
		for j := range row {
			if row[j].Name == name {
				row[j].Value = value
				replaced = true
				break
			}
		}
		if !replaced {
			row = append(row, Column{Name: name, Value: value})
		}
	}
	return row
}

func (r Row) Get(name string) (string, bool) {
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Value is Get without the presence flag.
func (r Row) Value(name string) string {
	v, _ := r.Get(name)
	return v
}

// Title returns the "Name" column, ok is false if the row has none.
func (r Row) Title() (string, bool) {
	return r.Get(ColumnName)
}

// RawIdentity is the trimmed elabftw_id column, falling back to the ID
// column when elabftw_id is empty or absent.
func (r Row) RawIdentity() string {
	id := strings.TrimSpace(r.Value(ColumnElabftwId))
	if id == "" {
		id = strings.TrimSpace(r.Value(ColumnId))
	}
	return id
}

// Identity returns the id of an existing entry this row should update.
// ok is false when the row describes a new entry.
func (r Row) Identity() (id int64, ok bool) {
	raw := r.RawIdentity()
	if raw == "" {
		return 0, false
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
