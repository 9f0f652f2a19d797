package metadata

import (
	"slices"
	"strings"
)

var ConcentrationUnits = []string{"mg/mL", "µg/mL"}

var PrimaryOptions = []string{"Primary", "Secondary"}

var RaisedInOptions = []string{"Rabbit", "Mouse"}

var SpeciesOptions = []string{
	"Ape",
	"Chicken",
	"Dog",
	"Goat",
	"Guinea Pig",
	"Hamster",
	"Human",
	"Mink",
	"Monkey",
	"Mouse",
	"Rabbit",
	"Rat",
	"Sheep",
	"Zebrafish",
}

// columns that describe the entry itself and never become extra fields
var reservedColumns = map[string]struct{}{
	ColumnName:      {},
	ColumnMaintext:  {},
	ColumnElabftwId: {},
	ColumnId:        {},
}

// lower-cased column names that have a dedicated rule
var ruleColumns = []string{
	"url",
	"price",
	"concentration",
	"primary vs secondary",
	"raised in",
	"recognizes",
}

func IsReserved(column string) bool {
	_, ok := reservedColumns[column]
	return ok
}

// MapRow builds the metadata document for a row. it never fails, columns
// it cannot map are left out.
func MapRow(row Row) Document {
	fields := Fields{}
	for _, col := range row {
		if IsReserved(col.Name) {
			continue
		}
		field, ok := MapColumn(col.Name, col.Value)
		if !ok {
			continue
		}
		fields = fields.set(col.Name, field)
	}
	return Document{ExtraFields: fields}
}

// MapColumn maps one column, the rule is picked by the lower-cased name.
// ok is false when the column should be omitted. option and unit lists are
// copies, callers may modify them.
func MapColumn(name, value string) (Field, bool) {
	switch strings.ToLower(name) {
	case "url":
		return Field{Value: Text(value), Type: TypeUrl}, true
	case "price":
		return Field{Value: Text(value), Type: TypeNumber}, true
	case "concentration":
		if value == "" {
			break
		}
		parts := strings.Fields(value)
		if len(parts) < 2 {
			return Field{}, false
		}
		return Field{
			Value: Text(parts[0]),
			Type:  TypeNumber,
			Unit:  parts[1],
			Units: slices.Clone(ConcentrationUnits),
		}, true
	case "primary vs secondary":
		// the column value is ignored
		return Field{
			Value:   Text("Primary"),
			Type:    TypeSelect,
			Options: slices.Clone(PrimaryOptions),
		}, true
	case "raised in":
		return Field{
			Value:   Text(value),
			Type:    TypeSelect,
			Options: slices.Clone(RaisedInOptions),
		}, true
	case "recognizes":
		return Field{
			Value:            List(strings.Split(value, ", ")...),
			Type:             TypeSelect,
			AllowMultiValues: true,
			Options:          slices.Clone(SpeciesOptions),
		}, true
	}
	return Field{Value: Text(value), Type: TypeText}, true
}

// Body appends the row's Maintext to an existing body as a new paragraph.
// it only ever appends, running it twice with the same row yields the
// paragraph twice.
func Body(row Row, existing string) string {
	text := strings.TrimSpace(row.Value(ColumnMaintext))
	if text == "" {
		return existing
	}
	return existing + "<p>" + text + "</p>"
}

// Map is MapRow and Body in one call.
func Map(row Row, existingBody string) (Document, string) {
	return MapRow(row), Body(row, existingBody)
}
