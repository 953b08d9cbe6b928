// Package render draws entity collections as fixed-width text tables driven
// by a column schema. Formatting is type-driven; a misdeclared column type
// fails loudly with a visible marker instead of silently showing blank data.
package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// FieldType declares how a column's values are formatted.
type FieldType string

const (
	TypeString  FieldType = "String"
	TypeInteger FieldType = "Integer"
	TypeBoolean FieldType = "Boolean"
	TypeDate    FieldType = "Date"
)

// ErrorMarker is rendered per cell when a column declares an unknown type.
const ErrorMarker = "Error!"

// Column describes one table column: a header label, the row field it
// reads, a display width in runes, and the declared value type.
type Column struct {
	Label string
	Field string
	Width int
	Type  FieldType
}

// Row is one entity flattened for display.
type Row map[string]any

// ActionColumn is the optional leading column. Header carries the
// create/filter affordances, Caption the per-row edit/delete affordances.
// It is rendered only when supplied.
type ActionColumn struct {
	Header  string
	Width   int
	Caption func(Row) string
}

// Table renders a collection against a column schema.
type Table struct {
	Columns []Column
	Actions *ActionColumn
}

// Render writes a header row followed by one row per entity.
func (t Table) Render(w io.Writer, rows []Row) {
	var header []string
	if t.Actions != nil {
		header = append(header, pad(t.Actions.Header, t.Actions.Width))
	}
	for _, c := range t.Columns {
		header = append(header, pad(c.Label, c.Width))
	}
	line := strings.Join(header, " | ")
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, strings.Repeat("-", utf8.RuneCountInString(line)))

	for _, row := range rows {
		var cells []string
		if t.Actions != nil {
			cells = append(cells, pad(t.Actions.Caption(row), t.Actions.Width))
		}
		for _, c := range t.Columns {
			cells = append(cells, pad(FormatCell(c.Type, row[c.Field]), c.Width))
		}
		fmt.Fprintln(w, strings.Join(cells, " | "))
	}
}

// FormatCell renders one value according to the column's declared type.
func FormatCell(ft FieldType, v any) string {
	v = deref(v)
	switch ft {
	case TypeInteger:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	case TypeString:
		if !truthy(v) {
			return ""
		}
		return fmt.Sprintf("%v", v)
	case TypeBoolean:
		if truthy(v) {
			return "True"
		}
		return "False"
	case TypeDate:
		if !truthy(v) {
			return ""
		}
		s := fmt.Sprintf("%v", v)
		return FormatTimestamp(&s)
	default:
		return ErrorMarker
	}
}

func deref(v any) any {
	if p, ok := v.(*string); ok {
		if p == nil {
			return nil
		}
		return *p
	}
	return v
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

// pad fits s into width runes, truncating or space-padding on the right.
func pad(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}
