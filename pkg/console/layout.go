package console

import (
	"fmt"
	"reflect"
	"strings"
)

// FormatFileSize renders a byte count in a compact human-readable form.
func FormatFileSize(size int64) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d B", size)
	}
}

// RenderStruct renders a slice of structs as an aligned text table.
// Columns are declared with struct tags:
//
//	Field string `console:"header:Name"`
//	Skip  any    `console:"-"`
//
// Untagged fields use the field name as header.
func RenderStruct(rows any) string {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice || v.Len() == 0 {
		return ""
	}
	elemType := v.Index(0).Type()
	if elemType.Kind() != reflect.Struct {
		return ""
	}

	var headers []string
	var fields []int
	for i := 0; i < elemType.NumField(); i++ {
		f := elemType.Field(i)
		tag := f.Tag.Get("console")
		if tag == "-" {
			continue
		}
		header := f.Name
		for _, part := range strings.Split(tag, ",") {
			if h, ok := strings.CutPrefix(part, "header:"); ok {
				header = h
			}
		}
		headers = append(headers, header)
		fields = append(fields, i)
	}

	cells := make([][]string, v.Len())
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for r := 0; r < v.Len(); r++ {
		row := make([]string, len(fields))
		for c, fi := range fields {
			row[c] = formatCell(v.Index(r).Field(fi))
			if len(row[c]) > widths[c] {
				widths[c] = len(row[c])
			}
		}
		cells[r] = row
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		for c, cell := range row {
			sb.WriteString(cell)
			if c < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", widths[c]-len(cell)+2))
			}
		}
		sb.WriteString("\n")
	}
	writeRow(headers)
	for _, row := range cells {
		writeRow(row)
	}
	return sb.String()
}

func formatCell(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.String {
			parts := make([]string, v.Len())
			for i := 0; i < v.Len(); i++ {
				parts[i] = v.Index(i).String()
			}
			return strings.Join(parts, ", ")
		}
	case reflect.Interface:
		if v.IsNil() {
			return ""
		}
	}
	return fmt.Sprint(v.Interface())
}
