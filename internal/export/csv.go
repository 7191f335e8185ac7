// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package export writes guest lists as CSV. Each guest document is flattened
// into dotted column names, so nested fields and lists get their own columns.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/jeremywohl/flatten/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/quixsi/checkin/internal/model"
)

var tracer = otel.GetTracerProvider().Tracer("github.com/quixsi/checkin/internal/export")

// leading columns in this order, the rest follows alphabetically
var leading = []string{"id", "first_name", "last_name", "email", "type", "response", "attendance_status", "seat_number"}

// GuestsCSV writes one header row and one row per guest.
func GuestsCSV(ctx context.Context, w io.Writer, guests []*model.Guest) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "GuestsCSV")
	defer span.End()

	rows := make([]map[string]interface{}, 0, len(guests))
	columns := map[string]struct{}{}
	for _, g := range guests {
		row, err := flattenGuest(g)
		if err != nil {
			span.RecordError(err)
			return err
		}
		for k := range row {
			columns[k] = struct{}{}
		}
		rows = append(rows, row)
	}
	header := orderColumns(columns)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			record[i] = cell(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func flattenGuest(g *model.Guest) (map[string]interface{}, error) {
	out, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	nested := map[string]interface{}{}
	if err := json.Unmarshal(out, &nested); err != nil {
		return nil, err
	}
	return flatten.Flatten(nested, "", flatten.DotStyle)
}

func orderColumns(columns map[string]struct{}) []string {
	header := make([]string, 0, len(columns))
	for _, col := range leading {
		if _, ok := columns[col]; ok {
			header = append(header, col)
			delete(columns, col)
		}
	}
	rest := make([]string, 0, len(columns))
	for col := range columns {
		rest = append(rest, col)
	}
	slices.Sort(rest)
	return append(header, rest...)
}

func cell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return fmt.Sprintf("%v", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	}
	return fmt.Sprint(v)
}
