// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/quixsi/checkin/internal/model"
)

func TestGuestsCSV(t *testing.T) {
	guests := []*model.Guest{
		{
			ID:               uuid.MustParse("ca07d617-c87c-4ac3-affc-27a5e941b28f"),
			FirstName:        "John",
			LastName:         "Doe",
			Email:            "john@example.com",
			Type:             model.GuestTypeRegular,
			Response:         model.ResponseAccepted,
			AttendanceStatus: model.AttendanceAdmitted,
			SeatNumber:       "A1",
			Images:           []string{"a.png", "b.png"},
		},
		{
			ID:               uuid.MustParse("4e657dd1-2f75-48c7-ac87-1d3da0cc9b93"),
			FirstName:        "Jane",
			Type:             model.GuestTypeSponsor,
			Phone:            "+49 123",
			Response:         model.ResponsePending,
			AttendanceStatus: model.AttendanceNotAdmitted,
		},
	}

	var buf bytes.Buffer
	if err := GuestsCSV(context.Background(), &buf, guests); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header and 2 guests", len(records))
	}

	header := records[0]
	if !slices.Equal(header[:4], []string{"id", "first_name", "last_name", "email"}) {
		t.Errorf("leading columns = %v", header[:4])
	}
	col := func(name string) int {
		i := slices.Index(header, name)
		if i < 0 {
			t.Fatalf("column %q missing in %v", name, header)
		}
		return i
	}

	john, jane := records[1], records[2]
	if john[col("images.0")] != "a.png" || john[col("images.1")] != "b.png" {
		t.Errorf("images not flattened: %v", john)
	}
	if john[col("seat_number")] != "A1" || jane[col("seat_number")] != "" {
		t.Errorf("seat column wrong: %q %q", john[col("seat_number")], jane[col("seat_number")])
	}
	if jane[col("phone")] != "+49 123" || john[col("phone")] != "" {
		t.Errorf("phone column wrong")
	}
	if john[col("attendance_status")] != "admitted" {
		t.Errorf("attendance = %q", john[col("attendance_status")])
	}
}

func TestGuestsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := GuestsCSV(context.Background(), &buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\n" {
		t.Errorf("empty export = %q", buf.String())
	}
}
