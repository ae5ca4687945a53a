package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// rosterColumns are the header names a roster sheet may use, by profile field
var rosterColumns = map[string]string{
	"user id":     "user_id",
	"user_id":     "user_id",
	"resident id": "user_id",
	"name":        "name",
	"room":        "room_number",
	"room number": "room_number",
	"room_number": "room_number",
	"block":       "block",
	"timezone":    "timezone",
}

// RowError describes a roster row that could not be read
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// ReadRoster reads resident profiles from the first sheet of an xlsx roster.
// The first row holds the headers; user id and room are required. Rows that
// miss them are skipped and reported.
func ReadRoster(r io.Reader) ([]*entity.ResidentProfile, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("roster has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read roster rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("roster is empty")
	}

	index := make(map[string]int)
	for i, h := range rows[0] {
		if field, ok := rosterColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			index[field] = i
		}
	}
	for _, required := range []string{"user_id", "room_number"} {
		if _, ok := index[required]; !ok {
			return nil, nil, fmt.Errorf("roster header is missing a %s column", required)
		}
	}

	cell := func(row []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		profiles []*entity.ResidentProfile
		skipped  []RowError
		seen     = make(map[string]int)
	)
	for n, row := range rows[1:] {
		line := n + 2
		p := &entity.ResidentProfile{
			UserID:     cell(row, "user_id"),
			Name:       cell(row, "name"),
			RoomNumber: cell(row, "room_number"),
			Block:      cell(row, "block"),
			Timezone:   cell(row, "timezone"),
		}
		switch {
		case p.UserID == "" && p.RoomNumber == "":
			continue
		case p.UserID == "":
			skipped = append(skipped, RowError{Row: line, Reason: "missing user id"})
			continue
		case p.RoomNumber == "":
			skipped = append(skipped, RowError{Row: line, Reason: "missing room"})
			continue
		}
		if first, dup := seen[p.UserID]; dup {
			skipped = append(skipped, RowError{Row: line, Reason: fmt.Sprintf("duplicate of row %d", first)})
			continue
		}
		seen[p.UserID] = line
		profiles = append(profiles, p)
	}

	return profiles, skipped, nil
}
