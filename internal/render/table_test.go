package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/nestegg/internal/model"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Label", "Value"}
	rows := [][]string{
		{"Balance", "$1,000.00"},
		{"Growth", "$50.00"},
	}
	lines := formatTable(headers, rows, map[int]bool{1: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Label        Value" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Balance  $1,000.00" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Growth      $50.00" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"A", "B"}, [][]string{{"円", "1"}, {"x", "2"}}, nil)
	if lines[1] != "円  1" {
		t.Fatalf("expected wide rune to count as two columns: %q", lines[1])
	}
	if lines[2] != "x   2" {
		t.Fatalf("unexpected padding: %q", lines[2])
	}
}

func TestRenderSchedule(t *testing.T) {
	var buf bytes.Buffer
	points := []model.Point{
		{Year: 0, Starting: 1000, Total: 1000},
		{Year: 1, Starting: 1000, Contributions: 1200, Growth: 45.5, Total: 2245.5},
	}
	if err := RenderSchedule(&buf, points); err != nil {
		t.Fatalf("RenderSchedule failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "Contributions") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasSuffix(lines[2], "$2,245.50") {
		t.Fatalf("unexpected last row: %q", lines[2])
	}
}

func TestRenderScheduleEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSchedule(&buf, nil); err != nil {
		t.Fatalf("RenderSchedule failed: %v", err)
	}
	if buf.String() != "No schedule.\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestHistoryRows(t *testing.T) {
	calcs := []model.Calculation{
		{
			ID:        "0123456789abcdef",
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local),
			Mode:      model.ModeRate,
			MainValue: 6.5,
			Feasible:  true,
		},
		{ID: "short", Mode: model.ModeTime},
	}
	rows := HistoryRows(calcs)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "01234567" || rows[0][1] != "2026-03-01 12:00" || rows[0][3] != "6.50%" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[1][0] != "short" || rows[1][3] != "No feasible solution" {
		t.Fatalf("unexpected second row: %v", rows[1])
	}
}

func TestRenderHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHistory(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No calculations yet." {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
