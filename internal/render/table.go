package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/nestegg/internal/model"
)

var scheduleHeaders = []string{"Year", "Starting", "Contributions", "Growth", "Total"}

// ScheduleHeaders returns the column titles of the yearly schedule.
func ScheduleHeaders() []string {
	return append([]string(nil), scheduleHeaders...)
}

// ScheduleRows formats each point of the series as a table row.
func ScheduleRows(points []model.Point) [][]string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			strconv.Itoa(p.Year),
			FormatMoney(p.Starting),
			FormatMoney(p.Contributions),
			FormatMoney(p.Growth),
			FormatMoney(p.Total),
		})
	}
	return rows
}

// FormatSchedule returns the aligned lines of the yearly schedule.
func FormatSchedule(points []model.Point) []string {
	return formatTable(scheduleHeaders, ScheduleRows(points), map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true})
}

// RenderSchedule writes the yearly schedule.
func RenderSchedule(w io.Writer, points []model.Point) error {
	if len(points) == 0 {
		_, err := fmt.Fprintln(w, "No schedule.")
		return err
	}
	for _, line := range FormatSchedule(points) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}

var historyHeaders = []string{"ID", "Recorded", "Mode", "Result"}

// HistoryRows formats recorded calculations, one row each. IDs are shortened
// to their first eight characters.
func HistoryRows(calcs []model.Calculation) [][]string {
	rows := make([][]string, 0, len(calcs))
	for _, c := range calcs {
		id := c.ID
		if len(id) > 8 {
			id = id[:8]
		}
		result := "No feasible solution"
		if c.Feasible {
			result = FormatValue(c.Mode.Output(), c.MainValue)
		}
		rows = append(rows, []string{
			id,
			c.CreatedAt.Local().Format("2006-01-02 15:04"),
			c.Mode.Title(),
			result,
		})
	}
	return rows
}

// RenderHistory writes the calculation history as a table.
func RenderHistory(w io.Writer, calcs []model.Calculation) error {
	if len(calcs) == 0 {
		_, err := fmt.Fprintln(w, "No calculations yet.")
		return err
	}
	for _, line := range formatTable(historyHeaders, HistoryRows(calcs), map[int]bool{3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
