package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// wrapWords breaks plain text on spaces so no line exceeds width cells.
// Words wider than the line are split.
func wrapWords(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out strings.Builder
	lineWidth := 0
	for i, word := range strings.Fields(text) {
		w := runewidth.StringWidth(word)
		if i > 0 {
			if lineWidth+1+w > width {
				out.WriteRune('\n')
				lineWidth = 0
			} else {
				out.WriteRune(' ')
				lineWidth++
			}
		}
		for lineWidth == 0 && w > width {
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				// A wide rune never fits; emit it alone so the loop advances.
				head = string([]rune(word)[:1])
			}
			word = strings.TrimPrefix(word, head)
			w = runewidth.StringWidth(word)
			if word == "" {
				word = head
				w = runewidth.StringWidth(head)
				break
			}
			out.WriteString(head)
			out.WriteRune('\n')
		}
		out.WriteString(word)
		lineWidth += w
	}
	return out.String()
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

// fitLines pads every line to width and clips or fills to height.
func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
