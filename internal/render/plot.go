// Package render formats calculation results as text: stacked growth charts,
// yearly schedules and summaries.
package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/nestegg/internal/model"
)

// Layer is one band of a stacked chart.
type Layer struct {
	Name   string
	Values []float64
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 12
	minPlotWidth        = 10
	axisLabelWidth      = 8
	axisSeparator       = " ┤"
	axisCorner          = " └"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// Full-cell glyphs per layer when colour is off.
var layerGlyphs = []rune{'█', '▓', '░'}

// Partial blocks from 1/8 to 8/8 of a cell.
var partialBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

var colorPalette = []ansiColor{
	{name: "blue", code: "\x1b[34m"},
	{name: "cyan", code: "\x1b[36m"},
	{name: "green", code: "\x1b[32m"},
	{name: "magenta", code: "\x1b[35m"},
	{name: "yellow", code: "\x1b[33m"},
}

// GrowthLayers splits a series into starting, contributions and growth bands.
func GrowthLayers(points []model.Point) []Layer {
	layers := []Layer{
		{Name: "Starting", Values: make([]float64, len(points))},
		{Name: "Contributions", Values: make([]float64, len(points))},
		{Name: "Growth", Values: make([]float64, len(points))},
	}
	for i, p := range points {
		layers[0].Values[i] = p.Starting
		layers[1].Values[i] = p.Contributions
		layers[2].Values[i] = p.Growth
	}
	return layers
}

// PlotGrowth renders a stacked growth chart for the series.
func PlotGrowth(w io.Writer, title string, points []model.Point, width, height int) error {
	return PlotGrowthWithColor(w, title, points, width, height, false)
}

// PlotGrowthWithColor renders a stacked growth chart with optional forced color output.
func PlotGrowthWithColor(w io.Writer, title string, points []model.Point, width, height int, forceColor bool) error {
	if len(points) == 0 {
		return nil
	}
	last := points[len(points)-1].Year
	return plotStacked(w, title, GrowthLayers(points), last, width, height, forceColor)
}

// PlotStacked renders stacked layers as a filled area chart. lastYear labels
// the right end of the x axis.
func PlotStacked(w io.Writer, title string, layers []Layer, lastYear, width, height int, forceColor bool) error {
	return plotStacked(w, title, layers, lastYear, width, height, forceColor)
}

func plotStacked(w io.Writer, title string, layers []Layer, lastYear, width, height int, forceColor bool) error {
	layers = filterLayers(layers)
	if len(layers) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	scaled := make([][]float64, len(layers))
	for i, l := range layers {
		scaled[i] = resampleSeries(clampNonNegative(l.Values), width)
	}
	maxTotal := 0.0
	for x := 0; x < width; x++ {
		if t := columnTotal(scaled, x); t > maxTotal {
			maxTotal = t
		}
	}
	if maxTotal <= 0 {
		maxTotal = 1
	}

	useColor := shouldUseColor(w, forceColor)
	axisLabels := makeAxisLabels(height, maxTotal)
	step := maxTotal / float64(height)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		level := height - 1 - y
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, axisLabels[y], axisSeparator))
		for x := 0; x < width; x++ {
			ch, layerIdx := stackedCell(scaled, x, level, step)
			if useColor && layerIdx >= 0 {
				row.WriteString(colorPalette[layerIdx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%*s%s%s\n", axisLabelWidth, "", axisCorner, strings.Repeat("─", width)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, xAxisLabels(lastYear, width)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, renderLegend(layers, useColor)); err != nil {
		return err
	}
	return nil
}

// stackedCell picks the glyph for the cell at column x and row level
// (0 = bottom). It returns -1 as the layer index for empty cells.
func stackedCell(scaled [][]float64, x, level int, step float64) (rune, int) {
	lo := float64(level) * step
	hi := lo + step
	mid := (lo + hi) / 2
	total := columnTotal(scaled, x)
	if total <= lo {
		return ' ', -1
	}
	if total < hi {
		// Top edge of the stack falls inside this cell.
		frac := (total - lo) / step
		idx := int(math.Round(frac*float64(len(partialBlocks)))) - 1
		if idx < 0 {
			return ' ', -1
		}
		if idx >= len(partialBlocks) {
			idx = len(partialBlocks) - 1
		}
		layer := layerAt(scaled, x, lo+(total-lo)/2)
		return partialBlocks[idx], layer
	}
	layer := layerAt(scaled, x, mid)
	return layerGlyphs[layer%len(layerGlyphs)], layer
}

// layerAt returns the layer whose band contains height v in column x.
func layerAt(scaled [][]float64, x int, v float64) int {
	var cum float64
	for i := range scaled {
		cum += valueAt(scaled[i], x)
		if v < cum {
			return i
		}
	}
	return len(scaled) - 1
}

func columnTotal(scaled [][]float64, x int) float64 {
	var total float64
	for i := range scaled {
		total += valueAt(scaled[i], x)
	}
	return total
}

func valueAt(values []float64, x int) float64 {
	if x < 0 || x >= len(values) {
		return 0
	}
	return values[x]
}

func filterLayers(layers []Layer) []Layer {
	out := make([]Layer, 0, len(layers))
	for _, l := range layers {
		if len(l.Values) == 0 {
			continue
		}
		out = append(out, l)
	}
	return out
}

func clampNonNegative(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v > 0 && !math.IsInf(v, 1) {
			out[i] = v
		}
	}
	return out
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := axisLabelWidth + displayWidth(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int, maxTotal float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = FormatMoneyShort(maxTotal)
	if height > 2 {
		// Row height/2 from the top sits at this share of the maximum.
		share := float64(height-height/2) / float64(height)
		labels[height/2] = FormatMoneyShort(maxTotal * share)
	}
	if height > 1 {
		labels[height-1] = FormatMoneyShort(0)
	}
	return labels
}

func xAxisLabels(lastYear, width int) string {
	left := "Year 0"
	right := fmt.Sprintf("Year %d", lastYear)
	pad := width - displayWidth(left) - displayWidth(right)
	if pad < 1 {
		pad = 1
	}
	return fmt.Sprintf("%*s  %s%s%s", axisLabelWidth, "", left, strings.Repeat(" ", pad), right)
}

func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) == width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	if len(values) > width {
		// Series are cumulative, so each column shows the end of its bucket.
		for i := 0; i < width; i++ {
			end := int(float64(i+1) * float64(len(values)) / float64(width))
			if end < 1 {
				end = 1
			}
			if end > len(values) {
				end = len(values)
			}
			out[i] = values[end-1]
		}
		return out
	}
	if width == 1 {
		out[0] = values[0]
		return out
	}
	if len(values) == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	for i := 0; i < width; i++ {
		pos := float64(i) * float64(len(values)-1) / float64(width-1)
		idx := int(math.Floor(pos))
		if idx >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx]*(1-frac) + values[idx+1]*frac
	}
	return out
}

func renderLegend(layers []Layer, useColor bool) string {
	parts := make([]string, 0, len(layers))
	for i, l := range layers {
		label := fmt.Sprintf("%c %s", layerGlyphs[i%len(layerGlyphs)], l.Name)
		if useColor {
			color := colorPalette[i%len(colorPalette)].code
			label = color + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}
