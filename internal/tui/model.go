// Package tui provides the Bubble Tea calculator interface.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/nestegg/internal/calc"
	"github.com/verte-zerg/nestegg/internal/model"
	"github.com/verte-zerg/nestegg/internal/render"
	"github.com/verte-zerg/nestegg/internal/store"
)

const (
	tabChart = iota
	tabSchedule
)

const helpText = "tab/shift+tab: field  ctrl+n/ctrl+p: mode  ctrl+t: chart/schedule  pgup/pgdn: scroll  ctrl+r: reset  esc: quit"

const (
	labelWidth     = 22
	inputCharLimit = 24
	minBodyHeight  = 4
	chartChrome    = 3 // axis, year labels, legend
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	focusLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	solvedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	infeasibleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	tabStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	activeTabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Underline(true)
	cardStyle        = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// HistoryStore records finished calculations.
type HistoryStore interface {
	InsertCalculation(ctx context.Context, calc model.Calculation) (string, error)
}

// Options configures a Model.
type Options struct {
	// Initial is the form shown at start.
	Initial model.FormState
	// Defaults is what ctrl+r resets to.
	Defaults model.FormState
	State    store.StateStore
	History  HistoryStore
	StateTTL time.Duration
	Logger   *zap.Logger
}

// Model implements the Bubble Tea calculator UI.
type Model struct {
	opts   Options
	logger *zap.Logger

	mode   model.Mode
	inputs []textinput.Model
	focus  model.Field

	result    model.Result
	hasResult bool
	errMsg    string
	dirty     bool

	tabs      []string
	activeTab int
	chart     viewport.Model
	schedule  table.Model

	width  int
	height int
}

// NewModel constructs a calculator TUI model.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.State == nil {
		opts.State = store.NopState{}
	}
	m := &Model{
		opts:     opts,
		logger:   logger,
		tabs:     []string{"Chart", "Schedule"},
		chart:    viewport.New(0, 0),
		schedule: buildScheduleTable(),
	}
	m.initInputs()
	m.loadForm(opts.Initial)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.persist()
		return m, tea.Quit
	case "tab", "down", "enter":
		return m, m.moveFocus(1)
	case "shift+tab", "up":
		return m, m.moveFocus(-1)
	case "ctrl+n":
		return m, m.cycleMode(1)
	case "ctrl+p":
		return m, m.cycleMode(-1)
	case "ctrl+t":
		m.activeTab = (m.activeTab + 1) % len(m.tabs)
		return m, nil
	case "ctrl+r":
		m.loadForm(m.opts.Defaults)
		m.dirty = true
		return m, nil
	case "pgup", "pgdown":
		return m, m.scrollBody(msg)
	}
	if msg.Type == tea.KeySpace || (msg.Type == tea.KeyRunes && !numericRunes(msg.Runes)) {
		return m, nil
	}
	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.inputs[m.focus].Value() != before {
		m.dirty = true
		m.recompute()
	}
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	top := strings.Join([]string{
		m.renderModes(),
		m.renderForm(),
		m.renderCards(),
		m.renderTabs(),
	}, "\n")
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return top + "\n" + m.renderBody() + "\n" + footer
	}
	bodyHeight := m.bodyHeight()
	return strings.Join([]string{
		fitLines(top, m.width, lipgloss.Height(top)),
		fitLines(m.renderBody(), m.width, bodyHeight),
		fitLines(footer, m.width, lipgloss.Height(footer)),
	}, "\n")
}

func (m *Model) initInputs() {
	m.inputs = make([]textinput.Model, len(model.Fields))
	for _, f := range model.Fields {
		input := textinput.New()
		input.Prompt = ""
		input.CharLimit = inputCharLimit
		input.Placeholder = "0"
		m.inputs[f] = input
	}
}

// loadForm replaces mode and every input, then recomputes.
func (m *Model) loadForm(state model.FormState) {
	m.mode = state.Mode
	if m.mode == "" {
		m.mode = model.ModeFutureValue
	}
	for _, f := range model.Fields {
		if !m.setInput(f, state.Inputs.Get(f)) {
			m.inputs[f].SetValue("")
		}
	}
	m.focus = m.firstEditable()
	m.applyFocus()
	m.recompute()
}

// setInput writes v into the field unless it would be cut off by the
// character limit. It reports whether the value was written.
func (m *Model) setInput(f model.Field, v float64) bool {
	text := formatInput(v)
	if len(text) > m.inputs[f].CharLimit {
		return false
	}
	m.inputs[f].SetValue(text)
	return true
}

func (m *Model) firstEditable() model.Field {
	for _, f := range model.Fields {
		if f != m.mode.Output() {
			return f
		}
	}
	return model.FieldBalance
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	count := len(model.Fields)
	next := int(m.focus)
	for i := 0; i < count; i++ {
		next = (next + delta + count) % count
		if model.Field(next) != m.mode.Output() {
			break
		}
	}
	m.focus = model.Field(next)
	return m.applyFocus()
}

func (m *Model) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if model.Field(i) == m.focus {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// cycleMode switches the solved quantity. The field that was solved so far
// keeps its last feasible value so the user can edit from there.
func (m *Model) cycleMode(delta int) tea.Cmd {
	idx := 0
	for i, mode := range model.Modes {
		if mode == m.mode {
			idx = i
			break
		}
	}
	count := len(model.Modes)
	next := model.Modes[(idx+delta+count)%count]
	if m.hasResult && m.result.Feasible {
		prev := m.mode.Output()
		m.setInput(prev, m.result.Inputs.Get(prev))
	}
	m.mode = next
	m.dirty = true
	if m.focus == m.mode.Output() {
		m.focus = m.firstEditable()
	}
	cmd := m.applyFocus()
	m.recompute()
	return cmd
}

func (m *Model) scrollBody(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	if m.activeTab == tabSchedule {
		m.schedule, cmd = m.schedule.Update(msg)
		return cmd
	}
	m.chart, cmd = m.chart.Update(msg)
	return cmd
}

// formInputs parses every editable field.
func (m *Model) formInputs() (model.Inputs, error) {
	var in model.Inputs
	for _, f := range model.Fields {
		if f == m.mode.Output() {
			continue
		}
		v, err := parseNumber(m.inputs[f].Value())
		if err != nil {
			return model.Inputs{}, fmt.Errorf("%s: not a number", f.Label())
		}
		in = in.Set(f, v)
	}
	return in, nil
}

func (m *Model) recompute() {
	in, err := m.formInputs()
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	res, err := calc.Calculate(m.mode, in)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.result = res
	m.hasResult = true
	m.logger.Debug("recomputed",
		zap.String("mode", string(m.mode)),
		zap.Float64("main_value", res.MainValue),
		zap.Bool("feasible", res.Feasible))
	m.refreshBody()
}

func (m *Model) refreshBody() {
	if !m.hasResult {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	plotHeight := m.bodyHeight() - chartChrome
	if plotHeight < 2 {
		plotHeight = 2
	}
	var buf bytes.Buffer
	if err := render.PlotGrowthWithColor(&buf, "", m.result.Series, render.PlotWidthFor(width), plotHeight, true); err != nil {
		m.chart.SetContent(fmt.Sprintf("Failed to render chart: %v", err))
	} else {
		m.chart.SetContent(strings.TrimRight(buf.String(), "\n"))
	}
	rows := render.ScheduleRows(m.result.Series)
	tableRows := make([]table.Row, len(rows))
	for i, r := range rows {
		tableRows[i] = table.Row(r)
	}
	m.schedule.SetRows(tableRows)
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	h := m.bodyHeight()
	m.chart.Width = m.width
	m.chart.Height = h
	m.schedule.SetWidth(m.width)
	m.schedule.SetHeight(maxInt(1, h-1))
	m.refreshBody()
}

func (m *Model) bodyHeight() int {
	if m.height <= 0 {
		return 16
	}
	top := lipgloss.Height(m.renderModes()) +
		len(model.Fields) +
		lipgloss.Height(m.renderCards()) +
		1 // tabs
	h := m.height - top - lipgloss.Height(m.renderFooter())
	if h < minBodyHeight {
		h = minBodyHeight
	}
	return h
}

// persist saves the form and records the calculation on exit.
func (m *Model) persist() {
	ctx := context.Background()
	in, err := m.formInputs()
	if err != nil {
		m.logger.Warn("not saving unparsable form", zap.Error(err))
		return
	}
	state := model.FormState{Mode: m.mode, Inputs: in.Set(m.mode.Output(), m.outputValue())}
	if err := m.opts.State.SaveFormState(ctx, state, m.opts.StateTTL); err != nil {
		m.logger.Error("failed to save form state", zap.Error(err))
	}
	if !m.dirty || !m.hasResult || m.opts.History == nil || m.errMsg != "" {
		return
	}
	id, err := m.opts.History.InsertCalculation(ctx, model.Calculation{
		Mode:      m.result.Mode,
		Inputs:    in,
		MainValue: m.result.MainValue,
		Feasible:  m.result.Feasible,
	})
	if err != nil {
		m.logger.Error("failed to record calculation", zap.Error(err))
		return
	}
	m.logger.Info("recorded calculation", zap.String("id", id), zap.String("mode", string(m.result.Mode)))
}

// outputValue is what the read-only field holds: the solved value when
// feasible, the last typed value otherwise.
func (m *Model) outputValue() float64 {
	if m.hasResult && m.result.Feasible && m.errMsg == "" {
		return m.result.MainValue
	}
	v, err := parseNumber(m.inputs[m.mode.Output()].Value())
	if err != nil {
		return 0
	}
	return v
}

func (m *Model) renderModes() string {
	parts := make([]string, 0, len(model.Modes))
	for _, mode := range model.Modes {
		if mode == m.mode {
			parts = append(parts, activeNavStyle.Render(mode.Title()))
		} else {
			parts = append(parts, inactiveNavStyle.Render(mode.Title()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderForm() string {
	lines := make([]string, 0, len(model.Fields))
	for _, f := range model.Fields {
		label := fmt.Sprintf("%-*s", labelWidth, f.Label())
		if f == m.mode.Output() {
			lines = append(lines, "  "+labelStyle.Render(label)+"= "+m.renderSolved())
			continue
		}
		marker := "  "
		style := labelStyle
		if f == m.focus {
			marker = "▸ "
			style = focusLabelStyle
		}
		lines = append(lines, marker+style.Render(label)+"│ "+m.inputs[f].View())
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSolved() string {
	if !m.hasResult {
		return labelStyle.Render("-")
	}
	if m.errMsg != "" {
		return labelStyle.Render("-")
	}
	text := render.Headline(m.result)
	if m.width > 0 {
		text = truncateLine(text, m.width-labelWidth-4)
	}
	if !m.result.Feasible {
		return infeasibleStyle.Render(text)
	}
	return solvedStyle.Render(text)
}

func (m *Model) renderCards() string {
	if !m.hasResult {
		return ""
	}
	rows := render.BreakdownRows(m.result)
	cards := make([]string, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, metricCard(row[0], row[1]))
	}
	if m.width > 0 && m.width < lipgloss.Width(lipgloss.JoinHorizontal(lipgloss.Top, cards...)) {
		return lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1]),
			lipgloss.JoinHorizontal(lipgloss.Top, cards[2], cards[3]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeTabStyle.Render(tab))
		} else {
			parts = append(parts, tabStyle.Render(tab))
		}
	}
	return strings.Join(parts, tabStyle.Render(" · "))
}

func (m *Model) renderBody() string {
	if !m.hasResult {
		return "Enter values to see the projection."
	}
	if m.activeTab == tabSchedule {
		return tableMutedStyle.Render(m.schedule.View())
	}
	return m.chart.View()
}

func (m *Model) renderFooter() string {
	help := footerStyle.Render(wrapWords(helpText, m.width))
	note := ""
	if m.errMsg != "" {
		note = m.errMsg
	} else if m.hasResult && !m.result.Feasible {
		note = m.result.Reason
	}
	if note == "" {
		return help
	}
	return errorStyle.Render(wrapWords(note, m.width)) + "\n" + help
}

func buildScheduleTable() table.Model {
	headers := render.ScheduleHeaders()
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		width := 16
		if i == 0 {
			width = 4
		}
		columns[i] = table.Column{Title: h, Width: width}
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(10),
	)
	t.SetStyles(scheduleTableStyles())
	t.Focus()
	return t
}

func scheduleTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func numericRunes(runes []rune) bool {
	if len(runes) == 0 {
		return false
	}
	for _, r := range runes {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == ',' || r == '_':
		default:
			return false
		}
	}
	return true
}

// parseNumber accepts plain numbers with optional grouping separators and
// currency or percent signs. Empty input is zero.
func parseNumber(s string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "_", "", " ", "", "$", "", "%", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, nil
	}
	return strconv.ParseFloat(cleaned, 64)
}

func formatInput(v float64) string {
	if v == 0 {
		return ""
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
