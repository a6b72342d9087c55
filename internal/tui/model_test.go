package tui

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/nestegg/internal/model"
)

type fakeState struct {
	saved []model.FormState
	ttl   time.Duration
}

func (f *fakeState) SaveFormState(_ context.Context, state model.FormState, ttl time.Duration) error {
	f.saved = append(f.saved, state)
	f.ttl = ttl
	return nil
}

func (f *fakeState) LoadFormState(context.Context) (model.FormState, bool, error) {
	if len(f.saved) == 0 {
		return model.FormState{}, false, nil
	}
	return f.saved[len(f.saved)-1], true, nil
}

type fakeHistory struct {
	calcs []model.Calculation
}

func (f *fakeHistory) InsertCalculation(_ context.Context, calc model.Calculation) (string, error) {
	f.calcs = append(f.calcs, calc)
	return "id-1", nil
}

func baseForm() model.FormState {
	return model.FormState{
		Mode: model.ModeFutureValue,
		Inputs: model.Inputs{
			CurrentBalance:      10000,
			MonthlyContribution: 500,
			Years:               20,
			AnnualRatePercent:   7,
		},
	}
}

func newTestModel(initial model.FormState) (*Model, *fakeState, *fakeHistory) {
	state := &fakeState{}
	history := &fakeHistory{}
	m := NewModel(Options{
		Initial:  initial,
		Defaults: model.FormState{Mode: model.ModeFutureValue, Inputs: model.Inputs{Years: 10, AnnualRatePercent: 5}},
		State:    state,
		History:  history,
		StateTTL: time.Hour,
	})
	return m, state, history
}

func press(m *Model, msg tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func typeText(m *Model, text string) {
	for _, r := range text {
		press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewModelComputesInitialResult(t *testing.T) {
	m, _, _ := newTestModel(baseForm())
	if !m.hasResult || !m.result.Feasible {
		t.Fatalf("expected a feasible initial result, got %+v", m.result)
	}
	if m.focus != model.FieldBalance {
		t.Fatalf("expected focus on the first editable field, got %v", m.focus)
	}
	view := m.View()
	if !strings.Contains(view, "Future value") || !strings.Contains(view, "Final balance") {
		t.Fatalf("view missing headline or breakdown:\n%s", view)
	}
}

func TestTypingRecomputes(t *testing.T) {
	m, _, _ := newTestModel(model.FormState{
		Mode:   model.ModeFutureValue,
		Inputs: model.Inputs{MonthlyContribution: 100, Years: 10},
	})
	typeText(m, "1000")
	if got := m.inputs[model.FieldBalance].Value(); got != "1000" {
		t.Fatalf("expected typed balance, got %q", got)
	}
	if math.Abs(m.result.MainValue-13000) > 1e-9 {
		t.Fatalf("expected 13000, got %v", m.result.MainValue)
	}
	if !m.dirty {
		t.Fatalf("expected edits to mark the form dirty")
	}
}

func TestRejectsNonNumericKeys(t *testing.T) {
	m, _, _ := newTestModel(baseForm())
	before := m.inputs[model.FieldBalance].Value()
	typeText(m, "a")
	press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if got := m.inputs[model.FieldBalance].Value(); got != before {
		t.Fatalf("expected %q unchanged, got %q", before, got)
	}
	if m.dirty {
		t.Fatalf("rejected keys should not mark the form dirty")
	}
}

func TestFocusSkipsOutputField(t *testing.T) {
	m, _, _ := newTestModel(baseForm())
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != model.FieldMonthly {
		t.Fatalf("expected monthly, got %v", m.focus)
	}
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != model.FieldYears {
		t.Fatalf("expected target to be skipped, got %v", m.focus)
	}
	press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focus != model.FieldMonthly {
		t.Fatalf("expected monthly after shift+tab, got %v", m.focus)
	}
}

func TestCycleModeCarriesSolvedValue(t *testing.T) {
	m, _, _ := newTestModel(baseForm())
	fv := m.result.MainValue
	press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.mode != model.ModeContribution {
		t.Fatalf("expected contribution mode, got %s", m.mode)
	}
	if got := m.inputs[model.FieldTarget].Value(); got != formatInput(fv) {
		t.Fatalf("expected target %q, got %q", formatInput(fv), got)
	}
	if math.Abs(m.result.MainValue-500) > 0.01 {
		t.Fatalf("expected contribution near 500, got %v", m.result.MainValue)
	}
	press(m, tea.KeyMsg{Type: tea.KeyCtrlP})
	if m.mode != model.ModeFutureValue {
		t.Fatalf("expected future value mode, got %s", m.mode)
	}
}

func TestCycleModeMovesFocusOffOutput(t *testing.T) {
	m, _, _ := newTestModel(baseForm())
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.focus == model.FieldMonthly {
		t.Fatalf("focus stayed on the solved field")
	}
}

func TestQuitPersistsStateAndHistory(t *testing.T) {
	m, state, history := newTestModel(baseForm())
	typeText(m, "5")
	cmd := press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if len(state.saved) != 1 {
		t.Fatalf("expected one saved state, got %d", len(state.saved))
	}
	saved := state.saved[0]
	if saved.Mode != model.ModeFutureValue || saved.Inputs.CurrentBalance != 100005 {
		t.Fatalf("unexpected saved state: %+v", saved)
	}
	if saved.Inputs.TargetAmount != m.result.MainValue {
		t.Fatalf("expected solved target to be saved, got %v", saved.Inputs.TargetAmount)
	}
	if state.ttl != time.Hour {
		t.Fatalf("expected ttl to be passed through, got %v", state.ttl)
	}
	if len(history.calcs) != 1 || history.calcs[0].MainValue != m.result.MainValue {
		t.Fatalf("expected one recorded calculation, got %+v", history.calcs)
	}
}

func TestQuitWithoutChangesSkipsHistory(t *testing.T) {
	m, state, history := newTestModel(baseForm())
	press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if len(state.saved) != 1 {
		t.Fatalf("expected state to be saved, got %d", len(state.saved))
	}
	if len(history.calcs) != 0 {
		t.Fatalf("expected no history entry, got %d", len(history.calcs))
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	m, _, _ := newTestModel(baseForm())
	press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if got := m.inputs[model.FieldBalance].Value(); got != "" {
		t.Fatalf("expected empty balance, got %q", got)
	}
	if got := m.inputs[model.FieldYears].Value(); got != "10" {
		t.Fatalf("expected default years, got %q", got)
	}
	if m.result.MainValue != 0 {
		t.Fatalf("expected zero future value, got %v", m.result.MainValue)
	}
}

func TestOutOfRangeInputShowsError(t *testing.T) {
	m, _, history := newTestModel(baseForm())
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	typeText(m, "0")
	if !strings.Contains(m.errMsg, "<= 100") {
		t.Fatalf("expected range error, got %q", m.errMsg)
	}
	if !strings.Contains(m.renderFooter(), "<= 100") {
		t.Fatalf("expected footer to show the error")
	}
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if len(history.calcs) != 0 {
		t.Fatalf("invalid form should not be recorded")
	}
}

func TestInfeasibleShowsReason(t *testing.T) {
	m, _, _ := newTestModel(model.FormState{
		Mode:   model.ModeTime,
		Inputs: model.Inputs{TargetAmount: 1000, AnnualRatePercent: 5},
	})
	if m.result.Feasible {
		t.Fatalf("expected infeasible result")
	}
	if !strings.Contains(m.renderForm(), "No feasible solution") {
		t.Fatalf("expected form to flag the solved field")
	}
	if !strings.Contains(m.renderFooter(), m.result.Reason) {
		t.Fatalf("expected footer to carry the reason")
	}
}

func TestToggleTabs(t *testing.T) {
	m, _, _ := newTestModel(baseForm())
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if !strings.Contains(m.View(), "Legend:") {
		t.Fatalf("expected chart legend in the default tab")
	}
	press(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.activeTab != tabSchedule {
		t.Fatalf("expected schedule tab")
	}
	if !strings.Contains(m.View(), "Contributions") {
		t.Fatalf("expected schedule headers")
	}
	if got := len(m.schedule.Rows()); got != 21 {
		t.Fatalf("expected 21 schedule rows, got %d", got)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"1,000.50", 1000.5, false},
		{"$5", 5, false},
		{"7%", 7, false},
		{"1_000", 1000, false},
		{"1.2.3", 0, true},
	}
	for _, tc := range tests {
		got, err := parseNumber(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: expected %v, got %v (%v)", tc.in, tc.want, got, err)
		}
	}
}

func TestFormatInput(t *testing.T) {
	if got := formatInput(0); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := formatInput(1234.5); got != "1234.5" {
		t.Fatalf("expected 1234.5, got %q", got)
	}
	if got := formatInput(20); got != "20" {
		t.Fatalf("expected 20, got %q", got)
	}
}

func TestCycleModeCarriesLongValues(t *testing.T) {
	m, _, _ := newTestModel(model.FormState{
		Mode: model.ModeFutureValue,
		Inputs: model.Inputs{CurrentBalance: 1e12, Years: 100, AnnualRatePercent: 10},
	})
	fv := m.result.MainValue
	if len(formatInput(fv)) <= 16 {
		t.Fatalf("expected a value longer than 16 characters, got %q", formatInput(fv))
	}
	press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := m.inputs[model.FieldTarget].Value(); got != formatInput(fv) {
		t.Fatalf("expected target %q, got %q", formatInput(fv), got)
	}
}

func TestCycleModeSkipsValuesThatDoNotFit(t *testing.T) {
	m, _, _ := newTestModel(model.FormState{
		Mode:   model.ModeFutureValue,
		Inputs: model.Inputs{CurrentBalance: 1e12, Years: 100, AnnualRatePercent: 100},
	})
	if len(formatInput(m.result.MainValue)) <= inputCharLimit {
		t.Fatalf("expected an oversized value, got %q", formatInput(m.result.MainValue))
	}
	press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := m.inputs[model.FieldTarget].Value(); got != "" {
		t.Fatalf("expected target to be left alone, got %q", got)
	}
}
