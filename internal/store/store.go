// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/nestegg/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Fixed-width UTC timestamps keep lexical and chronological order equal.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a calculation id matches nothing.
var ErrNotFound = errors.New("calculation not found")

// StateStore persists the calculator form between runs.
type StateStore interface {
	// SaveFormState stores the form; ttl <= 0 keeps it forever.
	SaveFormState(ctx context.Context, state model.FormState, ttl time.Duration) error
	// LoadFormState returns the form unless it is missing or expired.
	LoadFormState(ctx context.Context) (model.FormState, bool, error)
}

// Store wraps SQLite access for form state and calculation history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ StateStore = (*Store)(nil)

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS form_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			mode TEXT NOT NULL,
			current_balance REAL NOT NULL,
			monthly_contribution REAL NOT NULL,
			target_amount REAL NOT NULL,
			years REAL NOT NULL,
			annual_rate_percent REAL NOT NULL,
			saved_at TEXT NOT NULL,
			expires_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS calculations (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			current_balance REAL NOT NULL,
			monthly_contribution REAL NOT NULL,
			target_amount REAL NOT NULL,
			years REAL NOT NULL,
			annual_rate_percent REAL NOT NULL,
			main_value REAL NOT NULL,
			feasible INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_calculations_created_at ON calculations(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveFormState replaces the stored form.
func (s *Store) SaveFormState(ctx context.Context, state model.FormState, ttl time.Duration) error {
	savedAt := state.SavedAt
	if savedAt.IsZero() {
		savedAt = s.now()
	}
	var expiresAt sql.NullString
	if ttl > 0 {
		expiresAt = sql.NullString{String: savedAt.Add(ttl).UTC().Format(timeLayout), Valid: true}
	}
	in := state.Inputs
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO form_state (id, mode, current_balance, monthly_contribution, target_amount, years, annual_rate_percent, saved_at, expires_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			mode = excluded.mode,
			current_balance = excluded.current_balance,
			monthly_contribution = excluded.monthly_contribution,
			target_amount = excluded.target_amount,
			years = excluded.years,
			annual_rate_percent = excluded.annual_rate_percent,
			saved_at = excluded.saved_at,
			expires_at = excluded.expires_at`,
		string(state.Mode),
		in.CurrentBalance,
		in.MonthlyContribution,
		in.TargetAmount,
		in.Years,
		in.AnnualRatePercent,
		savedAt.UTC().Format(timeLayout),
		expiresAt,
	)
	return err
}

// LoadFormState returns the stored form. Expired state, and state saved with
// a mode this version does not know, is deleted and reported as absent.
func (s *Store) LoadFormState(ctx context.Context) (model.FormState, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT mode, current_balance, monthly_contribution, target_amount, years, annual_rate_percent, saved_at, expires_at
		 FROM form_state WHERE id = 1`)
	var state model.FormState
	var mode, savedAt string
	var expiresAt sql.NullString
	in := &state.Inputs
	if err := row.Scan(&mode, &in.CurrentBalance, &in.MonthlyContribution, &in.TargetAmount, &in.Years, &in.AnnualRatePercent, &savedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.FormState{}, false, nil
		}
		return model.FormState{}, false, err
	}
	if expiresAt.Valid {
		expiry, err := time.Parse(timeLayout, expiresAt.String)
		if err != nil {
			return model.FormState{}, false, err
		}
		if !s.now().Before(expiry) {
			if err := s.ClearFormState(ctx); err != nil {
				return model.FormState{}, false, err
			}
			return model.FormState{}, false, nil
		}
	}
	parsed, err := time.Parse(timeLayout, savedAt)
	if err != nil {
		return model.FormState{}, false, err
	}
	state.Mode, err = model.ParseMode(mode)
	if err != nil {
		if err := s.ClearFormState(ctx); err != nil {
			return model.FormState{}, false, err
		}
		return model.FormState{}, false, nil
	}
	state.SavedAt = parsed
	return state, true, nil
}

// ClearFormState removes the stored form.
func (s *Store) ClearFormState(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM form_state WHERE id = 1`)
	return err
}

// InsertCalculation records a calculation and returns its id.
func (s *Store) InsertCalculation(ctx context.Context, calc model.Calculation) (string, error) {
	if calc.ID == "" {
		calc.ID = uuid.NewString()
	}
	if calc.CreatedAt.IsZero() {
		calc.CreatedAt = s.now()
	}
	feasible := 0
	if calc.Feasible {
		feasible = 1
	}
	in := calc.Inputs
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calculations (id, created_at, mode, current_balance, monthly_contribution, target_amount, years, annual_rate_percent, main_value, feasible)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		calc.ID,
		calc.CreatedAt.UTC().Format(timeLayout),
		string(calc.Mode),
		in.CurrentBalance,
		in.MonthlyContribution,
		in.TargetAmount,
		in.Years,
		in.AnnualRatePercent,
		calc.MainValue,
		feasible,
	)
	if err != nil {
		return "", err
	}
	return calc.ID, nil
}

// ListCalculations returns the most recent calculations, newest first.
// limit <= 0 returns all of them.
func (s *Store) ListCalculations(ctx context.Context, limit int) ([]model.Calculation, error) {
	query := `SELECT id, created_at, mode, current_balance, monthly_contribution, target_amount, years, annual_rate_percent, main_value, feasible
		FROM calculations
		ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Calculation
	for rows.Next() {
		calc, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, calc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetCalculation looks a calculation up by id or unique id prefix.
func (s *Store) GetCalculation(ctx context.Context, id string) (model.Calculation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Calculation{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, mode, current_balance, monthly_contribution, target_amount, years, annual_rate_percent, main_value, feasible
		 FROM calculations
		 WHERE id = ? OR id LIKE ? || '%'
		 ORDER BY created_at DESC
		 LIMIT 2`, id, stripLikeWildcards(id))
	if err != nil {
		return model.Calculation{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var matches []model.Calculation
	for rows.Next() {
		calc, err := scanCalculation(rows)
		if err != nil {
			return model.Calculation{}, err
		}
		if calc.ID == id {
			return calc, nil
		}
		matches = append(matches, calc)
	}
	if err := rows.Err(); err != nil {
		return model.Calculation{}, err
	}
	switch len(matches) {
	case 0:
		return model.Calculation{}, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return model.Calculation{}, fmt.Errorf("ambiguous calculation id %q", id)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCalculation(row rowScanner) (model.Calculation, error) {
	var calc model.Calculation
	var createdAt, mode string
	var feasible int
	in := &calc.Inputs
	if err := row.Scan(&calc.ID, &createdAt, &mode, &in.CurrentBalance, &in.MonthlyContribution, &in.TargetAmount, &in.Years, &in.AnnualRatePercent, &calc.MainValue, &feasible); err != nil {
		return model.Calculation{}, err
	}
	parsed, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return model.Calculation{}, err
	}
	calc.CreatedAt = parsed
	calc.Mode = model.Mode(mode)
	calc.Feasible = feasible != 0
	return calc, nil
}

func stripLikeWildcards(s string) string {
	r := strings.NewReplacer("%", "", "_", "")
	return r.Replace(s)
}
