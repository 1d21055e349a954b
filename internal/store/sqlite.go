package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "options-income/internal/errors"
	"options-income/internal/models"
	"options-income/pkg/utils"
)

// dateLayout stores calendar dates so they compare as text.
const dateLayout = "2006-01-02"

// SQLiteStore implements RunStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Settings snapshots keyed by content hash
	CREATE TABLE IF NOT EXISTS settings_versions (
		id TEXT PRIMARY KEY,
		settings TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- One row per recompute run
	CREATE TABLE IF NOT EXISTS recompute_runs (
		id TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL,
		settings_version_id TEXT NOT NULL,
		risk_profile TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		symbols_requested INTEGER NOT NULL DEFAULT 0,
		symbols_analyzed INTEGER NOT NULL DEFAULT 0,
		candidates_generated INTEGER NOT NULL DEFAULT 0,
		packet_count INTEGER NOT NULL DEFAULT 0,
		regime TEXT,
		stats TEXT,
		started_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	-- Ranked packets of completed runs
	CREATE TABLE IF NOT EXISTS trade_packets (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		strategy TEXT NOT NULL,
		score INTEGER NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (run_id) REFERENCES recompute_runs(id)
	);

	-- Known earnings dates
	CREATE TABLE IF NOT EXISTS earnings_events (
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		PRIMARY KEY (symbol, date)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_workspace ON recompute_runs(workspace_id, started_at);
	CREATE INDEX IF NOT EXISTS idx_packets_run ON trade_packets(run_id, rank);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Settings Methods
// ============================================================================

// SaveSettingsVersion stores settings as JSON under id. Saving an existing
// id is a no-op.
func (s *SQLiteStore) SaveSettingsVersion(ctx context.Context, id string, settings interface{}) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO settings_versions (id, settings, created_at)
		VALUES (?, ?, ?)
	`, id, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save settings version: %w", err)
	}
	return nil
}

// GetSettingsVersion returns the stored settings JSON.
func (s *SQLiteStore) GetSettingsVersion(ctx context.Context, id string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT settings FROM settings_versions WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("settings version %s: %w", id, apperrors.ErrValidationFailed)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings version: %w", err)
	}
	return []byte(data), nil
}

// ============================================================================
// Run Methods
// ============================================================================

// CreateRun inserts a pending run.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.RunRecord) error {
	status := run.Status
	if status == "" {
		status = models.RunPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recompute_runs (id, workspace_id, settings_version_id, risk_profile, status, symbols_requested, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.WorkspaceID, run.SettingsVersionID, string(run.RiskProfile), string(status), run.SymbolsRequested, run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun marks the run completed and stores its packets in one transaction.
func (s *SQLiteStore) CompleteRun(ctx context.Context, result *models.RunResult) error {
	regime, err := json.Marshal(result.Regime)
	if err != nil {
		return fmt.Errorf("failed to encode regime: %w", err)
	}
	stats, err := json.Marshal(result.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE recompute_runs
		SET status = ?, symbols_analyzed = ?, candidates_generated = ?, packet_count = ?, regime = ?, stats = ?, completed_at = ?
		WHERE id = ?
	`, string(models.RunCompleted), result.SymbolsAnalyzed, result.CandidatesGenerated, len(result.Packets),
		string(regime), string(stats), result.CompletedAt.UTC(), result.RunID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", result.RunID, apperrors.ErrRunNotFound)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trade_packets (id, run_id, rank, symbol, strategy, score, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range result.Packets {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode packet %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, result.RunID, p.Rank, p.Symbol(), string(p.Strategy()), p.Score(), string(payload), p.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert packet: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FailRun marks the run failed with reason. No packets are stored.
func (s *SQLiteStore) FailRun(ctx context.Context, runID, reason string, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recompute_runs SET status = ?, error = ?, completed_at = ? WHERE id = ?
	`, string(models.RunFailed), reason, completedAt.UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, apperrors.ErrRunNotFound)
	}
	return nil
}

const runColumns = `id, workspace_id, settings_version_id, risk_profile, status, error,
	symbols_requested, symbols_analyzed, candidates_generated, packet_count, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var (
		r           models.RunRecord
		profile     string
		status      string
		completedAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.WorkspaceID, &r.SettingsVersionID, &profile, &status, &r.Error,
		&r.SymbolsRequested, &r.SymbolsAnalyzed, &r.CandidatesGenerated, &r.PacketCount,
		&r.StartedAt, &completedAt); err != nil {
		return nil, err
	}
	r.RiskProfile = models.RiskProfile(profile)
	r.Status = models.RunStatus(status)
	if completedAt.Valid {
		r.CompletedAt = completedAt.Time
	}
	return &r, nil
}

// GetRun returns the run summary.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*models.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM recompute_runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", runID, apperrors.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// GetRunResult rebuilds a run's result with regime, stats and packets.
func (s *SQLiteStore) GetRunResult(ctx context.Context, runID string) (*models.RunResult, error) {
	rec, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	var regimeJSON, statsJSON sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT regime, stats FROM recompute_runs WHERE id = ?`, runID).
		Scan(&regimeJSON, &statsJSON); err != nil {
		return nil, fmt.Errorf("failed to get run payload: %w", err)
	}

	result := &models.RunResult{
		RunID:               rec.ID,
		Status:              rec.Status,
		SymbolsRequested:    rec.SymbolsRequested,
		SymbolsAnalyzed:     rec.SymbolsAnalyzed,
		CandidatesGenerated: rec.CandidatesGenerated,
		StartedAt:           rec.StartedAt,
		CompletedAt:         rec.CompletedAt,
	}
	if regimeJSON.Valid && regimeJSON.String != "null" {
		var regime models.MarketRegime
		if err := json.Unmarshal([]byte(regimeJSON.String), &regime); err != nil {
			return nil, fmt.Errorf("failed to decode regime: %w", err)
		}
		result.Regime = &regime
	}
	if statsJSON.Valid {
		if err := json.Unmarshal([]byte(statsJSON.String), &result.Stats); err != nil {
			return nil, fmt.Errorf("failed to decode stats: %w", err)
		}
	}

	result.Packets, err = s.GetPackets(ctx, runID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM recompute_runs WHERE 1=1`
	args := []interface{}{}

	if filter.WorkspaceID != "" {
		query += " AND workspace_id = ?"
		args = append(args, filter.WorkspaceID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	query += " ORDER BY started_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}

	return runs, rows.Err()
}

// GetPackets returns a run's packets in rank order.
func (s *SQLiteStore) GetPackets(ctx context.Context, runID string) ([]models.TradePacket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM trade_packets WHERE run_id = ? ORDER BY rank ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query packets: %w", err)
	}
	defer rows.Close()

	packets := []models.TradePacket{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan packet: %w", err)
		}
		var p models.TradePacket
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("failed to decode packet: %w", err)
		}
		packets = append(packets, p)
	}

	return packets, rows.Err()
}

// ============================================================================
// Earnings Methods
// ============================================================================

// SaveEarnings upserts earnings dates.
func (s *SQLiteStore) SaveEarnings(ctx context.Context, events []models.EarningsEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO earnings_events (symbol, date) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, strings.ToUpper(e.Symbol), utils.MarketDate(e.Date).Format(dateLayout)); err != nil {
			return fmt.Errorf("failed to insert earnings event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func symbolFilter(query string, args []interface{}, symbols []string) (string, []interface{}) {
	if len(symbols) == 0 {
		return query, args
	}
	placeholders := make([]string, len(symbols))
	for i, sym := range symbols {
		placeholders[i] = "?"
		args = append(args, strings.ToUpper(sym))
	}
	return query + " AND symbol IN (" + strings.Join(placeholders, ",") + ")", args
}

func (s *SQLiteStore) queryEarnings(ctx context.Context, query string, args []interface{}) ([]models.EarningsEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query earnings: %w", err)
	}
	defer rows.Close()

	var events []models.EarningsEvent
	for rows.Next() {
		var (
			e    models.EarningsEvent
			date string
		)
		if err := rows.Scan(&e.Symbol, &date); err != nil {
			return nil, fmt.Errorf("failed to scan earnings event: %w", err)
		}
		e.Date, err = time.ParseInLocation(dateLayout, date, utils.NewYorkLocation)
		if err != nil {
			return nil, fmt.Errorf("failed to parse earnings date %q: %w", date, err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// ListEarnings returns stored earnings dates, optionally for some symbols.
func (s *SQLiteStore) ListEarnings(ctx context.Context, symbols []string) ([]models.EarningsEvent, error) {
	query, args := symbolFilter(`SELECT symbol, date FROM earnings_events WHERE 1=1`, nil, symbols)
	return s.queryEarnings(ctx, query+" ORDER BY date ASC, symbol ASC", args)
}

// NextEarnings returns each symbol's first earnings date on or after from.
// Symbols without one are absent.
func (s *SQLiteStore) NextEarnings(ctx context.Context, symbols []string, from time.Time) (map[string]time.Time, error) {
	query, args := symbolFilter(`SELECT symbol, MIN(date) FROM earnings_events WHERE date >= ?`,
		[]interface{}{utils.MarketDate(from).Format(dateLayout)}, symbols)

	events, err := s.queryEarnings(ctx, query+" GROUP BY symbol", args)
	if err != nil {
		return nil, err
	}

	out := make(map[string]time.Time, len(events))
	for _, e := range events {
		out[e.Symbol] = e.Date
	}
	return out, nil
}
