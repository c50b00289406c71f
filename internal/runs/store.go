// Package runs keeps a local history of tour checks and repairs in SQLite.
package runs

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"codetour/internal/paths"
)

const schemaVersion = 1

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists runs in <repo>/.codetour/history.db.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// OpenStore opens or creates the history database in dir.
func OpenStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, paths.HistoryDBName)
	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create report encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create report decoder: %w", err)
	}

	store := &Store{
		conn:    conn,
		logger:  logger,
		dbPath:  dbPath,
		encoder: encoder,
		decoder: decoder,
	}

	if !dbExists {
		logger.Info("Creating history database", "path", dbPath)
	}
	if err := store.initializeSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return store, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *Store) initializeSchema() error {
	var current int
	err := s.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&current)
	if err == nil {
		if current > schemaVersion {
			return fmt.Errorf("history schema version %d is newer than supported version %d", current, schemaVersion)
		}
		return nil
	}

	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			tour_path TEXT NOT NULL,
			baseline TEXT,
			revision TEXT,
			created_at TEXT NOT NULL,
			steps INTEGER NOT NULL DEFAULT 0,
			fresh INTEGER NOT NULL DEFAULT 0,
			revision_resolved INTEGER NOT NULL DEFAULT 0,
			drifted INTEGER NOT NULL DEFAULT 0,
			missing INTEGER NOT NULL DEFAULT 0,
			fixed INTEGER NOT NULL DEFAULT 0,
			unresolved INTEGER NOT NULL DEFAULT 0,
			repaired INTEGER NOT NULL DEFAULT 0,
			report BLOB
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_tour ON runs(tour_path);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return err
	}
	_, err = s.conn.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion)
	return err
}

// Close releases the database and codec resources.
func (s *Store) Close() error {
	if s.decoder != nil {
		s.decoder.Close()
	}
	if s.encoder != nil {
		_ = s.encoder.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Record inserts a run. A run without an ID or timestamp gets one.
func (s *Store) Record(run *Run) error {
	if run.ID == "" {
		fresh := NewRun(run.Kind, run.TourPath)
		run.ID = fresh.ID
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	var report []byte
	if len(run.Report) > 0 {
		report = s.encoder.EncodeAll(run.Report, nil)
	}

	query := `
		INSERT INTO runs (id, kind, tour_path, baseline, revision, created_at,
			steps, fresh, revision_resolved, drifted, missing, fixed, unresolved, repaired, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.Exec(query,
		run.ID,
		string(run.Kind),
		run.TourPath,
		nullString(run.Baseline),
		nullString(run.Revision),
		run.CreatedAt.UTC().Format(timeLayout),
		run.Steps,
		run.Fresh,
		run.RevisionResolved,
		run.Drifted,
		run.Missing,
		run.Fixed,
		run.Unresolved,
		run.Repaired,
		report,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	s.logger.Debug("Recorded run",
		"runId", run.ID,
		"kind", string(run.Kind),
		"tour", run.TourPath,
		"reportBytes", len(run.Report),
		"storedBytes", len(report),
	)
	return nil
}

const runColumns = `id, kind, tour_path, baseline, revision, created_at,
	steps, fresh, revision_resolved, drifted, missing, fixed, unresolved, repaired`

// Get returns the run with its decompressed report, or nil when no run has that ID.
func (s *Store) Get(id string) (*Run, error) {
	row := s.conn.QueryRow("SELECT "+runColumns+", report FROM runs WHERE id = ?", id)

	var report []byte
	run, err := scanRun(row, &report)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(report) > 0 {
		run.Report, err = s.decoder.DecodeAll(report, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress report for run %s: %w", id, err)
		}
	}
	return run, nil
}

// List returns runs matching opts, newest first.
func (s *Store) List(opts ListOptions) (*ListResponse, error) {
	var conditions []string
	var args []interface{}

	if opts.TourPath != "" {
		conditions = append(conditions, "tour_path = ?")
		args = append(args, opts.TourPath)
	}
	if opts.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(opts.Kind))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var totalCount int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM runs "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT %s FROM runs %s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, runColumns, whereClause)
	args = append(args, limit, opts.Offset)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	resp := &ListResponse{TotalCount: totalCount}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		resp.Runs = append(resp.Runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return resp, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRun reads runColumns, plus any extra destinations appended to the select list.
func scanRun(row scanner, extra ...interface{}) (*Run, error) {
	var run Run
	var kind, createdAt string
	var baseline, revision sql.NullString

	dest := []interface{}{
		&run.ID,
		&kind,
		&run.TourPath,
		&baseline,
		&revision,
		&createdAt,
		&run.Steps,
		&run.Fresh,
		&run.RevisionResolved,
		&run.Drifted,
		&run.Missing,
		&run.Fixed,
		&run.Unresolved,
		&run.Repaired,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Kind = Kind(kind)
	run.Baseline = baseline.String
	run.Revision = revision.String
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		run.CreatedAt = t
	}
	return &run, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
