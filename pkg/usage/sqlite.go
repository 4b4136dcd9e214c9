package usage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // pure Go SQLite driver, registered as "sqlite"

	"mercator-hq/switchboard/pkg/provider"
)

// Driver names accepted by SQLiteStoreConfig.Driver.
const (
	DriverModernc = "sqlite"
	DriverCGo     = "sqlite3"
)

// SQLiteStore implements Store on a SQLite database.
//
// The database runs in WAL mode with a single connection; a background loop
// checkpoints the WAL and drops records older than the retention period.
// Costs are persisted as text so that values written by other tools that
// cannot be parsed are read back as zero instead of failing the query.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	retention          time.Duration
	checkpointInterval time.Duration

	done      chan struct{}
	closeOnce sync.Once

	appendStmt   *sql.Stmt
	queryStmt    *sql.Stmt
	queryAllStmt *sql.Stmt
	costStmt     *sql.Stmt
	featuresStmt *sql.Stmt
	cleanupStmt  *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite store.
type SQLiteStoreConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the database/sql driver: "sqlite" (modernc.org/sqlite)
	// or "sqlite3" (github.com/mattn/go-sqlite3).
	// Default: "sqlite"
	Driver string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// CheckpointInterval is how often to checkpoint the WAL and prune
	// expired records.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// Retention is how long records are kept.
	// Default: 35 days
	Retention time.Duration

	// Logger receives store diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewSQLiteStore opens (and if needed creates) a SQLite usage store.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.Driver != DriverModernc && cfg.Driver != DriverCGo {
		return nil, fmt.Errorf("unsupported sqlite driver %q", cfg.Driver)
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.Retention == 0 {
		cfg.Retention = 35 * 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer; one connection also keeps the
	// PRAGMAs below in effect for every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:                 db,
		logger:             cfg.Logger.With("component", "usage.sqlite"),
		retention:          cfg.Retention,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := s.initialize(cfg.BusyTimeout); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go s.checkpointLoop()

	s.logger.Info("usage store opened",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"retention", cfg.Retention.String(),
	)

	return s, nil
}

// initialize applies connection PRAGMAs and creates the schema.
func (s *SQLiteStore) initialize(busyTimeout time.Duration) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		feature TEXT NOT NULL,
		ts INTEGER NOT NULL,
		success INTEGER NOT NULL,
		latency_ms REAL,
		cost TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_usage_provider_feature_ts ON usage_records(provider, feature, ts);
	CREATE INDEX IF NOT EXISTS idx_usage_provider_ts ON usage_records(provider, ts);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.appendStmt, err = s.db.Prepare(`
		INSERT INTO usage_records (id, provider, feature, ts, success, latency_ms, cost, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("append statement: %w", err)
	}

	s.queryStmt, err = s.db.Prepare(`
		SELECT id, provider, feature, ts, success, latency_ms, cost, error
		FROM usage_records
		WHERE provider = ? AND feature = ? AND ts >= ?
		ORDER BY ts ASC
	`)
	if err != nil {
		return fmt.Errorf("query statement: %w", err)
	}

	s.queryAllStmt, err = s.db.Prepare(`
		SELECT id, provider, feature, ts, success, latency_ms, cost, error
		FROM usage_records
		WHERE provider = ? AND ts >= ?
		ORDER BY ts ASC
	`)
	if err != nil {
		return fmt.Errorf("query-all statement: %w", err)
	}

	s.costStmt, err = s.db.Prepare(`
		SELECT cost FROM usage_records
		WHERE provider = ? AND ts >= ? AND cost IS NOT NULL
	`)
	if err != nil {
		return fmt.Errorf("cost statement: %w", err)
	}

	s.featuresStmt, err = s.db.Prepare(`
		SELECT DISTINCT feature FROM usage_records
		WHERE ts >= ?
		ORDER BY feature ASC
	`)
	if err != nil {
		return fmt.Errorf("features statement: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(`DELETE FROM usage_records WHERE ts < ?`)
	if err != nil {
		return fmt.Errorf("cleanup statement: %w", err)
	}

	return nil
}

// Append persists one record.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	var latency sql.NullFloat64
	if rec.Latency != nil {
		latency = sql.NullFloat64{Float64: float64(*rec.Latency) / float64(time.Millisecond), Valid: true}
	}

	var cost sql.NullString
	if rec.Cost != nil {
		cost = sql.NullString{String: strconv.FormatFloat(*rec.Cost, 'f', -1, 64), Valid: true}
	}

	var errMsg sql.NullString
	if !rec.Success && rec.Error != "" {
		errMsg = sql.NullString{String: rec.Error, Valid: true}
	}

	success := 0
	if rec.Success {
		success = 1
	}

	_, err := s.appendStmt.ExecContext(ctx,
		rec.ID,
		string(rec.Provider),
		rec.Feature,
		rec.Timestamp.UnixNano(),
		success,
		latency,
		cost,
		errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}
	return nil
}

// Query returns matching records ordered oldest first.
func (s *SQLiteStore) Query(ctx context.Context, id provider.ID, feature string, since time.Time) ([]Record, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if feature == "" {
		rows, err = s.queryAllStmt.QueryContext(ctx, string(id), since.UnixNano())
	} else {
		rows, err = s.queryStmt.QueryContext(ctx, string(id), feature, since.UnixNano())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec      Record
			prov     string
			ts       int64
			success  int
			latency  sql.NullFloat64
			cost     sql.NullString
			errorMsg sql.NullString
		)
		if err := rows.Scan(&rec.ID, &prov, &rec.Feature, &ts, &success, &latency, &cost, &errorMsg); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}

		rec.Provider = provider.ID(prov)
		rec.Timestamp = time.Unix(0, ts)
		rec.Success = success != 0
		rec.Error = errorMsg.String

		if latency.Valid {
			d := time.Duration(latency.Float64 * float64(time.Millisecond))
			rec.Latency = &d
		}
		if cost.Valid {
			if v, ok := parseCost(cost.String); ok {
				rec.Cost = &v
			}
		}

		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage records: %w", err)
	}

	return out, nil
}

// AggregateCost sums the cost of a provider's records since the given time.
func (s *SQLiteStore) AggregateCost(ctx context.Context, id provider.ID, since time.Time) (float64, error) {
	rows, err := s.costStmt.QueryContext(ctx, string(id), since.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate cost: %w", err)
	}
	defer rows.Close()

	var total float64
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return 0, fmt.Errorf("failed to scan cost: %w", err)
		}
		if v, ok := parseCost(raw); ok {
			total += v
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating costs: %w", err)
	}
	return total, nil
}

// Features returns the distinct features recorded since the given time.
func (s *SQLiteStore) Features(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.featuresStmt.QueryContext(ctx, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating features: %w", err)
	}
	return out, nil
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Cleanup removes records older than the given time.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := s.cleanupStmt.ExecContext(ctx, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Close releases the database. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		for _, stmt := range []*sql.Stmt{s.appendStmt, s.queryStmt, s.queryAllStmt, s.costStmt, s.featuresStmt, s.cleanupStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}

		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		closeErr = s.db.Close()
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints and retention cleanup.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := s.Cleanup(context.Background(), time.Now().Add(-s.retention)); err != nil {
				s.logger.Warn("usage retention cleanup failed", "error", err)
			} else if n > 0 {
				s.logger.Debug("usage retention cleanup", "deleted", n)
			}
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

// parseCost parses a persisted cost value. Empty, malformed and negative
// values are reported as absent.
func parseCost(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
