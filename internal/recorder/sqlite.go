package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"CryptoGraph/internal/model"
)

const defaultLimit = 30

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log logrus.FieldLogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log logrus.FieldLogger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read history while the refresh job writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_samples (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			coin_id   TEXT NOT NULL,
			source    TEXT,
			timestamp INTEGER NOT NULL,
			open      REAL,
			high      REAL,
			low       REAL,
			close     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_coin_ts ON price_samples(coin_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS recommendations (
			id         TEXT PRIMARY KEY,
			coin_id    TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			decision   TEXT NOT NULL,
			reason     TEXT,
			provider   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_coin_ts ON recommendations(coin_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS selection_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			coin_id    TEXT,
			members    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_selection_ts ON selection_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSample(s *PriceSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO price_samples
		(coin_id, source, timestamp, open, high, low, close)
		VALUES (?,?,?,?,?,?,?)`,
		s.CoinID, s.Source, s.Sample.Timestamp,
		s.Sample.Open, s.Sample.High, s.Sample.Low, s.Sample.Close,
	)
	return err
}

func (r *SQLiteRecorder) RecordRecommendation(rec *model.Recommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rec.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO recommendations
		(id, coin_id, timestamp, decision, reason, provider)
		VALUES (?,?,?,?,?,?)`,
		rec.ID, rec.CoinID, ts.Unix(), string(rec.Decision), rec.Reason, rec.Provider,
	)
	return err
}

func (r *SQLiteRecorder) RecordSelection(evt *SelectionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO selection_events
		(timestamp, event_type, coin_id, members)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), evt.EventType, evt.CoinID, strings.Join(evt.Members, ","),
	)
	return err
}

// RecentSamples returns up to limit of the newest samples for coinID, oldest first.
func (r *SQLiteRecorder) RecentSamples(coinID string, limit int) ([]model.Sample, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := r.db.Query(`SELECT timestamp, open, high, low, close FROM (
			SELECT id, timestamp, open, high, low, close FROM price_samples
			WHERE coin_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?
		) ORDER BY timestamp ASC, id ASC`, coinID, limit)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	out := make([]model.Sample, 0)
	for rows.Next() {
		var s model.Sample
		if err := rows.Scan(&s.Timestamp, &s.Open, &s.High, &s.Low, &s.Close); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecentRecommendations returns up to limit verdicts for coinID, newest first.
func (r *SQLiteRecorder) RecentRecommendations(coinID string, limit int) ([]model.Recommendation, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := r.db.Query(`SELECT id, coin_id, timestamp, decision, reason, provider
		FROM recommendations WHERE coin_id = ?
		ORDER BY timestamp DESC, rowid DESC LIMIT ?`, coinID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	out := make([]model.Recommendation, 0)
	for rows.Next() {
		var (
			rec      model.Recommendation
			ts       int64
			decision string
		)
		if err := rows.Scan(&rec.ID, &rec.CoinID, &ts, &decision, &rec.Reason, &rec.Provider); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		rec.Decision = model.Decision(decision)
		rec.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
