/*
SQLiteMixStorage persists mix run history in SQLite.

One row per run in mix_record, one row per destination payout in
mix_payout.
*/
package mixrecord

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"

	"github.com/veilmix/mixer-go/database"
)

type SQLiteMixStorage struct {
	db    *sql.DB
	stmts *database.StmtCache
}

func NewSQLiteMixStorage(dbPath string) (*SQLiteMixStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	storage := &SQLiteMixStorage{db: db, stmts: database.NewStmtCache(db)}
	if err := storage.init(); err != nil {
		return nil, err
	}
	return storage, nil
}

func (s *SQLiteMixStorage) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS mix_record (
		id TEXT PRIMARY KEY,
		commitment TEXT,
		amount REAL,
		destinations INTEGER,
		privacy_level TEXT,
		status TEXT,
		progress INTEGER,
		total_sats INTEGER,
		anonymity_set_size INTEGER,
		privacy_score INTEGER,
		error TEXT,
		started_at INTEGER,
		finished_at INTEGER
	);
	CREATE TABLE IF NOT EXISTS mix_payout (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mix_id TEXT,
		destination TEXT,
		source_units REAL,
		sats_spent INTEGER,
		tx_id TEXT,
		status TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_mix_record_status ON mix_record(status);
	CREATE INDEX IF NOT EXISTS idx_mix_payout_mix_id ON mix_payout(mix_id);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteMixStorage) AddMix(rec MixRecord) error {
	// Protection of double adding.
	if existing, err := s.GetMix(rec.ID); err != nil {
		return err
	} else if existing != nil {
		logger.WithField("id", rec.ID).Debug("mix record already exists, skip.")
		return nil
	}
	stmt, err := s.stmts.Prepare(`INSERT INTO mix_record
		(id, commitment, amount, destinations, privacy_level, status, progress,
		 total_sats, anonymity_set_size, privacy_score, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(rec.ID, rec.Commitment, rec.Amount, rec.Destinations,
		rec.PrivacyLevel, rec.Status, rec.Progress, rec.TotalSats,
		rec.AnonymitySetSize, rec.PrivacyScore, rec.Error, rec.StartedAt, rec.FinishedAt)
	return err
}

func (s *SQLiteMixStorage) UpdateMix(rec MixRecord) error {
	stmt, err := s.stmts.Prepare(`UPDATE mix_record SET
		commitment = ?, status = ?, progress = ?, total_sats = ?,
		anonymity_set_size = ?, privacy_score = ?, error = ?, finished_at = ?
		WHERE id = ?`)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(rec.Commitment, rec.Status, rec.Progress, rec.TotalSats,
		rec.AnonymitySetSize, rec.PrivacyScore, rec.Error, rec.FinishedAt, rec.ID)
	return err
}

const mixColumns = `id, commitment, amount, destinations, privacy_level, status,
	progress, total_sats, anonymity_set_size, privacy_score, error, started_at, finished_at`

func scanMix(row interface{ Scan(...interface{}) error }) (*MixRecord, error) {
	var rec MixRecord
	err := row.Scan(&rec.ID, &rec.Commitment, &rec.Amount, &rec.Destinations,
		&rec.PrivacyLevel, &rec.Status, &rec.Progress, &rec.TotalSats,
		&rec.AnonymitySetSize, &rec.PrivacyScore, &rec.Error, &rec.StartedAt, &rec.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteMixStorage) GetMix(id string) (*MixRecord, error) {
	stmt, err := s.stmts.Prepare(`SELECT ` + mixColumns + ` FROM mix_record WHERE id = ?`)
	if err != nil {
		return nil, err
	}
	rec, err := scanMix(stmt.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (s *SQLiteMixStorage) ListMixes(limit int) ([]MixRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	stmt, err := s.stmts.Prepare(`SELECT ` + mixColumns + ` FROM mix_record
		ORDER BY started_at DESC LIMIT ?`)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []MixRecord
	for rows.Next() {
		rec, err := scanMix(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteMixStorage) AddPayout(p PayoutRecord) error {
	stmt, err := s.stmts.Prepare(`INSERT INTO mix_payout
		(mix_id, destination, source_units, sats_spent, tx_id, status)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(p.MixID, p.Destination, p.SourceUnits, p.SatsSpent, p.TxID, p.Status)
	return err
}

func (s *SQLiteMixStorage) GetPayouts(mixID string) ([]PayoutRecord, error) {
	stmt, err := s.stmts.Prepare(`SELECT mix_id, destination, source_units, sats_spent, tx_id, status
		FROM mix_payout WHERE mix_id = ?`)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(mixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payouts []PayoutRecord
	for rows.Next() {
		var p PayoutRecord
		if err := rows.Scan(&p.MixID, &p.Destination, &p.SourceUnits, &p.SatsSpent, &p.TxID, &p.Status); err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

func (s *SQLiteMixStorage) Close() error {
	s.stmts.Clear()
	return s.db.Close()
}
