// Package archive persists completed operation results so the history of a
// shipment survives process restarts. The in-memory marketplace ledger is the
// hot read path; the archive is the durable trail behind it.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lading/pkg/platform/sentinel"
)

// Record is one archived operation outcome.
type Record struct {
	ID             uuid.UUID       `json:"id"`
	Kind           string          `json:"kind"`
	Actor          string          `json:"actor"`
	Role           string          `json:"role"`
	TxID           string          `json:"txid"`
	ConfirmedRound uint64          `json:"confirmed_round"`
	AssetIndex     uint64          `json:"asset_index,omitempty"`
	AppIndex       uint64          `json:"app_index,omitempty"`
	Degraded       bool            `json:"degraded"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Store writes operation records to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store over an established pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the operations table when it does not exist. Called
// once at startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS operations (
			id              UUID PRIMARY KEY,
			kind            TEXT NOT NULL,
			actor           TEXT NOT NULL,
			role            TEXT NOT NULL,
			txid            TEXT NOT NULL,
			confirmed_round BIGINT NOT NULL,
			asset_index     BIGINT NOT NULL DEFAULT 0,
			app_index       BIGINT NOT NULL DEFAULT 0,
			degraded        BOOLEAN NOT NULL DEFAULT FALSE,
			payload         JSONB,
			created_at      TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS operations_actor_idx ON operations (actor, created_at DESC);
		CREATE INDEX IF NOT EXISTS operations_kind_idx ON operations (kind, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure operations schema: %w", err)
	}
	return nil
}

// Insert archives one record. IDs are assigned by the caller; inserting the
// same ID twice is a conflict.
func (s *Store) Insert(ctx context.Context, record Record) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	var payload any
	if len(record.Payload) > 0 {
		payload = string(record.Payload)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO operations (id, kind, actor, role, txid, confirmed_round, asset_index, app_index, degraded, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11)
	`, record.ID, record.Kind, record.Actor, record.Role, record.TxID,
		int64(record.ConfirmedRound), int64(record.AssetIndex), int64(record.AppIndex),
		record.Degraded, payload, record.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("operation %s: %w", record.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

// ByActor returns an actor's archived operations, newest first.
func (s *Store) ByActor(ctx context.Context, actor string, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, actor, role, txid, confirmed_round, asset_index, app_index, degraded, payload, created_at
		FROM operations
		WHERE actor = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, actor, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query operations by actor: %w", err)
	}
	return scanRecords(rows)
}

// ByKind returns archived operations of one kind, newest first.
func (s *Store) ByKind(ctx context.Context, kind string, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, actor, role, txid, confirmed_round, asset_index, app_index, degraded, payload, created_at
		FROM operations
		WHERE kind = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, kind, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query operations by kind: %w", err)
	}
	return scanRecords(rows)
}

// Recent returns the most recently archived operations, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, actor, role, txid, confirmed_round, asset_index, app_index, degraded, payload, created_at
		FROM operations
		ORDER BY created_at DESC
		LIMIT $1
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent operations: %w", err)
	}
	return scanRecords(rows)
}

// ByTxID returns the record for one transaction id.
func (s *Store) ByTxID(ctx context.Context, txid string) (Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, kind, actor, role, txid, confirmed_round, asset_index, app_index, degraded, payload, created_at
		FROM operations
		WHERE txid = $1
	`, txid)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("operation txid %q: %w", txid, sentinel.ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("query operation by txid: %w", err)
	}
	return record, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record         Record
		confirmedRound int64
		assetIndex     int64
		appIndex       int64
		payload        []byte
	)
	err := row.Scan(&record.ID, &record.Kind, &record.Actor, &record.Role, &record.TxID,
		&confirmedRound, &assetIndex, &appIndex, &record.Degraded, &payload, &record.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	record.ConfirmedRound = uint64(confirmedRound)
	record.AssetIndex = uint64(assetIndex)
	record.AppIndex = uint64(appIndex)
	record.Payload = payload
	return record, nil
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation row: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation rows: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
