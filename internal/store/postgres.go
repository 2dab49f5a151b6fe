package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
)

// DBPool abstracts pgxpool.Pool for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists scan records in a scan_records table, the record
// body as JSONB. It offers the same whole-record, write-once contract as the
// file store; per-row granularity keeps concurrent saves independent.
type PostgresStore struct {
	pool DBPool
	log  *zap.Logger
}

var _ schemas.RecordStore = (*PostgresStore)(nil)

// NewPostgresStore verifies the connection and returns the store.
func NewPostgresStore(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool, log: logger.Named("postgres_store")}, nil
}

const insertRecordSQL = `INSERT INTO scan_records (scan_id, created_at, record) VALUES ($1, $2, $3)`

const selectRecordSQL = `SELECT record FROM scan_records WHERE scan_id = $1`

// Save inserts the whole record in a single statement.
func (s *PostgresStore) Save(ctx context.Context, record *schemas.ScanRecord) error {
	if record == nil || record.ScanID == "" {
		return &schemas.ValidationError{Field: "scan record", Reason: "missing scan_id"}
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode scan record: %w", err)
	}

	tag, err := s.pool.Exec(ctx, insertRecordSQL, record.ScanID, record.Timestamp, body)
	if err != nil {
		return fmt.Errorf("failed to insert scan record %s: %w", record.ScanID, err)
	}

	s.log.Info("Scan record saved",
		zap.String("scan_id", record.ScanID),
		zap.Int64("rows", tag.RowsAffected()),
	)
	return nil
}

// Load retrieves a record by scan id, failing with *schemas.NotFoundError
// when no row matches.
func (s *PostgresStore) Load(ctx context.Context, scanID string) (*schemas.ScanRecord, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, selectRecordSQL, scanID).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &schemas.NotFoundError{Kind: "scan record", ID: scanID}
		}
		return nil, fmt.Errorf("failed to query scan record %s: %w", scanID, err)
	}

	var record schemas.ScanRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to decode scan record %s: %w", scanID, err)
	}
	return &record, nil
}
