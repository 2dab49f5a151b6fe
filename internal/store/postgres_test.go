package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/auditpipe/auditpipe/api/schemas"
	"github.com/auditpipe/auditpipe/internal/store"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestNewPostgresStore_PingFailure(t *testing.T) {
	pool := newMockPool(t)

	pingErr := errors.New("database unavailable")
	pool.ExpectPing().WillReturnError(pingErr)

	_, err := store.NewPostgresStore(context.Background(), pool, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, pingErr)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresStore_Save(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectPing()

	s, err := store.NewPostgresStore(context.Background(), pool, zap.NewNop())
	require.NoError(t, err)

	record := sampleRecord(uuid.New().String())
	body, err := json.Marshal(record)
	require.NoError(t, err)

	pool.ExpectExec(`INSERT INTO scan_records`).
		WithArgs(record.ScanID, record.Timestamp, body).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Save(context.Background(), record))
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresStore_SaveRejectsMissingID(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectPing()

	s, err := store.NewPostgresStore(context.Background(), pool, zap.NewNop())
	require.NoError(t, err)

	var ve *schemas.ValidationError
	assert.ErrorAs(t, s.Save(context.Background(), &schemas.ScanRecord{}), &ve)
}

func TestPostgresStore_LoadRoundTrip(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectPing()

	s, err := store.NewPostgresStore(context.Background(), pool, zap.NewNop())
	require.NoError(t, err)

	record := sampleRecord(uuid.New().String())
	body, err := json.Marshal(record)
	require.NoError(t, err)

	pool.ExpectQuery(`SELECT record FROM scan_records`).
		WithArgs(record.ScanID).
		WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(body))

	loaded, err := s.Load(context.Background(), record.ScanID)
	require.NoError(t, err)
	assert.Equal(t, record, loaded)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresStore_LoadUnknownID(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectPing()

	s, err := store.NewPostgresStore(context.Background(), pool, zap.NewNop())
	require.NoError(t, err)

	scanID := uuid.New().String()
	pool.ExpectQuery(`SELECT record FROM scan_records`).
		WithArgs(scanID).
		WillReturnRows(pgxmock.NewRows([]string{"record"}))

	_, err = s.Load(context.Background(), scanID)

	var nfe *schemas.NotFoundError
	require.ErrorAs(t, err, &nfe)
	assert.Equal(t, scanID, nfe.ID)
	assert.NoError(t, pool.ExpectationsWereMet())
}
