package results

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/de-tools/impact-atlas/pkg/models/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []store.ImpactRecord {
	observed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return []store.ImpactRecord{
		{
			ID:         "a1",
			Node:       "cpu-node",
			Model:      "org.boavizta.cpu.sci",
			Position:   0,
			ObservedAt: &observed,
			Duration:   3600,
			Energy:     0.5,
			Embodied:   12,
			CreatedAt:  created,
		},
		{
			ID:        "a2",
			Node:      "cpu-node",
			Model:     "org.boavizta.cpu.sci",
			Position:  1,
			Duration:  60,
			Energy:    0.01,
			Embodied:  0.2,
			CreatedAt: created,
		},
	}
}

func TestNewStore_Validation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewStore(nil, "impact_results")
	assert.Error(t, err)

	_, err = NewStore(db, "impact_results; DROP TABLE x")
	assert.Error(t, err)

	s, err := NewStore(db, "main.sustainability.impact_results")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestStore_Init(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS impact_results")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := NewStore(db, "impact_results")
	require.NoError(t, err)

	require.NoError(t, s.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Add(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	records := sampleRecords()

	// Given a transaction with a prepared insert
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO impact_results"))
	prep.ExpectExec().
		WithArgs("a1", "cpu-node", "org.boavizta.cpu.sci", 0, *records[0].ObservedAt, 3600.0, 0.5, 12.0, records[0].CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs("a2", "cpu-node", "org.boavizta.cpu.sci", 1, nil, 60.0, 0.01, 0.2, records[1].CreatedAt).
		WillReturnResult(sqlmock.NewResult(2, 1))
	prep.WillBeClosed()
	mock.ExpectCommit()

	s, err := NewStore(db, "impact_results")
	require.NoError(t, err)

	// When records are added
	err = s.Add(context.Background(), records)

	// Then every record is inserted in order and committed together
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddWithinTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	records := sampleRecords()[1:]

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO impact_results"))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	s, err := NewStore(db, "impact_results")
	require.NoError(t, err)

	tx, err := db.Begin()
	require.NoError(t, err)

	ctx := WithTransaction(context.Background(), tx)
	require.NoError(t, s.Add(ctx, records))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddRollsBackPartialBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Given the second insert fails
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO impact_results"))
	prep.ExpectExec().WithArgs("a1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(errors.New("warehouse unavailable"))
	mock.ExpectRollback()

	s, err := NewStore(db, "impact_results")
	require.NoError(t, err)

	// When
	err = s.Add(context.Background(), sampleRecords())

	// Then the whole batch is rolled back
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert record a2")
	assert.Contains(t, err.Error(), "warehouse unavailable")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddBeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no session"))

	s, err := NewStore(db, "impact_results")
	require.NoError(t, err)

	err = s.Add(context.Background(), sampleRecords())
	assert.ErrorContains(t, err, "begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	records := sampleRecords()

	// Given a driver without transactions, the batch goes out as one statement
	mock.ExpectExec(regexp.QuoteMeta("VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?, ?, ?, ?)")).
		WithArgs(
			"a1", "cpu-node", "org.boavizta.cpu.sci", 0, *records[0].ObservedAt, 3600.0, 0.5, 12.0, records[0].CreatedAt,
			"a2", "cpu-node", "org.boavizta.cpu.sci", 1, nil, 60.0, 0.01, 0.2, records[1].CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	s, err := NewStore(db, "impact_results", SingleStatement())
	require.NoError(t, err)

	require.NoError(t, s.Add(context.Background(), records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddSingleStatementError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO impact_results")).
		WillReturnError(errors.New("warehouse unavailable"))

	s, err := NewStore(db, "impact_results", SingleStatement())
	require.NoError(t, err)

	err = s.Add(context.Background(), sampleRecords())
	assert.ErrorContains(t, err, "insert 2 records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db, "impact_results")
	require.NoError(t, err)

	require.NoError(t, s.Add(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildDSN(t *testing.T) {
	t.Run("databricks", func(t *testing.T) {
		dsn, err := BuildDSN(DriverDatabricks, map[string]string{
			"host":      "adb-1.azuredatabricks.net",
			"token":     "dapi123",
			"http_path": "/sql/1.0/warehouses/abc",
			"catalog":   "main",
		})
		require.NoError(t, err)
		assert.Equal(t, "token:dapi123@adb-1.azuredatabricks.net/sql/1.0/warehouses/abc?catalog=main", dsn)
	})

	t.Run("databricks token is escaped", func(t *testing.T) {
		dsn, err := BuildDSN(DriverDatabricks, map[string]string{
			"host":      "adb-1.azuredatabricks.net",
			"token":     "a@b/c:d",
			"http_path": "/sql/1.0/warehouses/abc",
		})
		require.NoError(t, err)
		assert.Equal(t, "token:a%40b%2Fc%3Ad@adb-1.azuredatabricks.net/sql/1.0/warehouses/abc", dsn)
	})

	t.Run("databricks missing token", func(t *testing.T) {
		_, err := BuildDSN(DriverDatabricks, map[string]string{"host": "h", "http_path": "/p"})
		assert.ErrorContains(t, err, "token is required")
	})

	t.Run("snowflake", func(t *testing.T) {
		dsn, err := BuildDSN(DriverSnowflake, map[string]string{
			"account":  "acme",
			"user":     "loader",
			"password": "secret",
			"database": "impact",
		})
		require.NoError(t, err)
		assert.Contains(t, dsn, "loader:secret@")
		assert.Contains(t, dsn, "database=impact")
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := BuildDSN("duckdb", nil)
		assert.Error(t, err)
	})
}

func TestNewDB(t *testing.T) {
	_, err := NewDB(Settings{Driver: "postgres", DSN: "x"})
	assert.Error(t, err)

	_, err = NewDB(Settings{Driver: DriverDatabricks})
	assert.ErrorContains(t, err, "dsn is required")
}
