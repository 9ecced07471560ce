package results

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/de-tools/impact-atlas/pkg/models/store"
	"github.com/rs/zerolog"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*){0,2}$`)

// Store persists impact estimates to a warehouse table.
type Store interface {
	Init(ctx context.Context) error
	Add(ctx context.Context, records []store.ImpactRecord) error
}

type resultStore struct {
	db            *sql.DB
	table         string
	transactional bool
}

type Option func(*resultStore)

// SingleStatement writes each batch as one multi-row INSERT instead of a transaction, for drivers
// that do not support BeginTx.
func SingleStatement() Option {
	return func(s *resultStore) {
		s.transactional = false
	}
}

func NewStore(db *sql.DB, table string, opts ...Option) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	s := &resultStore{
		db:            db,
		table:         table,
		transactional: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *resultStore) Init(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			id STRING NOT NULL,
			node STRING NOT NULL,
			model STRING NOT NULL,
			position INT,
			observed_at TIMESTAMP,
			duration DOUBLE,
			energy_kwh DOUBLE,
			embodied_gco2eq DOUBLE,
			created_at TIMESTAMP
		)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

const insertColumns = `id, node, model, position, observed_at, duration,
			energy_kwh, embodied_gco2eq, created_at`

const valuesPlaceholder = "(?, ?, ?, ?, ?, ?, ?, ?, ?)"

// Add writes the records as one batch: either all rows land or none do. A transaction carried by
// ctx is used as is and left for the caller to finish.
func (s *resultStore) Add(ctx context.Context, records []store.ImpactRecord) error {
	if len(records) == 0 {
		return nil
	}
	logger := zerolog.Ctx(ctx)

	var err error
	switch tx := GetTransaction(ctx); {
	case tx != nil:
		err = s.insert(ctx, tx, records)
	case s.transactional:
		err = s.insertInTx(ctx, records)
	default:
		err = s.insertBatch(ctx, records)
	}
	if err != nil {
		return err
	}

	logger.Debug().Int("records", len(records)).Str("table", s.table).Msg("stored impact records")
	return nil
}

func (s *resultStore) insertInTx(ctx context.Context, records []store.ImpactRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := s.insert(ctx, tx, records); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			zerolog.Ctx(ctx).Error().Err(rbErr).Msg("failed to roll back impact records")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *resultStore) insert(ctx context.Context, tx *sql.Tx, records []store.ImpactRecord) error {
	query := `
		INSERT INTO ` + s.table + ` (
			` + insertColumns + `
		) VALUES ` + valuesPlaceholder

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close insert statement")
		}
	}()

	for _, record := range records {
		if _, err := stmt.ExecContext(ctx, recordArgs(record)...); err != nil {
			return fmt.Errorf("insert record %s: %w", record.ID, err)
		}
	}
	return nil
}

func (s *resultStore) insertBatch(ctx context.Context, records []store.ImpactRecord) error {
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*9)
	for _, record := range records {
		placeholders = append(placeholders, valuesPlaceholder)
		args = append(args, recordArgs(record)...)
	}

	query := `
		INSERT INTO ` + s.table + ` (
			` + insertColumns + `
		) VALUES ` + strings.Join(placeholders, ", ")

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d records: %w", len(records), err)
	}
	return nil
}

func recordArgs(record store.ImpactRecord) []interface{} {
	var observedAt interface{}
	if record.ObservedAt != nil {
		observedAt = *record.ObservedAt
	}
	return []interface{}{
		record.ID,
		record.Node,
		record.Model,
		record.Position,
		observedAt,
		record.Duration,
		record.Energy,
		record.Embodied,
		record.CreatedAt,
	}
}
