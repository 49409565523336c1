package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/domain"
)

// SQLiteStore serves definitions from the sqlite definition database that
// the dataset tooling produces. The schema (trigger_events,
// trigger_event_segments, segments, segment_fields, data_types,
// data_type_components, code_tables, code_table_entries) is created by the
// migrations under migrations/.
type SQLiteStore struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewSQLiteStore wraps an open definition database handle.
func NewSQLiteStore(db *sql.DB, logger *logrus.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, log: logger}
}

// TriggerEvent implements domain.SchemaProvider.
func (s *SQLiteStore) TriggerEvent(ctx context.Context, code string) (*domain.TriggerEventDefinition, error) {
	def := &domain.TriggerEventDefinition{}

	row := s.db.QueryRowContext(ctx,
		`SELECT code, name, chapter FROM trigger_events WHERE code = ?`, code)
	if err := row.Scan(&def.Code, &def.Name, &def.Chapter); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewSchemaNotFound(domain.KindTriggerEvent, code)
		}
		return nil, fmt.Errorf("querying trigger event %s: %w", code, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, segment_code, optionality, repeatability, is_group, level
		 FROM trigger_event_segments WHERE event_code = ? ORDER BY position`, code)
	if err != nil {
		return nil, fmt.Errorf("querying trigger event segments for %s: %w", code, err)
	}
	defer rows.Close()

	for rows.Next() {
		var occ domain.SegmentOccurrence
		if err := rows.Scan(&occ.Position, &occ.SegmentCode, &occ.Optionality,
			&occ.Repeatability, &occ.IsGroup, &occ.Level); err != nil {
			return nil, fmt.Errorf("scanning segment occurrence: %w", err)
		}
		def.Segments = append(def.Segments, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating segment occurrences: %w", err)
	}

	return def, nil
}

// Segment implements domain.SchemaProvider.
func (s *SQLiteStore) Segment(ctx context.Context, code string) (*domain.SegmentDefinition, error) {
	def := &domain.SegmentDefinition{}

	row := s.db.QueryRowContext(ctx,
		`SELECT code, name FROM segments WHERE code = ?`, code)
	if err := row.Scan(&def.Code, &def.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewSchemaNotFound(domain.KindSegment, code)
		}
		return nil, fmt.Errorf("querying segment %s: %w", code, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, data_type, optionality, repeatability, length, COALESCE(table_id, '')
		 FROM segment_fields WHERE segment_code = ? ORDER BY position`, code)
	if err != nil {
		return nil, fmt.Errorf("querying fields for %s: %w", code, err)
	}
	defer rows.Close()

	for rows.Next() {
		var f domain.FieldDefinition
		if err := rows.Scan(&f.Position, &f.Name, &f.DataType, &f.Optionality,
			&f.Repeatability, &f.MaxLength, &f.Table); err != nil {
			return nil, fmt.Errorf("scanning field definition: %w", err)
		}
		def.Fields = append(def.Fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating field definitions: %w", err)
	}

	return def, nil
}

// DataType implements domain.SchemaProvider.
func (s *SQLiteStore) DataType(ctx context.Context, code string) (*domain.DataTypeDefinition, error) {
	def := &domain.DataTypeDefinition{}

	row := s.db.QueryRowContext(ctx,
		`SELECT code, name FROM data_types WHERE code = ?`, code)
	if err := row.Scan(&def.Code, &def.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewSchemaNotFound(domain.KindDataType, code)
		}
		return nil, fmt.Errorf("querying data type %s: %w", code, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, data_type, optionality, COALESCE(table_id, '')
		 FROM data_type_components WHERE data_type_code = ? ORDER BY position`, code)
	if err != nil {
		return nil, fmt.Errorf("querying components for %s: %w", code, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.ComponentDefinition
		if err := rows.Scan(&c.Position, &c.Name, &c.DataType, &c.Optionality, &c.Table); err != nil {
			return nil, fmt.Errorf("scanning component definition: %w", err)
		}
		def.Components = append(def.Components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating component definitions: %w", err)
	}

	return def, nil
}

// CodeTable implements domain.SchemaProvider.
func (s *SQLiteStore) CodeTable(ctx context.Context, id string) (*domain.CodeTable, error) {
	def := &domain.CodeTable{}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM code_tables WHERE id = ?`, id)
	if err := row.Scan(&def.ID, &def.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewSchemaNotFound(domain.KindCodeTable, id)
		}
		return nil, fmt.Errorf("querying code table %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT code, display FROM code_table_entries WHERE table_id = ? ORDER BY code`, id)
	if err != nil {
		return nil, fmt.Errorf("querying entries for table %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.CodeTableEntry
		if err := rows.Scan(&e.Code, &e.Display); err != nil {
			return nil, fmt.Errorf("scanning code table entry: %w", err)
		}
		def.Entries = append(def.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating code table entries: %w", err)
	}

	return def, nil
}
