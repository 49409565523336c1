// Package setup seeds a sqlite definition database from a JSON
// definition pack, so deployments that prefer a single catalog file
// over the embedded pack can build one.
package setup

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/schema"
)

// Loader copies every definition a pack store knows about into the
// definition tables created by the migrations.
type Loader struct {
	store *schema.Store
	db    *sql.DB
	log   *logrus.Logger
}

func NewLoader(store *schema.Store, db *sql.DB, log *logrus.Logger) *Loader {
	return &Loader{store: store, db: db, log: log}
}

// Load runs the whole import in one transaction. Re-running against a
// populated database replaces the catalog.
func (l *Loader) Load(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning catalog import: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"code_table_entries", "code_tables",
		"data_type_components", "data_types",
		"segment_fields", "segments",
		"trigger_event_segments", "trigger_events",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	counts := map[string]int{}
	if counts["trigger_events"], err = l.loadTriggerEvents(ctx, tx); err != nil {
		return err
	}
	if counts["segments"], err = l.loadSegments(ctx, tx); err != nil {
		return err
	}
	if counts["data_types"], err = l.loadDataTypes(ctx, tx); err != nil {
		return err
	}
	if counts["code_tables"], err = l.loadCodeTables(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog import: %w", err)
	}

	l.log.WithFields(logrus.Fields{
		"trigger_events": counts["trigger_events"],
		"segments":       counts["segments"],
		"data_types":     counts["data_types"],
		"code_tables":    counts["code_tables"],
	}).Info("Definition catalog imported")
	return nil
}

func (l *Loader) loadTriggerEvents(ctx context.Context, tx *sql.Tx) (int, error) {
	codes, err := l.store.TriggerEventCodes()
	if err != nil {
		return 0, err
	}
	for _, code := range codes {
		event, err := l.store.TriggerEvent(ctx, code)
		if err != nil {
			return 0, fmt.Errorf("reading trigger event %s: %w", code, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trigger_events (code, name, chapter) VALUES (?, ?, ?)`,
			event.Code, event.Name, event.Chapter); err != nil {
			return 0, fmt.Errorf("inserting trigger event %s: %w", code, err)
		}
		for _, occ := range event.Segments {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO trigger_event_segments
				 (event_code, position, segment_code, optionality, repeatability, is_group, level)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				event.Code, occ.Position, occ.SegmentCode, occ.Optionality,
				occ.Repeatability, occ.IsGroup, occ.Level); err != nil {
				return 0, fmt.Errorf("inserting segment occurrence %s/%d: %w", code, occ.Position, err)
			}
		}
	}
	return len(codes), nil
}

func (l *Loader) loadSegments(ctx context.Context, tx *sql.Tx) (int, error) {
	codes, err := l.store.SegmentCodes()
	if err != nil {
		return 0, err
	}
	for _, code := range codes {
		seg, err := l.store.Segment(ctx, code)
		if err != nil {
			return 0, fmt.Errorf("reading segment %s: %w", code, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO segments (code, name) VALUES (?, ?)`, seg.Code, seg.Name); err != nil {
			return 0, fmt.Errorf("inserting segment %s: %w", code, err)
		}
		for _, f := range seg.Fields {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO segment_fields
				 (segment_code, position, name, data_type, optionality, repeatability, length, table_id)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				seg.Code, f.Position, f.Name, f.DataType, f.Optionality,
				f.Repeatability, f.MaxLength, nullable(f.Table)); err != nil {
				return 0, fmt.Errorf("inserting field %s.%d: %w", code, f.Position, err)
			}
		}
	}
	return len(codes), nil
}

func (l *Loader) loadDataTypes(ctx context.Context, tx *sql.Tx) (int, error) {
	codes, err := l.store.DataTypeCodes()
	if err != nil {
		return 0, err
	}
	for _, code := range codes {
		dt, err := l.store.DataType(ctx, code)
		if err != nil {
			return 0, fmt.Errorf("reading data type %s: %w", code, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO data_types (code, name) VALUES (?, ?)`, dt.Code, dt.Name); err != nil {
			return 0, fmt.Errorf("inserting data type %s: %w", code, err)
		}
		for _, comp := range dt.Components {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO data_type_components
				 (data_type_code, position, name, data_type, optionality, table_id)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				dt.Code, comp.Position, comp.Name, comp.DataType,
				comp.Optionality, nullable(comp.Table)); err != nil {
				return 0, fmt.Errorf("inserting component %s.%d: %w", code, comp.Position, err)
			}
		}
	}
	return len(codes), nil
}

func (l *Loader) loadCodeTables(ctx context.Context, tx *sql.Tx) (int, error) {
	ids, err := l.store.CodeTableIDs()
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		table, err := l.store.CodeTable(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("reading code table %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO code_tables (id, name) VALUES (?, ?)`, table.ID, table.Name); err != nil {
			return 0, fmt.Errorf("inserting code table %s: %w", id, err)
		}
		for _, entry := range table.Entries {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO code_table_entries (table_id, code, display) VALUES (?, ?, ?)`,
				table.ID, entry.Code, entry.Display); err != nil {
				return 0, fmt.Errorf("inserting code %s/%s: %w", id, entry.Code, err)
			}
		}
	}
	return len(ids), nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
