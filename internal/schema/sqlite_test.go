package schema

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl7-message-forge/internal/domain"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db, testLogger()), mock
}

func TestSQLiteStore_TriggerEvent(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT code, name, chapter FROM trigger_events`).
		WithArgs("adt_a01").
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "chapter"}).
			AddRow("adt_a01", "ADT/ACK - Admit/Visit Notification", "3"))

	mock.ExpectQuery(`SELECT position, segment_code, optionality, repeatability, is_group, level`).
		WithArgs("adt_a01").
		WillReturnRows(sqlmock.NewRows([]string{"position", "segment_code", "optionality", "repeatability", "is_group", "level"}).
			AddRow(1, "MSH", "R", "1", false, 0).
			AddRow(2, "EVN", "R", "1", false, 0).
			AddRow(3, "PID", "R", "1", false, 0))

	def, err := store.TriggerEvent(ctx, "adt_a01")
	require.NoError(t, err)

	assert.Equal(t, "adt_a01", def.Code)
	require.Len(t, def.Segments, 3)
	assert.Equal(t, "MSH", def.Segments[0].SegmentCode)
	assert.Equal(t, domain.REQUIRED, def.Segments[0].Optionality)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_TriggerEvent_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT code, name, chapter FROM trigger_events`).
		WithArgs("zzz_z99").
		WillReturnError(sql.ErrNoRows)

	_, err := store.TriggerEvent(context.Background(), "zzz_z99")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchemaNotFound))
}

func TestSQLiteStore_Segment(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT code, name FROM segments`).
		WithArgs("DG1").
		WillReturnRows(sqlmock.NewRows([]string{"code", "name"}).AddRow("DG1", "Diagnosis"))

	mock.ExpectQuery(`SELECT position, name, data_type, optionality, repeatability, length`).
		WithArgs("DG1").
		WillReturnRows(sqlmock.NewRows([]string{"position", "name", "data_type", "optionality", "repeatability", "length", "table_id"}).
			AddRow(1, "Set ID - Diagnosis", "SI", "R", "1", 4, "").
			AddRow(6, "Diagnosis Type", "IS", "R", "1", 2, "0052"))

	def, err := store.Segment(context.Background(), "DG1")
	require.NoError(t, err)

	require.Len(t, def.Fields, 2)
	assert.Equal(t, "0052", def.Fields[1].Table)
	assert.Equal(t, 6, def.Fields[1].Position)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_QueryFailureIsNotSchemaNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT code, name FROM data_types`).
		WithArgs("XPN").
		WillReturnError(errors.New("disk I/O error"))

	_, err := store.DataType(context.Background(), "XPN")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrSchemaNotFound),
		"infrastructure failures must stay distinguishable from missing definitions")
}

func TestSQLiteStore_CodeTable(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name FROM code_tables`).
		WithArgs("0001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("0001", "Sex"))

	mock.ExpectQuery(`SELECT code, display FROM code_table_entries`).
		WithArgs("0001").
		WillReturnRows(sqlmock.NewRows([]string{"code", "display"}).
			AddRow("F", "Female").
			AddRow("M", "Male"))

	def, err := store.CodeTable(context.Background(), "0001")
	require.NoError(t, err)
	require.Len(t, def.Entries, 2)
	assert.Equal(t, "Female", def.Entries[0].Display)
}
