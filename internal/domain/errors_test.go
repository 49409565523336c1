package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestSchemaNotFoundError(t *testing.T) {
	tests := []struct {
		name string
		kind string
		code string
		want string
	}{
		{
			name: "Missing trigger event",
			kind: KindTriggerEvent,
			code: "zzz_z99",
			want: "trigger_event definition not found: zzz_z99",
		},
		{
			name: "Missing segment",
			kind: KindSegment,
			code: "ZZZ",
			want: "segment definition not found: ZZZ",
		},
		{
			name: "Missing code table",
			kind: KindCodeTable,
			code: "0001",
			want: "code_table definition not found: 0001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSchemaNotFound(tt.kind, tt.code)

			if err.Error() != tt.want {
				t.Errorf("Expected error string %q, got %q", tt.want, err.Error())
			}

			if !errors.Is(err, ErrSchemaNotFound) {
				t.Error("Expected errors.Is to match ErrSchemaNotFound")
			}
		})
	}
}

func TestSchemaNotFoundError_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("loading definitions: %w", NewSchemaNotFound(KindDataType, "XPN"))

	if !errors.Is(err, ErrSchemaNotFound) {
		t.Error("Expected wrapped error to still match ErrSchemaNotFound")
	}

	var snf *SchemaNotFoundError
	if !errors.As(err, &snf) {
		t.Fatal("Expected errors.As to recover SchemaNotFoundError")
	}
	if snf.Code != "XPN" {
		t.Errorf("Expected code XPN, got %s", snf.Code)
	}
}

func TestCompositionError(t *testing.T) {
	cause := NewSchemaNotFound(KindTriggerEvent, "zzz_z99")
	err := &CompositionError{TriggerEvent: "zzz_z99", Err: cause}

	if err.Error() != "composing zzz_z99: trigger_event definition not found: zzz_z99" {
		t.Errorf("Unexpected error string: %s", err.Error())
	}

	if !errors.Is(err, ErrSchemaNotFound) {
		t.Error("Expected CompositionError to unwrap to its cause")
	}
}
