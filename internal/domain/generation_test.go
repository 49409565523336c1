package domain

import (
	"testing"
	"time"
)

func TestGenerationOptions_Rand_Deterministic(t *testing.T) {
	seed := int64(42)
	opts := &GenerationOptions{Seed: &seed}

	a := opts.Rand()
	b := opts.Rand()

	for i := 0; i < 32; i++ {
		if a.Int63() != b.Int63() {
			t.Fatal("Expected identical sequences from the same seed")
		}
	}
}

func TestGenerationOptions_Rand_IndependentWhenUnseeded(t *testing.T) {
	opts := &GenerationOptions{}

	a := opts.Rand()
	b := opts.Rand()

	same := true
	for i := 0; i < 8; i++ {
		if a.Int63() != b.Int63() {
			same = false
			break
		}
	}
	if same {
		t.Error("Expected unseeded RNGs to diverge")
	}
}

func TestGenerationContext_TimestampLedger(t *testing.T) {
	gc := NewGenerationContext(&Bundle{Patient: &Patient{ID: "p1"}}, "ADT^A01", nil)

	if _, ok := gc.Timestamp("PV1.44"); ok {
		t.Error("Expected empty ledger at start of composition")
	}

	admit := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	gc.RecordTimestamp("PV1.44", admit)

	got, ok := gc.Timestamp("PV1.44")
	if !ok {
		t.Fatal("Expected recorded timestamp to be retrievable")
	}
	if !got.Equal(admit) {
		t.Errorf("Expected %v, got %v", admit, got)
	}

	if gc.LedgerSize() != 1 {
		t.Errorf("Expected ledger size 1, got %d", gc.LedgerSize())
	}
}

func TestFieldPath(t *testing.T) {
	if got := FieldPath("PV1", 44); got != "PV1.44" {
		t.Errorf("Expected PV1.44, got %s", got)
	}

	fc := &FieldContext{
		SegmentCode: "PID",
		Field:       &FieldDefinition{Position: 3, Name: "Patient Identifier List"},
	}
	if got := fc.FieldPath(); got != "PID.3" {
		t.Errorf("Expected PID.3, got %s", got)
	}
}

func TestTriggerEventDefinition_RequiredSegmentCount(t *testing.T) {
	def := &TriggerEventDefinition{
		Code: "adt_a01",
		Segments: []SegmentOccurrence{
			{Position: 1, SegmentCode: "MSH", Optionality: REQUIRED, Repeatability: ONCE},
			{Position: 2, SegmentCode: "EVN", Optionality: REQUIRED, Repeatability: ONCE},
			{Position: 3, SegmentCode: "PID", Optionality: REQUIRED, Repeatability: ONCE},
			{Position: 4, SegmentCode: "NK1", Optionality: OPTIONAL, Repeatability: UNBOUNDED},
			{Position: 5, SegmentCode: "INSURANCE", Optionality: OPTIONAL, IsGroup: true, Level: 0},
		},
	}

	if got := def.RequiredSegmentCount(); got != 3 {
		t.Errorf("Expected 3 required segments, got %d", got)
	}
}
