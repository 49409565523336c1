package domain

import (
	"fmt"
)

// FieldPath renders the canonical "SEG.n" path used by locked values and the
// temporal relationship table, e.g. "PV1.44".
func FieldPath(segment string, position int) string {
	return fmt.Sprintf("%s.%d", segment, position)
}

// TriggerEventDefinition describes the segment structure of one message type,
// e.g. ADT_A01. Segment occurrences are processed in declared order; groups
// are represented inline as occurrence rows with IsGroup set and a nesting
// Level, and are guaranteed well-nested by the definition source.
type TriggerEventDefinition struct {
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Chapter     string              `json:"chapter,omitempty"`
	Segments    []SegmentOccurrence `json:"segments"`
}

// RequiredSegmentCount returns how many non-group occurrences are marked
// required. Required segments are never omitted during composition.
func (t *TriggerEventDefinition) RequiredSegmentCount() int {
	n := 0
	for _, occ := range t.Segments {
		if !occ.IsGroup && occ.Optionality.IsRequired() {
			n++
		}
	}
	return n
}

// SegmentOccurrence is one row of a trigger event's segment layout: either a
// concrete segment reference or a group marker that opens a nested block of
// occurrences at Level+1.
type SegmentOccurrence struct {
	Position      int           `json:"position"`
	SegmentCode   string        `json:"segment_code"`
	Optionality   Optionality   `json:"optionality"`
	Repeatability Repeatability `json:"repeatability"`
	IsGroup       bool          `json:"is_group"`
	Level         int           `json:"level"`
}

// SegmentDefinition describes one segment type's ordered field list.
// Position is unique within a segment and fields are emitted in position
// order, left to right.
type SegmentDefinition struct {
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Fields      []FieldDefinition `json:"fields"`
}

// FieldDefinition describes one field position within a segment.
type FieldDefinition struct {
	Position      int           `json:"position"`
	Name          string        `json:"name"`
	DataType      string        `json:"data_type"`
	Optionality   Optionality   `json:"optionality"`
	Repeatability Repeatability `json:"repeatability"`
	MaxLength     int           `json:"length,omitempty"`
	Table         string        `json:"table,omitempty"`
}

// DataTypeDefinition describes a primitive or composite HL7 data type.
// Composite types own an ordered component list; component expansion is
// bounded to one level (components are resolved as leaves).
type DataTypeDefinition struct {
	Code       string                `json:"code"`
	Name       string                `json:"name"`
	Components []ComponentDefinition `json:"components,omitempty"`
}

// IsComposite reports whether the data type expands into sub-components.
func (d *DataTypeDefinition) IsComposite() bool {
	return len(d.Components) > 0
}

// ComponentDefinition describes one sub-component of a composite data type.
type ComponentDefinition struct {
	Position    int         `json:"position"`
	Name        string      `json:"name"`
	DataType    string      `json:"data_type"`
	Optionality Optionality `json:"optionality"`
	Table       string      `json:"table,omitempty"`
}

// CodeTable enumerates the valid codes for a table-bound field, e.g. table
// 0001 (administrative sex).
type CodeTable struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Entries []CodeTableEntry `json:"entries"`
}

// CodeTableEntry is a single coded value and its display text.
type CodeTableEntry struct {
	Code    string `json:"code"`
	Display string `json:"display"`
}
