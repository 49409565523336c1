// Package hl7 holds the HL7 v2.x wire conventions shared by the composition
// engine: the reserved delimiter characters, escape sequences for delimiter
// characters appearing inside field values, and DTM timestamp formatting.
package hl7

import (
	"strings"
	"time"
)

// Reserved delimiter characters, as declared in MSH-1 and MSH-2 of every
// message this engine produces.
const (
	FieldSeparator        = "|"
	ComponentSeparator    = "^"
	RepetitionSeparator   = "~"
	EscapeCharacter       = "\\"
	SubComponentSeparator = "&"

	// EncodingCharacters is the MSH-2 literal: component, repetition,
	// escape and sub-component delimiters in standard order.
	EncodingCharacters = ComponentSeparator + RepetitionSeparator + EscapeCharacter + SubComponentSeparator

	// SegmentTerminator separates segment lines on the wire.
	SegmentTerminator = "\r"
)

// DTM layouts. HL7 DTM values are local timestamps without zone designators.
const (
	TimestampLayout = "20060102150405"
	DateLayout      = "20060102"
)

// FormatTimestamp renders a time as an HL7 DTM value to second precision.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FormatDate renders a time as an HL7 date (year, month, day only).
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseTimestamp parses a DTM value back to a time, accepting date-only
// values as midnight.
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) == len(DateLayout) {
		return time.Parse(DateLayout, s)
	}
	return time.Parse(TimestampLayout, s)
}

var escaper = strings.NewReplacer(
	EscapeCharacter, `\E\`,
	FieldSeparator, `\F\`,
	ComponentSeparator, `\S\`,
	RepetitionSeparator, `\R\`,
	SubComponentSeparator, `\T\`,
)

// Escape replaces reserved delimiter characters in a value with their HL7
// escape sequences so generated free-text content cannot break the segment
// structure.
func Escape(value string) string {
	return escaper.Replace(value)
}
