// Package domain contains core business entities and types for schema-driven
// HL7 v2.x message synthesis: the structural definitions that describe a
// message family (trigger events, segments, data types, code tables), the
// clinical seed data a message is generated from, and the transient state
// carried through one composition call.
//
// Structural definitions follow the HL7 v2.3 standard layout as published in
// the per-version definition catalogs (trigger events own ordered segment
// occurrences; segments own ordered fields; composite data types own ordered
// components; tables enumerate valid codes).
package domain

import (
	"errors"
)

// Optionality marks whether a segment occurrence or field must be populated.
// Values mirror the standard's usage codes.
type Optionality string

const (
	REQUIRED Optionality = "R"
	OPTIONAL Optionality = "O"
	// BACKWARD marks fields retained only for backward compatibility; the
	// engine treats them as optional.
	BACKWARD Optionality = "B"
)

// IsRequired reports whether the element must always be populated.
func (o Optionality) IsRequired() bool {
	return o == REQUIRED
}

// Repeatability marks whether a segment occurrence or field may repeat.
type Repeatability string

const (
	ONCE      Repeatability = "1"
	UNBOUNDED Repeatability = "*"
)

// Repeats reports whether more than one occurrence is allowed.
func (r Repeatability) Repeats() bool {
	return r == UNBOUNDED
}

// ImportanceTier classifies how likely an optional composite sub-component is
// to be populated in real-world messages. Uniform random population of every
// optional sub-field produces uniformly sparse, implausible test data; the
// tiers mimic observed population patterns (street and city are almost always
// present in an address, census tract almost never is).
type ImportanceTier string

const (
	CRITICAL   ImportanceTier = "CRITICAL"
	IMPORTANT  ImportanceTier = "IMPORTANT"
	INCIDENTAL ImportanceTier = "INCIDENTAL"
)

// PopulationProbability returns the chance that a component in this tier is
// populated at all.
func (t ImportanceTier) PopulationProbability() float64 {
	switch t {
	case CRITICAL:
		return 0.95
	case IMPORTANT:
		return 0.5
	default:
		return 0.2
	}
}

// Validation errors shared across the domain.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidMessageType = errors.New("invalid message type")
)
