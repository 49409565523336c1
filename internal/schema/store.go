// Package schema loads and caches the structural definitions that drive
// message composition: trigger events, segments, data types and code tables.
// Definitions are immutable after load; every provider implementation is
// safe for concurrent readers.
package schema

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/domain"
)

//go:embed definitions
var embeddedDefinitions embed.FS

// Store serves definitions from a JSON definition pack laid out as
// definitions/{trigger_events,segments,data_types,tables}/<code>.json,
// the layout produced by the standard-catalog extraction tooling.
type Store struct {
	fsys fs.FS
	log  *logrus.Logger
}

// NewStore creates a store over an arbitrary definition pack filesystem.
func NewStore(fsys fs.FS, logger *logrus.Logger) *Store {
	return &Store{fsys: fsys, log: logger}
}

// NewEmbeddedStore creates a store over the HL7 v2.3 subset shipped with the
// binary.
func NewEmbeddedStore(logger *logrus.Logger) *Store {
	sub, err := fs.Sub(embeddedDefinitions, "definitions")
	if err != nil {
		// The embedded tree is fixed at compile time; failing to subtree it
		// means the build itself is broken.
		panic(fmt.Sprintf("embedded definition pack unavailable: %v", err))
	}
	return &Store{fsys: sub, log: logger}
}

// TriggerEvent loads a trigger-event definition by its lower-cased code,
// e.g. "adt_a01".
func (s *Store) TriggerEvent(ctx context.Context, code string) (*domain.TriggerEventDefinition, error) {
	var def domain.TriggerEventDefinition
	if err := s.load(domain.KindTriggerEvent, "trigger_events", strings.ToLower(code), &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Segment loads a segment definition by its three-letter code.
func (s *Store) Segment(ctx context.Context, code string) (*domain.SegmentDefinition, error) {
	var def domain.SegmentDefinition
	if err := s.load(domain.KindSegment, "segments", strings.ToUpper(code), &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// DataType loads a data-type definition by code, e.g. "XPN".
func (s *Store) DataType(ctx context.Context, code string) (*domain.DataTypeDefinition, error) {
	var def domain.DataTypeDefinition
	if err := s.load(domain.KindDataType, "data_types", strings.ToUpper(code), &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// CodeTable loads a code table by its four-digit identifier, e.g. "0001".
func (s *Store) CodeTable(ctx context.Context, id string) (*domain.CodeTable, error) {
	var def domain.CodeTable
	if err := s.load(domain.KindCodeTable, "tables", id, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// TriggerEventCodes lists every trigger-event code in the pack.
func (s *Store) TriggerEventCodes() ([]string, error) {
	return s.list("trigger_events")
}

// SegmentCodes lists every segment code in the pack.
func (s *Store) SegmentCodes() ([]string, error) {
	return s.list("segments")
}

// DataTypeCodes lists every data-type code in the pack.
func (s *Store) DataTypeCodes() ([]string, error) {
	return s.list("data_types")
}

// CodeTableIDs lists every code-table identifier in the pack.
func (s *Store) CodeTableIDs() ([]string, error) {
	return s.list("tables")
}

func (s *Store) list(dir string) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s definitions: %w", dir, err)
	}
	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		codes = append(codes, strings.TrimSuffix(name, ".json"))
	}
	return codes, nil
}

func (s *Store) load(kind, dir, code string, out interface{}) error {
	name := path.Join(dir, code+".json")

	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"kind": kind,
			"code": code,
		}).Debug("Definition file not present in pack")
		return domain.NewSchemaNotFound(kind, code)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s definition %s: %w", kind, code, err)
	}
	return nil
}
