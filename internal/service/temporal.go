package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/domain"
	"github.com/hl7-message-forge/pkg/hl7"
)

// encounterStartPath is the anchor most clinical timestamps hang off.
// PV1.44 carries the admit date/time in ADT messages.
const encounterStartPath = "PV1.44"

// temporalRelationship binds a field path to an anchor field and an
// offset window. When the field's timestamp is generated, it lands
// between anchor+Min and anchor+Max.
type temporalRelationship struct {
	Anchor string
	Min    time.Duration
	Max    time.Duration
}

// defaultRelationships orders clinical events so a composed message
// reads plausibly: the event is recorded shortly after admission,
// diagnoses within the stay, observations after the order, discharge
// at least a day after admit.
var defaultRelationships = map[string]temporalRelationship{
	"EVN.2":  {Anchor: encounterStartPath, Min: 0, Max: 2 * time.Hour},
	"EVN.6":  {Anchor: encounterStartPath, Min: 0, Max: time.Hour},
	"DG1.5":  {Anchor: encounterStartPath, Min: 0, Max: 48 * time.Hour},
	"OBR.6":  {Anchor: encounterStartPath, Min: 0, Max: 12 * time.Hour},
	"OBR.7":  {Anchor: "OBR.6", Min: 0, Max: 4 * time.Hour},
	"OBR.14": {Anchor: "OBR.7", Min: 0, Max: 2 * time.Hour},
	"OBR.22": {Anchor: "OBR.7", Min: time.Hour, Max: 24 * time.Hour},
	"OBX.14": {Anchor: "OBR.7", Min: 0, Max: 4 * time.Hour},
	"PV1.45": {Anchor: encounterStartPath, Min: 24 * time.Hour, Max: 240 * time.Hour},
}

// TemporalTracker generates timestamps that are mutually coherent
// within a single message. Generated values are recorded in the
// message's ledger so later fields can anchor on earlier ones.
type TemporalTracker struct {
	relationships map[string]temporalRelationship
	log           *logrus.Logger
}

func NewTemporalTracker(log *logrus.Logger) *TemporalTracker {
	return &TemporalTracker{
		relationships: defaultRelationships,
		log:           log,
	}
}

// Tracks reports whether the tracker has an opinion about the field's
// timestamp, either through a declared relationship or bundle data.
func (t *TemporalTracker) Tracks(fc *domain.FieldContext) bool {
	path := fc.FieldPath()
	if path == encounterStartPath {
		return true
	}
	_, ok := t.relationships[path]
	return ok
}

// Generate produces the timestamp for the field and records it in the
// generation ledger. Bundle data wins when present: the encounter's
// admit and discharge times and the observation's collection time are
// used verbatim so the message agrees with its clinical context.
func (t *TemporalTracker) Generate(fc *domain.FieldContext) time.Time {
	gc := fc.Generation
	path := fc.FieldPath()

	if ts, ok := t.fromBundle(fc, path); ok {
		gc.RecordTimestamp(path, ts)
		return ts
	}

	rel, ok := t.relationships[path]
	if !ok {
		// Untracked path: fall back to the encounter start so the
		// value still sits inside the message's timeline.
		ts := t.anchorTime(gc, encounterStartPath)
		gc.RecordTimestamp(path, ts)
		return ts
	}

	anchor := t.anchorTime(gc, rel.Anchor)
	span := rel.Max - rel.Min
	offset := rel.Min
	if span > 0 {
		offset += time.Duration(gc.Rand.Int63n(int64(span)))
	}
	ts := anchor.Add(offset)
	gc.RecordTimestamp(path, ts)

	t.log.WithFields(logrus.Fields{
		"path":   path,
		"anchor": rel.Anchor,
		"offset": offset,
	}).Debug("Generated anchored timestamp")

	return ts
}

// fromBundle returns a timestamp dictated by the clinical bundle, if
// the bundle carries one for this path.
func (t *TemporalTracker) fromBundle(fc *domain.FieldContext, path string) (time.Time, bool) {
	bundle := fc.Generation.Bundle
	if bundle == nil {
		return time.Time{}, false
	}
	switch path {
	case encounterStartPath:
		if bundle.Encounter != nil && !bundle.Encounter.AdmitTime.IsZero() {
			return bundle.Encounter.AdmitTime, true
		}
	case "PV1.45":
		if bundle.Encounter != nil && bundle.Encounter.DischargeTime != nil {
			return *bundle.Encounter.DischargeTime, true
		}
	case "OBX.14":
		if bundle.Observation != nil && !bundle.Observation.ObservedAt.IsZero() {
			return bundle.Observation.ObservedAt, true
		}
	}
	return time.Time{}, false
}

// anchorTime resolves an anchor path to a concrete time, walking the
// fallback chain: recorded ledger entry, then the encounter start,
// then the bundle's admit time, then the current clock.
func (t *TemporalTracker) anchorTime(gc *domain.GenerationContext, anchor string) time.Time {
	if ts, ok := gc.Timestamp(anchor); ok {
		return ts
	}
	if anchor != encounterStartPath {
		if ts, ok := gc.Timestamp(encounterStartPath); ok {
			return ts
		}
	}
	if gc.Bundle != nil && gc.Bundle.Encounter != nil && !gc.Bundle.Encounter.AdmitTime.IsZero() {
		return gc.Bundle.Encounter.AdmitTime
	}
	return time.Now()
}

// Format renders a generated timestamp in HL7 DTM form.
func (t *TemporalTracker) Format(fc *domain.FieldContext) string {
	return hl7.FormatTimestamp(t.Generate(fc))
}
