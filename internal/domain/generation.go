package domain

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
	"time"
)

// GenerationOptions configures one composition call.
type GenerationOptions struct {
	// Seed makes composition deterministic when non-nil: two runs with the
	// same seed, bundle and schema source produce byte-identical output.
	Seed *int64 `json:"seed,omitempty"`

	// SegmentInclusionProbabilities overrides the default optional-segment
	// inclusion chance per segment code.
	SegmentInclusionProbabilities map[string]float64 `json:"segment_inclusion_probabilities,omitempty"`

	// SegmentRepeatCounts pins the total number of occurrences emitted for
	// an unbounded segment, per segment code. A count of 3 yields exactly
	// three occurrences, not three repeats after the first.
	SegmentRepeatCounts map[string]int `json:"segment_repeat_counts,omitempty"`

	// LockedValues pins exact field values by field path (e.g. "PID.3") for
	// cross-message consistency. Locked values win over every resolver.
	LockedValues map[string]string `json:"locked_values,omitempty"`

	// OptionalSegmentProbability is the default inclusion chance for
	// optional segments. Zero means the engine default (0.6).
	OptionalSegmentProbability float64 `json:"optional_segment_probability,omitempty"`

	// OptionalFieldProbability is the chance an optional field is populated
	// at all. Zero means the engine default (0.3).
	OptionalFieldProbability float64 `json:"optional_field_probability,omitempty"`
}

// Rand builds the RNG for one composition call. Seeded compositions get a
// deterministic source; unseeded ones draw their seed from the process
// entropy source so concurrent compositions never share RNG state.
func (o *GenerationOptions) Rand() *mrand.Rand {
	if o != nil && o.Seed != nil {
		return mrand.New(mrand.NewSource(*o.Seed))
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Entropy failure is effectively impossible; fall back to wall clock
		// rather than aborting test-data generation.
		return mrand.New(mrand.NewSource(time.Now().UnixNano()))
	}
	return mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
}

// GenerationContext carries everything one message's composition needs: the
// clinical bundle, the target message type, the RNG handle and the timestamp
// ledger. It is created at the start of one composition call, owned
// exclusively by it, and discarded at the end.
type GenerationContext struct {
	Bundle      *Bundle
	MessageType string
	Options     *GenerationOptions
	Rand        *mrand.Rand

	mu     sync.Mutex
	ledger map[string]time.Time
}

// NewGenerationContext builds the per-message context. Options may be nil.
func NewGenerationContext(bundle *Bundle, messageType string, opts *GenerationOptions) *GenerationContext {
	if opts == nil {
		opts = &GenerationOptions{}
	}
	return &GenerationContext{
		Bundle:      bundle,
		MessageType: messageType,
		Options:     opts,
		Rand:        opts.Rand(),
		ledger:      make(map[string]time.Time),
	}
}

// RecordTimestamp stores a generated timestamp under its field path so later
// fields in the same message may anchor to it.
func (g *GenerationContext) RecordTimestamp(fieldPath string, t time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ledger[fieldPath] = t
}

// Timestamp looks up a previously generated timestamp by field path.
func (g *GenerationContext) Timestamp(fieldPath string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.ledger[fieldPath]
	return t, ok
}

// LedgerSize reports how many timestamps have been recorded so far.
func (g *GenerationContext) LedgerSize() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ledger)
}

// FieldContext is the transient per-field value object handed to resolvers.
// It has no independent lifecycle: created fresh per field or component
// resolution and discarded immediately after.
type FieldContext struct {
	SegmentCode string
	Field       *FieldDefinition
	Generation  *GenerationContext

	// Occurrence is the 1-based repeat index of the enclosing segment,
	// used for Set ID sequence fields.
	Occurrence int
}

// FieldPath returns the "SEG.n" path of the field being resolved.
func (f *FieldContext) FieldPath() string {
	return FieldPath(f.SegmentCode, f.Field.Position)
}
