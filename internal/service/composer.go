package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/domain"
	"github.com/hl7-message-forge/pkg/hl7"
)

const defaultSegmentInclusionProbability = 0.6

// repeatCeilings caps how many times an unbounded segment repeats when
// the caller does not pin a count. Result segments fan out wider than
// the rest.
var repeatCeilings = map[string]int{
	"OBX": 5,
	"NTE": 3,
}

const defaultRepeatCeiling = 2

// Composer walks a trigger event's segment tree and renders one
// complete message. It is stateless across calls: every per-message
// mutable state lives in the generation context.
type Composer struct {
	provider domain.SchemaProvider
	segments *SegmentGenerator
	log      *logrus.Logger
}

func NewComposer(provider domain.SchemaProvider, segments *SegmentGenerator, log *logrus.Logger) *Composer {
	return &Composer{
		provider: provider,
		segments: segments,
		log:      log,
	}
}

// NewDefaultComposer wires the full default pipeline: temporal tracker,
// the four-resolver chain, importance-tiered field generation.
func NewDefaultComposer(provider domain.SchemaProvider, log *logrus.Logger) *Composer {
	temporal := NewTemporalTracker(log)
	chain := NewResolverChain(log,
		NewLockedValueResolver(),
		NewStandardsResolver(provider, temporal, log),
		NewDemographicResolver(log),
		NewFallbackResolver(),
	)
	fields := NewFieldGenerator(provider, chain, NewImportanceClassifier(), log)
	segments := NewSegmentGenerator(provider, fields, log)
	return NewComposer(provider, segments, log)
}

// Compose renders one message of the given type ("ADT^A01") seeded by
// the bundle. An unknown or malformed message type is fatal; a single
// failing segment is logged and skipped so the rest of the message
// still comes out.
func (c *Composer) Compose(ctx context.Context, messageType string, bundle *domain.Bundle, opts *domain.GenerationOptions) (string, error) {
	triggerCode, err := TriggerCode(messageType)
	if err != nil {
		return "", &domain.CompositionError{TriggerEvent: messageType, Err: err}
	}

	event, err := c.provider.TriggerEvent(ctx, triggerCode)
	if err != nil {
		return "", &domain.CompositionError{TriggerEvent: messageType, Err: err}
	}

	gc := domain.NewGenerationContext(bundle, messageType, opts)

	lines := make([]string, 0, len(event.Segments))
	// groupStack[i] records whether the group at nesting depth i was
	// included; members of an excluded group are skipped wholesale.
	var groupStack []bool

	for i := range event.Segments {
		occ := &event.Segments[i]
		if occ.Level < len(groupStack) {
			groupStack = groupStack[:occ.Level]
		}
		if !allIncluded(groupStack) {
			continue
		}

		if occ.IsGroup {
			groupStack = append(groupStack, c.includeSegment(gc, occ))
			continue
		}

		if !c.includeSegment(gc, occ) {
			continue
		}

		for n := 1; n <= c.repeatCount(gc, occ); n++ {
			line, err := c.segments.Generate(ctx, gc, occ.SegmentCode, n)
			if err != nil {
				if occ.SegmentCode == "MSH" {
					return "", &domain.CompositionError{TriggerEvent: messageType, Err: err}
				}
				c.log.WithError(err).WithFields(logrus.Fields{
					"segment":      occ.SegmentCode,
					"message_type": messageType,
				}).Warn("Segment generation failed, skipping")
				continue
			}
			lines = append(lines, line)
		}
	}

	c.log.WithFields(logrus.Fields{
		"message_type": messageType,
		"segments":     len(lines),
		"timestamps":   gc.LedgerSize(),
	}).Debug("Composed message")

	return strings.Join(lines, hl7.SegmentTerminator), nil
}

// includeSegment decides whether an occurrence appears in this
// message. Required occurrences always do; optional ones roll against
// the per-code override, then the call-wide default.
func (c *Composer) includeSegment(gc *domain.GenerationContext, occ *domain.SegmentOccurrence) bool {
	if occ.Optionality.IsRequired() {
		return true
	}
	p := defaultSegmentInclusionProbability
	if opts := gc.Options; opts != nil {
		if override, ok := opts.SegmentInclusionProbabilities[occ.SegmentCode]; ok {
			p = override
		} else if opts.OptionalSegmentProbability > 0 {
			p = opts.OptionalSegmentProbability
		}
	}
	return gc.Rand.Float64() < p
}

// repeatCount picks how many instances of a repeating occurrence to
// emit. Callers may pin an exact count per segment code.
func (c *Composer) repeatCount(gc *domain.GenerationContext, occ *domain.SegmentOccurrence) int {
	if !occ.Repeatability.Repeats() {
		return 1
	}
	if opts := gc.Options; opts != nil {
		if n, ok := opts.SegmentRepeatCounts[occ.SegmentCode]; ok && n > 0 {
			return n
		}
	}
	ceiling := defaultRepeatCeiling
	if lim, ok := repeatCeilings[occ.SegmentCode]; ok {
		ceiling = lim
	}
	return 1 + gc.Rand.Intn(ceiling)
}

func allIncluded(stack []bool) bool {
	for _, in := range stack {
		if !in {
			return false
		}
	}
	return true
}

// TriggerCode maps a wire message type like "ADT^A01" to its trigger
// event definition code "adt_a01".
func TriggerCode(messageType string) (string, error) {
	parts := strings.Split(messageType, hl7.ComponentSeparator)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidMessageType, messageType)
	}
	return strings.ToLower(parts[0] + "_" + parts[1]), nil
}
