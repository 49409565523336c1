package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/dataset"
	"github.com/hl7-message-forge/internal/domain"
	"github.com/hl7-message-forge/pkg/hl7"
)

// SegmentGenerator renders one segment instance as a wire line.
type SegmentGenerator struct {
	provider domain.SchemaProvider
	fields   *FieldGenerator
	log      *logrus.Logger
}

func NewSegmentGenerator(provider domain.SchemaProvider, fields *FieldGenerator, log *logrus.Logger) *SegmentGenerator {
	return &SegmentGenerator{
		provider: provider,
		fields:   fields,
		log:      log,
	}
}

// Generate renders the segment. A segment whose definition is absent
// from the schema source degrades to its bare three-letter code, which
// keeps the message structurally valid. Infrastructure errors are
// returned for the composer to decide on.
func (g *SegmentGenerator) Generate(ctx context.Context, gc *domain.GenerationContext, code string, occurrence int) (string, error) {
	schema, err := g.provider.Segment(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrSchemaNotFound) {
			g.log.WithField("segment", code).Debug("No segment definition, emitting bare code")
			return code, nil
		}
		return "", err
	}

	if code == "MSH" {
		return g.generateMSH(ctx, gc, schema), nil
	}

	maxPos := 0
	byPos := make(map[int]*domain.FieldDefinition, len(schema.Fields))
	for i := range schema.Fields {
		f := &schema.Fields[i]
		byPos[f.Position] = f
		if f.Position > maxPos {
			maxPos = f.Position
		}
	}

	values := make([]string, maxPos)
	for pos := 1; pos <= maxPos; pos++ {
		f, ok := byPos[pos]
		if !ok {
			// Positions the definition does not describe stay empty so
			// the described ones keep their indexes on the wire.
			continue
		}
		fc := &domain.FieldContext{
			SegmentCode: code,
			Field:       f,
			Generation:  gc,
			Occurrence:  occurrence,
		}
		values[pos-1] = g.fields.Generate(ctx, fc)
	}

	line := code + hl7.FieldSeparator + strings.Join(values, hl7.FieldSeparator)
	return strings.TrimRight(line, hl7.FieldSeparator), nil
}

// generateMSH builds the message header. MSH.1 is the field separator
// itself and MSH.2 the encoding characters, so the first encoded field
// after the code is MSH.2 and it is never escaped. The protocol
// bookkeeping fields are fixed by the message being composed rather
// than resolved through the chain.
func (g *SegmentGenerator) generateMSH(ctx context.Context, gc *domain.GenerationContext, schema *domain.SegmentDefinition) string {
	maxPos := 0
	for i := range schema.Fields {
		if schema.Fields[i].Position > maxPos {
			maxPos = schema.Fields[i].Position
		}
	}
	if maxPos < 12 {
		maxPos = 12
	}

	values := make([]string, 0, maxPos-1)
	for pos := 2; pos <= maxPos; pos++ {
		values = append(values, g.mshField(ctx, gc, schema, pos))
	}
	line := "MSH" + hl7.FieldSeparator + strings.Join(values, hl7.FieldSeparator)
	return strings.TrimRight(line, hl7.FieldSeparator)
}

func (g *SegmentGenerator) mshField(ctx context.Context, gc *domain.GenerationContext, schema *domain.SegmentDefinition, pos int) string {
	path := domain.FieldPath("MSH", pos)
	if opts := gc.Options; opts != nil {
		if v, ok := opts.LockedValues[path]; ok && pos != 2 {
			return v
		}
	}

	switch pos {
	case 2:
		return hl7.EncodingCharacters
	case 3:
		return dataset.Pick(gc.Rand, dataset.Applications)
	case 4:
		return dataset.Pick(gc.Rand, dataset.Facilities)
	case 5:
		return dataset.Pick(gc.Rand, dataset.Applications)
	case 6:
		return dataset.Pick(gc.Rand, dataset.Facilities)
	case 7:
		ts := messageTime(gc)
		gc.RecordTimestamp(path, ts)
		return hl7.FormatTimestamp(ts)
	case 9:
		return gc.MessageType
	case 10:
		return controlID(gc)
	case 11:
		return "P"
	case 12:
		return "2.3"
	}

	// Remaining positions go through the normal field machinery.
	return g.mshSchemaField(ctx, gc, schema, pos)
}

func (g *SegmentGenerator) mshSchemaField(ctx context.Context, gc *domain.GenerationContext, schema *domain.SegmentDefinition, pos int) string {
	for i := range schema.Fields {
		if schema.Fields[i].Position == pos {
			fc := &domain.FieldContext{
				SegmentCode: "MSH",
				Field:       &schema.Fields[i],
				Generation:  gc,
				Occurrence:  1,
			}
			return g.fields.Generate(ctx, fc)
		}
	}
	return ""
}

// messageTime is the header timestamp. A message about an encounter is
// sent shortly after the encounter starts; without one the wall clock
// is all there is.
func messageTime(gc *domain.GenerationContext) time.Time {
	if gc.Bundle != nil && gc.Bundle.Encounter != nil && !gc.Bundle.Encounter.AdmitTime.IsZero() {
		return gc.Bundle.Encounter.AdmitTime.Add(time.Duration(gc.Rand.Intn(120)) * time.Minute)
	}
	return time.Now()
}

// controlID draws the message control identifier from the message's
// own RNG so seeded compositions reproduce it.
func controlID(gc *domain.GenerationContext) string {
	id, err := uuid.NewRandomFromReader(gc.Rand)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
