package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/domain"
	"github.com/hl7-message-forge/pkg/hl7"
)

const defaultOptionalFieldProbability = 0.3

// FieldGenerator produces one field's wire value. Optional fields may
// be skipped outright before any schema expansion; composite data
// types expand component by component with importance-tier gating.
type FieldGenerator struct {
	provider   domain.SchemaProvider
	chain      *ResolverChain
	importance *ImportanceClassifier
	log        *logrus.Logger
}

func NewFieldGenerator(provider domain.SchemaProvider, chain *ResolverChain, importance *ImportanceClassifier, log *logrus.Logger) *FieldGenerator {
	return &FieldGenerator{
		provider:   provider,
		chain:      chain,
		importance: importance,
		log:        log,
	}
}

// Generate returns the encoded value for the field, or the empty
// string when the field is skipped or nothing resolves. Field-level
// problems never abort the message.
func (g *FieldGenerator) Generate(ctx context.Context, fc *domain.FieldContext) string {
	// Caller-pinned values bypass skipping and expansion entirely and
	// go out verbatim, components and all.
	if opts := fc.Generation.Options; opts != nil {
		if v, ok := opts.LockedValues[fc.FieldPath()]; ok {
			return v
		}
	}

	if g.skipOptional(fc) {
		return ""
	}

	dataType, err := g.provider.DataType(ctx, fc.Field.DataType)
	if err != nil {
		if !errors.Is(err, domain.ErrSchemaNotFound) {
			g.log.WithError(err).WithField("data_type", fc.Field.DataType).
				Warn("Data type lookup failed, treating as primitive")
		}
		return hl7.Escape(g.chain.Resolve(fc))
	}

	if !dataType.IsComposite() {
		return hl7.Escape(g.chain.Resolve(fc))
	}
	return g.generateComposite(fc, dataType)
}

// skipOptional rolls the populate check for non-required fields. The
// roll happens before the data type is even looked up, so skipped
// fields cost nothing.
func (g *FieldGenerator) skipOptional(fc *domain.FieldContext) bool {
	if fc.Field.Optionality.IsRequired() {
		return false
	}
	p := defaultOptionalFieldProbability
	if opts := fc.Generation.Options; opts != nil && opts.OptionalFieldProbability > 0 {
		p = opts.OptionalFieldProbability
	}
	return fc.Generation.Rand.Float64() >= p
}

// generateComposite fills a composite field. A composite-aware
// resolver may supply the whole component map in one coherent shot;
// anything it leaves out is filled component by component, with
// optional components gated by their importance tier.
func (g *FieldGenerator) generateComposite(fc *domain.FieldContext, dataType *domain.DataTypeDefinition) string {
	values, _ := g.chain.ResolveComposite(fc, dataType)
	if values == nil {
		values = make(map[int]string)
	}

	for i := range dataType.Components {
		comp := &dataType.Components[i]
		if _, ok := values[comp.Position]; ok {
			continue
		}
		if !comp.Optionality.IsRequired() && !g.rollTier(fc, dataType.Code, comp.Position) {
			continue
		}
		values[comp.Position] = g.resolveComponent(fc, dataType, comp)
	}

	// The rendered width covers both the declared components and any
	// higher positions a resolver chose to fill.
	maxPos := len(dataType.Components)
	for _, comp := range dataType.Components {
		if comp.Position > maxPos {
			maxPos = comp.Position
		}
	}
	for pos := range values {
		if pos > maxPos {
			maxPos = pos
		}
	}

	// Trailing empty components are kept: the rendered width is part of
	// the field's contract, not a function of which components resolved.
	parts := make([]string, maxPos)
	empty := true
	for pos, v := range values {
		if pos >= 1 && pos <= maxPos && v != "" {
			parts[pos-1] = hl7.Escape(v)
			empty = false
		}
	}
	if empty {
		return ""
	}
	return strings.Join(parts, hl7.ComponentSeparator)
}

func (g *FieldGenerator) rollTier(fc *domain.FieldContext, dataTypeCode string, position int) bool {
	tier := g.importance.Tier(dataTypeCode, position)
	return fc.Generation.Rand.Float64() < tier.PopulationProbability()
}

// resolveComponent runs the chain against a synthetic field context
// describing the single component.
func (g *FieldGenerator) resolveComponent(fc *domain.FieldContext, dataType *domain.DataTypeDefinition, comp *domain.ComponentDefinition) string {
	compField := &domain.FieldDefinition{
		Position:    fc.Field.Position,
		Name:        comp.Name,
		DataType:    comp.DataType,
		Optionality: comp.Optionality,
		Table:       comp.Table,
	}
	compCtx := &domain.FieldContext{
		SegmentCode: fc.SegmentCode,
		Field:       compField,
		Generation:  fc.Generation,
		Occurrence:  fc.Occurrence,
	}
	return g.chain.Resolve(compCtx)
}
