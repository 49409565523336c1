package service

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/domain"
)

// ResolverChain queries a fixed set of field resolvers in descending
// priority order. The chain is assembled once at startup and shared by
// all composition calls; the sort happens at construction, not per
// field.
type ResolverChain struct {
	resolvers []domain.FieldResolver
	log       *logrus.Logger
}

func NewResolverChain(log *logrus.Logger, resolvers ...domain.FieldResolver) *ResolverChain {
	sorted := make([]domain.FieldResolver, len(resolvers))
	copy(sorted, resolvers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})
	return &ResolverChain{
		resolvers: sorted,
		log:       log,
	}
}

// Resolve walks the chain and returns the first accepted resolver's
// value. No resolver accepting means the field stays blank, which is a
// legitimate outcome rather than an error.
func (c *ResolverChain) Resolve(fc *domain.FieldContext) string {
	for _, r := range c.resolvers {
		if !r.CanResolve(fc) {
			continue
		}
		value := r.Resolve(fc)
		c.log.WithFields(logrus.Fields{
			"path":     fc.FieldPath(),
			"resolver": r.Name(),
		}).Trace("Resolved field")
		return value
	}
	return ""
}

// ResolveComposite offers the whole composite to each composite-aware
// resolver in priority order. A resolver producing the full component
// map keeps related components coherent, e.g. a code and its display
// text naming the same concept.
func (c *ResolverChain) ResolveComposite(fc *domain.FieldContext, dataType *domain.DataTypeDefinition) (map[int]string, bool) {
	for _, r := range c.resolvers {
		cr, ok := r.(domain.CompositeResolver)
		if !ok {
			continue
		}
		if !cr.CanResolveComposite(fc, dataType) {
			continue
		}
		if components, ok := cr.ResolveComposite(fc, dataType); ok {
			c.log.WithFields(logrus.Fields{
				"path":      fc.FieldPath(),
				"data_type": dataType.Code,
				"resolver":  cr.Name(),
			}).Trace("Resolved composite field")
			return components, true
		}
	}
	return nil, false
}

// Resolvers exposes the chain's ordering for diagnostics.
func (c *ResolverChain) Resolvers() []string {
	names := make([]string, len(c.resolvers))
	for i, r := range c.resolvers {
		names[i] = r.Name()
	}
	return names
}
