package domain

import (
	"context"
)

// SchemaProvider supplies immutable structural definitions. Implementations
// must be safe for concurrent reads: definitions are loaded lazily, cached,
// and never change during a process's lifetime. Absent definitions are
// reported with an error wrapping ErrSchemaNotFound, never a panic.
type SchemaProvider interface {
	TriggerEvent(ctx context.Context, code string) (*TriggerEventDefinition, error)
	Segment(ctx context.Context, code string) (*SegmentDefinition, error)
	DataType(ctx context.Context, code string) (*DataTypeDefinition, error)
	CodeTable(ctx context.Context, id string) (*CodeTable, error)
}

// FieldResolver is one strategy in the prioritized resolution chain. The
// chain queries resolvers in descending Priority order; the first one whose
// CanResolve accepts the field context produces the value. Resolvers must be
// stateless or internally thread-safe: one chain instance serves concurrent
// composition calls.
type FieldResolver interface {
	// Name identifies the resolver in logs.
	Name() string

	// Priority orders the chain; higher runs first. The ordering is a
	// documented contract, not incidental: locked values > standards
	// semantics > demographic pools > data-type fallback.
	Priority() int

	// CanResolve reports whether this strategy can supply a value for the
	// field context (by segment code, position, semantic name or data type).
	CanResolve(fc *FieldContext) bool

	// Resolve produces the field value. An empty return degrades the field
	// to blank; resolution never aborts composition.
	Resolve(fc *FieldContext) string
}

// CompositeResolver is implemented by resolvers that can produce an entire
// composite field's sub-components coherently in one call, e.g. keeping a
// coded element's code and display text describing the same concept.
type CompositeResolver interface {
	FieldResolver

	// CanResolveComposite reports whether the resolver handles the whole
	// composite data type for this field context.
	CanResolveComposite(fc *FieldContext, dataType *DataTypeDefinition) bool

	// ResolveComposite returns a component position (1-based) to value
	// mapping for the composite, or false to decline.
	ResolveComposite(fc *FieldContext, dataType *DataTypeDefinition) (map[int]string, bool)
}

// BundleGenerator synthesizes clinical seed bundles for callers that bring
// no fixtures of their own.
type BundleGenerator interface {
	Generate(ctx context.Context, messageType string, seed *int64) (*Bundle, error)
}
