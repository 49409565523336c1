package service

import (
	"github.com/hl7-message-forge/internal/domain"
)

const (
	priorityLocked      = 100
	priorityStandards   = 80
	priorityDemographic = 60
	priorityFallback    = 10
)

// LockedValueResolver pins fields to caller-supplied exact values by
// field path. It sits at the top of the chain so locked values win over
// every generated one, which is what lets a caller hold PID.3 constant
// across a whole test scenario.
type LockedValueResolver struct{}

func NewLockedValueResolver() *LockedValueResolver {
	return &LockedValueResolver{}
}

func (r *LockedValueResolver) Name() string  { return "locked_value" }
func (r *LockedValueResolver) Priority() int { return priorityLocked }

func (r *LockedValueResolver) CanResolve(fc *domain.FieldContext) bool {
	opts := fc.Generation.Options
	if opts == nil || opts.LockedValues == nil {
		return false
	}
	_, ok := opts.LockedValues[fc.FieldPath()]
	return ok
}

func (r *LockedValueResolver) Resolve(fc *domain.FieldContext) string {
	return fc.Generation.Options.LockedValues[fc.FieldPath()]
}
