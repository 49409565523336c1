package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hl7-message-forge/internal/domain"
)

type stubResolver struct {
	name     string
	priority int
	accepts  bool
	value    string
}

func (s *stubResolver) Name() string                            { return s.name }
func (s *stubResolver) Priority() int                           { return s.priority }
func (s *stubResolver) CanResolve(fc *domain.FieldContext) bool { return s.accepts }
func (s *stubResolver) Resolve(fc *domain.FieldContext) string  { return s.value }

func TestChainOrdersByDescendingPriority(t *testing.T) {
	chain := NewResolverChain(testLogger(),
		&stubResolver{name: "low", priority: 10},
		&stubResolver{name: "high", priority: 100},
		&stubResolver{name: "mid", priority: 60},
	)
	assert.Equal(t, []string{"high", "mid", "low"}, chain.Resolvers())
}

func TestChainFirstAcceptingResolverWins(t *testing.T) {
	chain := NewResolverChain(testLogger(),
		&stubResolver{name: "low", priority: 10, accepts: true, value: "from-low"},
		&stubResolver{name: "high", priority: 100, accepts: false, value: "from-high"},
		&stubResolver{name: "mid", priority: 60, accepts: true, value: "from-mid"},
	)
	gc := domain.NewGenerationContext(testBundle(), "ADT^A01", nil)
	got := chain.Resolve(fieldCtx(gc, "PID", 19, "ST"))
	assert.Equal(t, "from-mid", got)
}

func TestChainNoResolverLeavesBlank(t *testing.T) {
	chain := NewResolverChain(testLogger(),
		&stubResolver{name: "never", priority: 50},
	)
	gc := domain.NewGenerationContext(testBundle(), "ADT^A01", nil)
	assert.Empty(t, chain.Resolve(fieldCtx(gc, "PID", 19, "ST")))
}

func TestChainLockedValueWinsOverOtherResolvers(t *testing.T) {
	chain := NewResolverChain(testLogger(),
		&stubResolver{name: "eager", priority: 90, accepts: true, value: "generated"},
		NewLockedValueResolver(),
	)
	opts := &domain.GenerationOptions{
		LockedValues: map[string]string{"PID.19": "987-65-4321"},
	}
	gc := domain.NewGenerationContext(testBundle(), "ADT^A01", opts)

	assert.Equal(t, "987-65-4321", chain.Resolve(fieldCtx(gc, "PID", 19, "ST")))
	assert.Equal(t, "generated", chain.Resolve(fieldCtx(gc, "PID", 18, "ST")),
		"unpinned paths fall through to the rest of the chain")
}

func TestDefaultChainPriorityContract(t *testing.T) {
	chain := NewResolverChain(testLogger(),
		NewFallbackResolver(),
		NewDemographicResolver(testLogger()),
		NewLockedValueResolver(),
	)
	assert.Equal(t, []string{"locked_value", "demographic", "fallback"}, chain.Resolvers())
}

func TestImportanceTiers(t *testing.T) {
	c := NewImportanceClassifier()

	assert.Equal(t, domain.CRITICAL, c.Tier("XPN", 1))
	assert.Equal(t, domain.IMPORTANT, c.Tier("XPN", 3))
	assert.Equal(t, domain.INCIDENTAL, c.Tier("XPN", 6))
	assert.Equal(t, domain.CRITICAL, c.Tier("XAD", 3))
	assert.Equal(t, domain.INCIDENTAL, c.Tier("XAD", 9))

	// Unmodeled types and positions stay sparse.
	assert.Equal(t, domain.INCIDENTAL, c.Tier("CM", 2))
	assert.Equal(t, domain.INCIDENTAL, c.Tier("XPN", 14))
}
