package plan

import (
	"context"
	"slices"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	plans map[Tier]Plan
}

// NewMemoryStore returns an in-memory Store seeded with the given plans.
// Panics if no plans are provided or a seed plan fails validation, so a
// misconfigured catalog stops the service at startup rather than at the first
// signup.
func NewMemoryStore(plans ...Plan) Store {
	if len(plans) == 0 {
		panic("plan: at least one plan is required")
	}
	byTier := make(map[Tier]Plan, len(plans))
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			panic(err)
		}
		byTier[p.Tier] = clonePlan(p)
	}
	return &memoryStore{plans: byTier}
}

// Load returns a deep copy of all plans so callers cannot mutate store state.
func (s *memoryStore) Load(ctx context.Context) (map[Tier]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Tier]Plan, len(s.plans))
	for t, p := range s.plans {
		out[t] = clonePlan(p)
	}
	return out, nil
}

func (s *memoryStore) Save(ctx context.Context, p Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.Tier] = clonePlan(p)
	return nil
}

func clonePlan(p Plan) Plan {
	p.Prices = slices.Clone(p.Prices)
	p.Features = slices.Clone(p.Features)
	return p
}
