package plan

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlFile is the on-disk catalog shape.
type yamlFile struct {
	Plans []Plan `yaml:"plans"`
}

// LoadYAML reads a plan catalog from a YAML file and validates every entry.
// The file is operator-maintained reference data:
//
//	plans:
//	  - tier: basic
//	    name: Basic
//	    prices:
//	      - currency: USD
//	        amount: 2900
//	    limits:
//	      max_staff: 3
//	      max_orders_per_month: 300
//	    active: true
func LoadYAML(path string) ([]Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("%w: %s defines no plans", ErrFailedToLoadPlans, path)
	}

	seen := make(map[Tier]struct{}, len(f.Plans))
	for _, p := range f.Plans {
		if err := p.Validate(); err != nil {
			return nil, errors.Join(ErrFailedToLoadPlans, err)
		}
		if _, dup := seen[p.Tier]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %s in %s", ErrFailedToLoadPlans, p.Tier, path)
		}
		seen[p.Tier] = struct{}{}
	}
	return f.Plans, nil
}

// NewYAMLStore loads the catalog file once and serves it from memory.
// Updates go to memory only; deployments that need durable admin updates use
// the Mongo store instead.
func NewYAMLStore(path string) (Store, error) {
	plans, err := LoadYAML(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(plans...), nil
}
