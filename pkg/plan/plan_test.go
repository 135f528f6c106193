package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launderly/launderly/pkg/plan"
)

func TestParseTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    plan.Tier
		wantErr bool
	}{
		{"basic", plan.TierBasic, false},
		{"  PRO ", plan.TierPro, false},
		{"Trial", plan.TierTrial, false},
		{"enterprise", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := plan.ParseTier(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, plan.ErrUnknownTier, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestPlanValidate(t *testing.T) {
	t.Parallel()

	valid := plan.Plan{
		Tier:   plan.TierBasic,
		Name:   "Basic",
		Prices: []plan.Price{{Currency: "USD", Amount: 2900}},
		Limits: plan.Limits{MaxStaff: 3, MaxOrdersPerMonth: 300},
	}
	require.NoError(t, valid.Validate())

	t.Run("negative amount", func(t *testing.T) {
		p := valid
		p.Prices = []plan.Price{{Currency: "USD", Amount: -1}}
		assert.ErrorIs(t, p.Validate(), plan.ErrInvalidPrice)
	})

	t.Run("duplicate currency", func(t *testing.T) {
		p := valid
		p.Prices = []plan.Price{
			{Currency: "USD", Amount: 2900},
			{Currency: "USD", Amount: 3900},
		}
		assert.ErrorIs(t, p.Validate(), plan.ErrDuplicateCurrency)
	})

	t.Run("bogus currency code", func(t *testing.T) {
		p := valid
		p.Prices = []plan.Price{{Currency: "DOLLARS", Amount: 100}}
		assert.ErrorIs(t, p.Validate(), plan.ErrInvalidPrice)
	})

	t.Run("unknown tier", func(t *testing.T) {
		p := valid
		p.Tier = "platinum"
		assert.ErrorIs(t, p.Validate(), plan.ErrUnknownTier)
	})

	t.Run("unlimited sentinel is allowed", func(t *testing.T) {
		p := valid
		p.Limits = plan.Limits{MaxStaff: plan.Unlimited, MaxOrdersPerMonth: plan.Unlimited}
		assert.NoError(t, p.Validate())
	})

	t.Run("other negative limits are not", func(t *testing.T) {
		p := valid
		p.Limits = plan.Limits{MaxStaff: -2, MaxOrdersPerMonth: 10}
		assert.ErrorIs(t, p.Validate(), plan.ErrInvalidLimits)
	})
}

func TestDefaultPlansAreValid(t *testing.T) {
	t.Parallel()

	for _, p := range plan.DefaultPlans() {
		assert.NoError(t, p.Validate(), "plan %s", p.Tier)
	}
}
