package services

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRewardScales(t *testing.T) {
	// 6×8 points at 0.01 FORGOOD each = 0.48 FORGOOD.
	assert.Equal(t, "480000000000000000", ComputeReward(6, 8).String())
}

func TestComputeRewardBounds(t *testing.T) {
	assert.Zero(t, ComputeReward(1, 1).Cmp(MinRewardWei), "floor")

	// The top of the valid grid is 1 FORGOOD, well under the 10 FORGOOD cap.
	top := ComputeReward(10, 10)
	assert.Equal(t, "1000000000000000000", top.String())
	assert.Negative(t, top.Cmp(MaxRewardWei))

	// The ceiling clamp itself only triggers for an out-of-grid product.
	assert.Zero(t, ComputeReward(40, 30).Cmp(MaxRewardWei))
}

func TestComputeRewardMonotonic(t *testing.T) {
	prev := new(big.Int)
	for d := 1; d <= 10; d++ {
		for i := 1; i <= 10; i++ {
			r := ComputeReward(d, i)
			assert.LessOrEqual(t, r.Cmp(MaxRewardWei), 0)
			assert.GreaterOrEqual(t, r.Cmp(MinRewardWei), 0)
			if d == i {
				// Along the diagonal the product strictly grows.
				assert.Positive(t, r.Cmp(prev), "d=i=%d", d)
				prev = r
			}
		}
	}
}

func TestFormatReward(t *testing.T) {
	cases := []struct {
		wei  string
		want string
	}{
		{"480000000000000000", "0.48"},
		{"10000000000000000", "0.01"},
		{"10000000000000000000", "10"},
		{"1000000000000000000", "1"},
		{"1230000000000000000", "1.23"},
		{"1", "0.000000000000000001"},
		{"0", "0"},
	}
	for _, tc := range cases {
		v, ok := new(big.Int).SetString(tc.wei, 10)
		assert.True(t, ok)
		assert.Equal(t, tc.want, FormatReward(v), "wei=%s", tc.wei)
	}
	assert.Equal(t, "TBD", FormatReward(nil))
}

func TestVerdictPolicyResolve(t *testing.T) {
	p := DefaultVerdictPolicy()

	assert.Equal(t, VerdictApproved, p.Resolve("approved", 0.9))
	assert.Equal(t, VerdictApproved, p.Resolve("approved", 0.7), "inclusive approve bound")
	assert.Equal(t, VerdictNeedsReview, p.Resolve("approved", 0.65), "confident-ish approval needs review")
	assert.Equal(t, VerdictRejected, p.Resolve("approved", 0.4), "low confidence rejects regardless of verdict")
	assert.Equal(t, VerdictRejected, p.Resolve("rejected", 0.9))
	assert.Equal(t, VerdictRejected, p.Resolve("rejected", 0.1))
	assert.Equal(t, VerdictNeedsReview, p.Resolve("needs_review", 0.8))
}

func TestVerdictPolicyNeverBothTerminal(t *testing.T) {
	p := DefaultVerdictPolicy()
	for _, verdict := range []string{"approved", "rejected", "needs_review"} {
		for c := 0.0; c <= 1.0; c += 0.05 {
			out := p.Resolve(verdict, c)
			assert.Contains(t, []Verdict{VerdictApproved, VerdictRejected, VerdictNeedsReview}, out)
			if out == VerdictApproved {
				assert.Equal(t, "approved", verdict)
				assert.GreaterOrEqual(t, c, p.AutoApprove)
			}
		}
	}
}
