package services

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func forgood(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func TestComputeRankNewcomer(t *testing.T) {
	tier := ComputeRank(0, nil)
	assert.Equal(t, 10, tier.Rank)
	assert.Equal(t, "Pilgrim", tier.Title)
	assert.Equal(t, PathDirectAction, tier.Path)
}

func TestComputeRankTopAction(t *testing.T) {
	tier := ComputeRank(200, nil)
	assert.Equal(t, 1, tier.Rank)
	assert.Equal(t, "The Ethos", tier.Title)
	assert.Equal(t, PathDirectAction, tier.Path)
}

func TestComputeRankFinancialPath(t *testing.T) {
	// 1 FORGOOD boosted, nothing completed: 0.5 threshold reached, 2 not.
	tier := ComputeRank(0, forgood(1))
	assert.Equal(t, 8, tier.Rank)
	assert.Equal(t, PathFinancialSupport, tier.Path)
}

func TestComputeRankTopFinancial(t *testing.T) {
	tier := ComputeRank(0, forgood(1000))
	assert.Equal(t, 1, tier.Rank)
	assert.Equal(t, PathFinancialSupport, tier.Path)
}

func TestComputeRankBalancePath(t *testing.T) {
	// Action rank 6 (10 missions) + financial rank 8 (1 FORGOOD):
	// balance = ceil((6+8)/2) = 7, worse than action 6 — action wins.
	tier := ComputeRank(10, forgood(1))
	assert.Equal(t, 6, tier.Rank)
	assert.Equal(t, PathDirectAction, tier.Path)

	// Action rank 4 (35) + financial rank 2 (500): balance 3, financial 2 wins.
	tier = ComputeRank(35, forgood(500))
	assert.Equal(t, 2, tier.Rank)
	assert.Equal(t, PathFinancialSupport, tier.Path)
}

func TestComputeRankTiePrefersDirectAction(t *testing.T) {
	// Both paths hit rank 5 (20 missions, 15 FORGOOD).
	tier := ComputeRank(20, forgood(15))
	assert.Equal(t, 5, tier.Rank)
	assert.Equal(t, PathDirectAction, tier.Path)
}

func TestComputeRankMonotonicInMissions(t *testing.T) {
	prev := 10
	for missions := int64(0); missions <= 250; missions += 5 {
		tier := ComputeRank(missions, nil)
		assert.LessOrEqual(t, tier.Rank, prev, "rank must never get worse with more missions")
		prev = tier.Rank
	}
}

func TestAllRanksOrderedAndComplete(t *testing.T) {
	tiers := AllRanks()
	assert.Len(t, tiers, 10)
	for i, tier := range tiers {
		assert.Equal(t, i+1, tier.Rank)
		assert.NotEmpty(t, tier.Title)
		assert.NotEmpty(t, tier.Color)
		assert.NotEmpty(t, tier.Emoji)
	}
}
