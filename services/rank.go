package services

import (
	"log"
	"math/big"
)

// Ten-tier rank system (rank 10 lowest → rank 1 highest) with three
// progression paths:
//   - direct_action      — missions completed (rewarded status)
//   - financial_support  — total wei boosted
//   - balance            — combination of both
type RankPath string

const (
	PathDirectAction     RankPath = "direct_action"
	PathFinancialSupport RankPath = "financial_support"
	PathBalance          RankPath = "balance"
)

// RankTier is derived on read and never persisted.
type RankTier struct {
	Rank  int      `json:"rank"`
	Title string   `json:"title"`
	Path  RankPath `json:"path"`
	Color string   `json:"color"`
	Emoji string   `json:"emoji"`
}

type rankInfo struct {
	Title string `json:"title"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

var rankTitles = map[int]rankInfo{
	1:  {Title: "The Ethos", Emoji: "🌟", Color: "#FFD700"},
	2:  {Title: "Guardian", Emoji: "🛡️", Color: "#C0C0C0"},
	3:  {Title: "Luminary", Emoji: "✨", Color: "#B87333"},
	4:  {Title: "Catalyst", Emoji: "⚡", Color: "#7B68EE"},
	5:  {Title: "Pathfinder", Emoji: "🧭", Color: "#20B2AA"},
	6:  {Title: "Advocate", Emoji: "📣", Color: "#3CB371"},
	7:  {Title: "Contributor", Emoji: "🤝", Color: "#4682B4"},
	8:  {Title: "Supporter", Emoji: "💪", Color: "#6B8E23"},
	9:  {Title: "Newcomer", Emoji: "🌱", Color: "#808080"},
	10: {Title: "Pilgrim", Emoji: "👋", Color: "#A0A0A0"},
}

// actionThresholds: missions completed required per rank.
var actionThresholds = map[int]int64{
	10: 0, 9: 1, 8: 3, 7: 6, 6: 10,
	5: 20, 4: 35, 3: 50, 2: 100, 1: 200,
}

// financialThresholds: cumulative boosted wei required per rank.
var financialThresholds = map[int]*big.Int{
	10: big.NewInt(0),
	9:  mustWei("100000000000000000"),     // 0.1 FORGOOD
	8:  mustWei("500000000000000000"),     // 0.5
	7:  mustWei("2000000000000000000"),    // 2
	6:  mustWei("5000000000000000000"),    // 5
	5:  mustWei("15000000000000000000"),   // 15
	4:  mustWei("50000000000000000000"),   // 50
	3:  mustWei("150000000000000000000"),  // 150
	2:  mustWei("500000000000000000000"),  // 500
	1:  mustWei("1000000000000000000000"), // 1000
}

func mustWei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		log.Fatalf("invalid wei constant %q", s)
	}
	return v
}

// ComputeRank derives a participant's tier from their aggregate stats.
// Each path yields a candidate by scanning from best rank to worst and
// stopping at the first satisfied threshold; rank 10 is the floor. The
// balance candidate is the ceiling of the mean of the other two, so it is
// never better than the stronger path. The final tier is the best of the
// three candidates.
func ComputeRank(missionsCompleted int64, totalBoostWei *big.Int) RankTier {
	if totalBoostWei == nil {
		totalBoostWei = new(big.Int)
	}

	actionRank := 10
	for r := 1; r <= 10; r++ {
		if missionsCompleted >= actionThresholds[r] {
			actionRank = r
			break
		}
	}

	financialRank := 10
	for r := 1; r <= 10; r++ {
		if totalBoostWei.Cmp(financialThresholds[r]) >= 0 {
			financialRank = r
			break
		}
	}

	balanceRank := (actionRank + financialRank + 1) / 2

	bestRank := actionRank
	bestPath := PathDirectAction
	if financialRank < bestRank {
		bestRank = financialRank
		bestPath = PathFinancialSupport
	}
	if balanceRank < bestRank {
		bestRank = balanceRank
		bestPath = PathBalance
	}

	info := rankTitles[bestRank]
	return RankTier{
		Rank:  bestRank,
		Title: info.Title,
		Path:  bestPath,
		Color: info.Color,
		Emoji: info.Emoji,
	}
}

// AllRanks returns every tier for display, best first.
func AllRanks() []RankTier {
	tiers := make([]RankTier, 0, len(rankTitles))
	for r := 1; r <= 10; r++ {
		info := rankTitles[r]
		tiers = append(tiers, RankTier{Rank: r, Title: info.Title, Color: info.Color, Emoji: info.Emoji})
	}
	return tiers
}
