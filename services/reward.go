package services

import (
	"log"
	"math/big"
	"os"
	"strconv"
	"strings"
)

// RewardDecimals is the implied decimal scale of FORGOOD amounts.
const RewardDecimals = 18

var (
	// BaseRewardUnit is 0.01 FORGOOD in wei — one difficulty×impact point.
	BaseRewardUnit = big.NewInt(10_000_000_000_000_000)
	// MinRewardWei is 0.01 FORGOOD.
	MinRewardWei = new(big.Int).Set(BaseRewardUnit)
	// MaxRewardWei is 10 FORGOOD.
	MaxRewardWei = new(big.Int).Mul(big.NewInt(1000), BaseRewardUnit)

	weiPerToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(RewardDecimals), nil)
)

// ComputeReward maps (difficulty, impact) to a bounded wei amount:
// clamp(difficulty × impact × BaseRewardUnit, MinRewardWei, MaxRewardWei).
func ComputeReward(difficulty, impact int) *big.Int {
	raw := new(big.Int).Mul(big.NewInt(int64(difficulty)*int64(impact)), BaseRewardUnit)
	if raw.Cmp(MinRewardWei) < 0 {
		return new(big.Int).Set(MinRewardWei)
	}
	if raw.Cmp(MaxRewardWei) > 0 {
		return new(big.Int).Set(MaxRewardWei)
	}
	return raw
}

// FormatReward renders a wei amount as a human-readable FORGOOD string
// (e.g. 480000000000000000 → "0.48"). The raw integer never passes through
// floating point, so no representable amount loses precision. A nil amount
// renders as "TBD".
func FormatReward(amount *big.Int) string {
	if amount == nil {
		return "TBD"
	}
	whole := new(big.Int)
	remainder := new(big.Int)
	whole.QuoRem(amount, weiPerToken, remainder)
	if remainder.Sign() == 0 {
		return whole.String()
	}
	frac := remainder.String()
	for len(frac) < RewardDecimals {
		frac = "0" + frac
	}
	frac = strings.TrimRight(frac, "0")
	return whole.String() + "." + frac
}

// ─── Verdict policy ─────────────────────────────────────────

type Verdict string

const (
	VerdictApproved    Verdict = "approved"
	VerdictRejected    Verdict = "rejected"
	VerdictNeedsReview Verdict = "needs_review"
)

// VerdictPolicy holds the confidence thresholds for automatic decisions.
// The review band between AutoReject and AutoApprove may be zero-width.
type VerdictPolicy struct {
	AutoApprove float64
	AutoReject  float64
}

func DefaultVerdictPolicy() VerdictPolicy {
	return VerdictPolicy{AutoApprove: 0.7, AutoReject: 0.5}
}

// LoadVerdictPolicy reads FORGOOD_AUTO_APPROVE / FORGOOD_AUTO_REJECT,
// falling back to the defaults on absence or parse failure.
func LoadVerdictPolicy() VerdictPolicy {
	p := DefaultVerdictPolicy()
	if v := os.Getenv("FORGOOD_AUTO_APPROVE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			p.AutoApprove = f
		} else {
			log.Printf("⚠️  Ignoring invalid FORGOOD_AUTO_APPROVE=%q", v)
		}
	}
	if v := os.Getenv("FORGOOD_AUTO_REJECT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			p.AutoReject = f
		} else {
			log.Printf("⚠️  Ignoring invalid FORGOOD_AUTO_REJECT=%q", v)
		}
	}
	return p
}

// Resolve maps a raw oracle verdict plus confidence to the final decision.
func (p VerdictPolicy) Resolve(rawVerdict string, confidence float64) Verdict {
	if rawVerdict == string(VerdictApproved) && confidence >= p.AutoApprove {
		return VerdictApproved
	}
	if rawVerdict == string(VerdictRejected) || confidence < p.AutoReject {
		return VerdictRejected
	}
	return VerdictNeedsReview
}
