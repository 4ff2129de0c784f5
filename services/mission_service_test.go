package services

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"forgood-mission-system/ai"
	"forgood-mission-system/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	alice = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	bob   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	carol = "0xcccccccccccccccccccccccccccccccccccccccc"
)

// ─── Fakes ──────────────────────────────────────────────────

type fakeOracle struct {
	unavailable bool

	eval    *ai.Evaluation
	evalErr error

	verification *ai.Verification
	verifyErr    error
	verifyCalls  int

	disc    *ai.DiscriminatorResult
	discErr error

	screening *ai.ScreeningResult
	screenErr error

	idea    *ai.MissionIdea
	ideaErr error
}

func (f *fakeOracle) Available() bool { return !f.unavailable }

func (f *fakeOracle) EvaluateMission(ctx context.Context, m ai.MissionSummary) (*ai.Evaluation, error) {
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	if f.eval != nil {
		return f.eval, nil
	}
	return &ai.Evaluation{Difficulty: 5, Impact: 5, Confidence: 0.8, Rationale: "median mission, median effort"}, nil
}

func (f *fakeOracle) VerifyProof(ctx context.Context, missionSummary, proofURL string) (*ai.Verification, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.verification != nil {
		return f.verification, nil
	}
	return &ai.Verification{Verdict: "approved", Confidence: 0.9, Evidence: []string{"proof matches mission"}}, nil
}

func (f *fakeOracle) DetectGenerated(ctx context.Context, proofURL string) (*ai.DiscriminatorResult, error) {
	if f.discErr != nil {
		return nil, f.discErr
	}
	if f.disc != nil {
		return f.disc, nil
	}
	return &ai.DiscriminatorResult{IsGenerated: false, Confidence: 0.2}, nil
}

func (f *fakeOracle) ScreenProposal(ctx context.Context, m ai.MissionSummary) (*ai.ScreeningResult, error) {
	if f.screenErr != nil {
		return nil, f.screenErr
	}
	if f.screening != nil {
		return f.screening, nil
	}
	return &ai.ScreeningResult{Approved: true, Confidence: 0.9, Reason: "clear public benefit"}, nil
}

func (f *fakeOracle) GenerateMissionIdea(ctx context.Context) (*ai.MissionIdea, error) {
	if f.ideaErr != nil {
		return nil, f.ideaErr
	}
	if f.idea != nil {
		return f.idea, nil
	}
	return &ai.MissionIdea{
		Title:       "Map the neighborhood drinking fountains",
		Description: "Walk the district, locate every public drinking fountain, and publish the findings as open data anyone can reuse.",
		Category:    "community",
	}, nil
}

type fakeChain struct {
	enabled      bool
	txHash       string
	releaseErr   error
	receiptOK    bool
	receiptErr   error
	releaseCalls int
}

func (f *fakeChain) Enabled() bool { return f.enabled }

func (f *fakeChain) ReleaseReward(ctx context.Context, recipient string, amount *big.Int) (string, error) {
	f.releaseCalls++
	if f.releaseErr != nil {
		return "", f.releaseErr
	}
	if f.txHash != "" {
		return f.txHash, nil
	}
	return "0xdeadbeef", nil
}

func (f *fakeChain) VerifyReceipt(ctx context.Context, txHash string) (bool, error) {
	return f.receiptOK, f.receiptErr
}

// ─── Helpers ────────────────────────────────────────────────

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection would see an empty in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Mission{}, &models.Proof{}, &models.BoostRecord{}, &models.UserProfile{},
	))
	return db
}

func newTestService(t *testing.T, oracle ScoringOracle, chain SettlementLedger) *MissionService {
	t.Helper()
	return &MissionService{
		DB:     newTestDB(t),
		Oracle: oracle,
		Chain:  chain,
		Policy: DefaultVerdictPolicy(),
	}
}

func proposal(title string) MissionProposal {
	return MissionProposal{
		Title:       title,
		Description: "Organize a weekend river cleanup and document the collected waste by category.",
		Category:    "environment",
		Proposer:    alice,
	}
}

func activeMission(t *testing.T, svc *MissionService, title string) *models.Mission {
	t.Helper()
	ctx := context.Background()
	m, _, err := svc.Propose(ctx, proposal(title))
	require.NoError(t, err)
	m, err = svc.Evaluate(ctx, m.ID, EvaluationInput{
		Difficulty: 4, Impact: 6, Confidence: 0.85,
		Rationale: "moderate effort, solid local impact",
	})
	require.NoError(t, err)
	m, err = svc.Activate(ctx, m.ID)
	require.NoError(t, err)
	return m
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	appErr, ok := AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, kind, appErr.Kind)
}

// ─── Lifecycle ──────────────────────────────────────────────

func TestFullLifecycleToReward(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()

	m := activeMission(t, svc, "Clean up the river bank")
	assert.Equal(t, models.StatusActive, m.Status)
	assert.Equal(t, "240000000000000000", m.RewardAmount.String(), "4×6 points")

	m, err := svc.Claim(ctx, m.ID, bob)
	require.NoError(t, err)
	require.NotNil(t, m.ClaimedBy)
	assert.Equal(t, bob, *m.ClaimedBy)
	assert.NotNil(t, m.ClaimedAt)

	m, proof, err := svc.SubmitProof(ctx, m.ID, ProofInput{
		Submitter: bob, ProofURI: "https://example.org/proof.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProofSubmitted, m.Status)
	assert.Equal(t, bob, proof.Submitter)

	m, err = svc.Verify(ctx, m.ID, VerificationInput{
		Verdict: "approved", Confidence: 0.95, Evidence: []string{"bags of waste visible at the river bank"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, m.Status)

	m, err = svc.Reward(ctx, m.ID, RewardInput{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRewarded, m.Status)
	require.NotNil(t, m.OnchainTxHash)
	assert.True(t, strings.HasPrefix(*m.OnchainTxHash, "0xMOCK"), "settlement disabled yields mock reference")
}

func TestProposeValidation(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()

	cases := []MissionProposal{
		{Title: "ab", Description: strings.Repeat("x", 50), Category: "other", Proposer: alice},
		{Title: "Valid title", Description: "too short", Category: "other", Proposer: alice},
		{Title: "Valid title", Description: strings.Repeat("x", 50), Category: "x", Proposer: alice},
		{Title: "Valid title", Description: strings.Repeat("x", 50), Category: "other", Proposer: "not-an-address"},
	}
	for i, in := range cases {
		_, _, err := svc.Propose(ctx, in)
		requireKind(t, err, KindValidation)
		assert.Error(t, err, "case %d", i)
	}
}

func TestScreeningRejectsConfidently(t *testing.T) {
	oracle := &fakeOracle{screening: &ai.ScreeningResult{
		Approved: false, Confidence: 0.9, Reason: "commercial promotion, not a public good",
	}}
	svc := newTestService(t, oracle, &fakeChain{})

	_, screening, err := svc.Propose(context.Background(), proposal("Promote my shop"))
	requireKind(t, err, KindScreening)
	require.NotNil(t, screening)
	assert.False(t, screening.Approved)
}

func TestScreeningLowConfidenceAllowsThrough(t *testing.T) {
	oracle := &fakeOracle{screening: &ai.ScreeningResult{Approved: false, Confidence: 0.4}}
	svc := newTestService(t, oracle, &fakeChain{})

	m, _, err := svc.Propose(context.Background(), proposal("Borderline mission"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusProposed, m.Status)
}

func TestScreeningOutageAllowsThrough(t *testing.T) {
	oracle := &fakeOracle{screenErr: errors.New("oracle down")}
	svc := newTestService(t, oracle, &fakeChain{})

	m, screening, err := svc.Propose(context.Background(), proposal("Mission during outage"))
	require.NoError(t, err)
	assert.Nil(t, screening)
	assert.Equal(t, models.StatusProposed, m.Status)
}

func TestAutoEvaluateUsesOracle(t *testing.T) {
	oracle := &fakeOracle{eval: &ai.Evaluation{
		Difficulty: 6, Impact: 8, Confidence: 0.82, Rationale: "demanding and broadly beneficial",
	}}
	svc := newTestService(t, oracle, &fakeChain{})
	ctx := context.Background()

	m, _, err := svc.Propose(ctx, proposal("Teach a workshop"))
	require.NoError(t, err)

	m, eval, err := svc.AutoEvaluate(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEvaluated, m.Status)
	assert.Equal(t, 6, eval.Difficulty)
	assert.Equal(t, "480000000000000000", m.RewardAmount.String())
}

func TestAutoEvaluateOracleFailureIsFatal(t *testing.T) {
	oracle := &fakeOracle{evalErr: errors.New("model timeout")}
	svc := newTestService(t, oracle, &fakeChain{})
	ctx := context.Background()

	m, _, err := svc.Propose(ctx, proposal("Mission"))
	require.NoError(t, err)

	_, _, err = svc.AutoEvaluate(ctx, m.ID)
	requireKind(t, err, KindOracleUnavailable)

	m, err = svc.getMission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProposed, m.Status, "failed evaluation must not advance the mission")
}

func TestEvaluateWrongStatusConflicts(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	m := activeMission(t, svc, "Already active")

	_, err := svc.Evaluate(context.Background(), m.ID, EvaluationInput{
		Difficulty: 5, Impact: 5, Confidence: 0.8, Rationale: "should not apply anymore",
	})
	requireKind(t, err, KindConflict)
}

func TestStatusMonotonicity(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()

	m := activeMission(t, svc, "One-way lifecycle")
	_, err := svc.Claim(ctx, m.ID, bob)
	require.NoError(t, err)
	_, _, err = svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/p.jpg"})
	require.NoError(t, err)
	_, err = svc.Verify(ctx, m.ID, VerificationInput{Verdict: "approved", Confidence: 0.9, Evidence: []string{"ok"}})
	require.NoError(t, err)
	_, err = svc.Reward(ctx, m.ID, RewardInput{})
	require.NoError(t, err)

	// No transition can move a rewarded mission.
	_, err = svc.Activate(ctx, m.ID)
	requireKind(t, err, KindConflict)
	_, err = svc.Reward(ctx, m.ID, RewardInput{})
	requireKind(t, err, KindConflict)
	_, _, err = svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/p.jpg"})
	requireKind(t, err, KindConflict)
}

// ─── Claims ─────────────────────────────────────────────────

func TestClaimExclusive(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Popular mission")

	_, err := svc.Claim(ctx, m.ID, bob)
	require.NoError(t, err)

	_, err = svc.Claim(ctx, m.ID, carol)
	requireKind(t, err, KindConflict)

	got, err := svc.getMission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, bob, *got.ClaimedBy, "first claimer keeps the mission")
}

func TestClaimOnePerUser(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()
	first := activeMission(t, svc, "First mission")
	second := activeMission(t, svc, "Second mission")

	_, err := svc.Claim(ctx, first.ID, bob)
	require.NoError(t, err)

	_, err = svc.Claim(ctx, second.ID, bob)
	requireKind(t, err, KindConflict)

	// Address comparison is case-insensitive.
	_, err = svc.Claim(ctx, second.ID, strings.ToUpper(bob[2:]))
	requireKind(t, err, KindValidation)
	_, err = svc.Claim(ctx, second.ID, "0x"+strings.ToUpper(bob[2:]))
	requireKind(t, err, KindConflict)
}

func TestClaimReleasedAfterReward(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()

	first := activeMission(t, svc, "Finish me first")
	_, err := svc.Claim(ctx, first.ID, bob)
	require.NoError(t, err)
	_, _, err = svc.SubmitProof(ctx, first.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/p.jpg"})
	require.NoError(t, err)
	_, err = svc.Verify(ctx, first.ID, VerificationInput{Verdict: "approved", Confidence: 0.9, Evidence: []string{"ok"}})
	require.NoError(t, err)
	_, err = svc.Reward(ctx, first.ID, RewardInput{})
	require.NoError(t, err)

	second := activeMission(t, svc, "Now claimable")
	_, err = svc.Claim(ctx, second.ID, bob)
	require.NoError(t, err, "a rewarded claim no longer blocks new claims")
}

func TestUnclaimRules(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Claim and release")

	_, err := svc.Claim(ctx, m.ID, bob)
	require.NoError(t, err)

	_, err = svc.Unclaim(ctx, m.ID, carol)
	requireKind(t, err, KindConflict)

	released, err := svc.Unclaim(ctx, m.ID, bob)
	require.NoError(t, err)
	assert.Nil(t, released.ClaimedBy)
	assert.Nil(t, released.ClaimedAt)
	assert.Equal(t, models.StatusActive, released.Status)

	// Once proof is in, the claim is locked.
	_, err = svc.Claim(ctx, m.ID, bob)
	require.NoError(t, err)
	_, _, err = svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/p.jpg"})
	require.NoError(t, err)
	_, err = svc.Unclaim(ctx, m.ID, bob)
	requireKind(t, err, KindConflict)
}

// ─── Proof and verification ─────────────────────────────────

func TestSubmitProofAutoClaims(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	m := activeMission(t, svc, "Unclaimed but proven")

	m, _, err := svc.SubmitProof(context.Background(), m.ID, ProofInput{
		Submitter: carol, ProofURI: "/uploads/proofs/evidence.jpg",
	})
	require.NoError(t, err)
	require.NotNil(t, m.ClaimedBy)
	assert.Equal(t, carol, *m.ClaimedBy)
	assert.Equal(t, models.StatusProofSubmitted, m.Status)
}

func TestSubmitProofRejectsMalformedURI(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Picky about links")

	for _, uri := range []string{"", "httpgarbage", "http:example.org/p.jpg", "ftp://example.org/p.jpg", "uploads/p.jpg"} {
		_, _, err := svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: uri})
		requireKind(t, err, KindValidation)
	}

	_, _, err := svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "HTTPS://example.org/p.jpg"})
	require.NoError(t, err, "scheme matching is case-insensitive")
}

func TestSubmitProofOnlyClaimant(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Bob's mission")

	_, err := svc.Claim(ctx, m.ID, bob)
	require.NoError(t, err)

	_, _, err = svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: carol, ProofURI: "https://example.org/p.jpg"})
	requireKind(t, err, KindConflict)
}

func TestRejectedMissionAllowsResubmission(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Second chances")

	_, err := svc.Claim(ctx, m.ID, bob)
	require.NoError(t, err)
	_, _, err = svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/blurry.jpg"})
	require.NoError(t, err)

	m, err = svc.Verify(ctx, m.ID, VerificationInput{
		Verdict: "rejected", Confidence: 0.8, Evidence: []string{"image too blurry to judge"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, m.Status)

	m, _, err = svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/sharp.jpg"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProofSubmitted, m.Status)

	m, err = svc.Verify(ctx, m.ID, VerificationInput{
		Verdict: "approved", Confidence: 0.9, Evidence: []string{"clear evidence of completion"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, m.Status)

	_, proofs, err := svc.GetMission(m.ID)
	require.NoError(t, err)
	assert.Len(t, proofs, 2, "every attempt keeps its own proof row")
}

func TestVerifyNeedsReviewKeepsStatus(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Ambiguous proof")

	_, _, err := svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/p.jpg"})
	require.NoError(t, err)

	m, err = svc.Verify(ctx, m.ID, VerificationInput{
		Verdict: "needs_review", Confidence: 0.6, Evidence: []string{"cannot tell from the image alone"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProofSubmitted, m.Status)
}

func TestAutoVerifyAppliesPolicy(t *testing.T) {
	oracle := &fakeOracle{verification: &ai.Verification{
		Verdict: "approved", Confidence: 0.6, Evidence: []string{"plausible but unclear"},
	}}
	svc := newTestService(t, oracle, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Mid confidence")

	_, _, err := svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/p.jpg"})
	require.NoError(t, err)

	result, err := svc.AutoVerify(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, string(VerdictNeedsReview), result.Verification.Verdict)
	assert.Equal(t, models.StatusProofSubmitted, result.Mission.Status)
}

func TestAutoVerifyDiscriminatorShortCircuits(t *testing.T) {
	oracle := &fakeOracle{disc: &ai.DiscriminatorResult{
		IsGenerated: true, Confidence: 0.9, Reasons: []string{"texture artifacts typical of diffusion models"},
	}}
	svc := newTestService(t, oracle, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Synthetic proof")

	_, _, err := svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/fake.jpg"})
	require.NoError(t, err)

	result, err := svc.AutoVerify(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, string(VerdictRejected), result.Verification.Verdict)
	assert.Equal(t, models.StatusRejected, result.Mission.Status)
	assert.Zero(t, oracle.verifyCalls, "main verifier must be skipped after a confident discriminator hit")
}

func TestAutoVerifyDiscriminatorOutageDegrades(t *testing.T) {
	oracle := &fakeOracle{discErr: errors.New("discriminator down")}
	svc := newTestService(t, oracle, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Degraded pre-screen")

	_, _, err := svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/p.jpg"})
	require.NoError(t, err)

	result, err := svc.AutoVerify(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, oracle.verifyCalls, "verification proceeds without the discriminator")
	assert.Equal(t, models.StatusVerified, result.Mission.Status)
}

func TestAutoVerifyDebugMissionBypassesOracle(t *testing.T) {
	svc := newTestService(t, &fakeOracle{unavailable: true}, &fakeChain{})
	ctx := context.Background()

	m, _, err := svc.Propose(ctx, proposal("test"))
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, m.ID, EvaluationInput{Difficulty: 1, Impact: 1, Confidence: 1, Rationale: "debug mission entry"})
	require.NoError(t, err)
	_, err = svc.Activate(ctx, m.ID)
	require.NoError(t, err)
	_, _, err = svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/anything.jpg"})
	require.NoError(t, err)

	result, err := svc.AutoVerify(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, string(VerdictApproved), result.Verification.Verdict)
	assert.Equal(t, 1.0, result.Verification.Confidence)
	assert.Equal(t, models.StatusVerified, result.Mission.Status)
}

func TestAutoVerifyOracleFailureIsFatal(t *testing.T) {
	oracle := &fakeOracle{verifyErr: errors.New("vision model down")}
	svc := newTestService(t, oracle, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Oracle outage")

	_, _, err := svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/p.jpg"})
	require.NoError(t, err)

	_, err = svc.AutoVerify(ctx, m.ID)
	requireKind(t, err, KindOracleUnavailable)

	got, err := svc.getMission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProofSubmitted, got.Status)
}

// ─── Reward settlement ──────────────────────────────────────

func TestRewardViaChain(t *testing.T) {
	chain := &fakeChain{enabled: true, txHash: "0xabc123"}
	svc := newTestService(t, &fakeOracle{}, chain)
	ctx := context.Background()
	m := activeMission(t, svc, "Paid on-chain")

	_, err := svc.Claim(ctx, m.ID, bob)
	require.NoError(t, err)
	_, _, err = svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/p.jpg"})
	require.NoError(t, err)
	_, err = svc.Verify(ctx, m.ID, VerificationInput{Verdict: "approved", Confidence: 0.9, Evidence: []string{"ok"}})
	require.NoError(t, err)

	m, err = svc.Reward(ctx, m.ID, RewardInput{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRewarded, m.Status)
	assert.Equal(t, "0xabc123", *m.OnchainTxHash)
	assert.Equal(t, 1, chain.releaseCalls)
}

func TestRewardSettlementFailureLeavesVerified(t *testing.T) {
	chain := &fakeChain{enabled: true, releaseErr: errors.New("treasury underfunded")}
	svc := newTestService(t, &fakeOracle{}, chain)
	ctx := context.Background()
	m := activeMission(t, svc, "Settlement fails")

	_, err := svc.Claim(ctx, m.ID, bob)
	require.NoError(t, err)
	_, _, err = svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: bob, ProofURI: "https://example.org/p.jpg"})
	require.NoError(t, err)
	_, err = svc.Verify(ctx, m.ID, VerificationInput{Verdict: "approved", Confidence: 0.9, Evidence: []string{"ok"}})
	require.NoError(t, err)

	_, err = svc.Reward(ctx, m.ID, RewardInput{})
	requireKind(t, err, KindSettlement)

	got, err := svc.getMission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, got.Status, "failed settlement must not consume the reward")
	assert.Nil(t, got.OnchainTxHash)
}

func TestRewardRecipientFallback(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Auto-claimed reward")

	// Proof submitted without an explicit claim: submitter becomes claimant,
	// and therefore the default reward recipient.
	_, _, err := svc.SubmitProof(ctx, m.ID, ProofInput{Submitter: carol, ProofURI: "https://example.org/p.jpg"})
	require.NoError(t, err)
	_, err = svc.Verify(ctx, m.ID, VerificationInput{Verdict: "approved", Confidence: 0.9, Evidence: []string{"ok"}})
	require.NoError(t, err)

	m, err = svc.Reward(ctx, m.ID, RewardInput{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRewarded, m.Status)
}

// ─── Boost ──────────────────────────────────────────────────

func TestBoostAddsToPot(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Boost me")
	base := m.RewardAmount.BigInt()

	amount := big.NewInt(100_000_000_000_000_000) // 0.1 FORGOOD
	m, receipt, err := svc.Boost(ctx, m.ID, BoostInput{Booster: carol, Amount: amount})
	require.NoError(t, err)

	want := new(big.Int).Add(base, amount)
	assert.Zero(t, m.RewardAmount.Cmp(want))
	assert.Zero(t, receipt.NewTotal.Cmp(want))
	require.NotNil(t, receipt.TxHash)
	assert.True(t, strings.HasPrefix(*receipt.TxHash, "0xMOCK"))

	var records []models.BoostRecord
	require.NoError(t, svc.DB.Where("mission_id = ?", m.ID).Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, carol, records[0].Booster)
	assert.Zero(t, records[0].AmountWei.Cmp(amount))
}

func TestBoostAccumulates(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()
	m := activeMission(t, svc, "Boosted twice")
	base := m.RewardAmount.BigInt()

	a := big.NewInt(100_000_000_000_000_000)
	b := big.NewInt(250_000_000_000_000_000)
	_, _, err := svc.Boost(ctx, m.ID, BoostInput{Booster: carol, Amount: a})
	require.NoError(t, err)
	m, _, err = svc.Boost(ctx, m.ID, BoostInput{Booster: bob, Amount: b})
	require.NoError(t, err)

	want := new(big.Int).Add(base, new(big.Int).Add(a, b))
	assert.Zero(t, m.RewardAmount.Cmp(want))
}

func TestBoostIneligibleStatuses(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()

	m, _, err := svc.Propose(ctx, proposal("Still proposed"))
	require.NoError(t, err)
	_, _, err = svc.Boost(ctx, m.ID, BoostInput{Booster: carol, Amount: big.NewInt(1)})
	requireKind(t, err, KindConflict)

	_, _, err = svc.Boost(ctx, m.ID, BoostInput{Booster: carol, Amount: big.NewInt(0)})
	requireKind(t, err, KindValidation)
	_, _, err = svc.Boost(ctx, m.ID, BoostInput{Booster: "bogus", Amount: big.NewInt(1)})
	requireKind(t, err, KindValidation)
}

func TestBoostRejectsFailedOnchainTransfer(t *testing.T) {
	chain := &fakeChain{enabled: true, receiptOK: false}
	svc := newTestService(t, &fakeOracle{}, chain)
	ctx := context.Background()
	m := activeMission(t, svc, "Failed transfer")

	tx := "0xfeedface"
	_, _, err := svc.Boost(ctx, m.ID, BoostInput{Booster: carol, Amount: big.NewInt(1), TxHash: &tx})
	requireKind(t, err, KindValidation)
}

func TestBoostAcceptsUnverifiableReceipt(t *testing.T) {
	chain := &fakeChain{enabled: true, receiptErr: errors.New("rpc flake")}
	svc := newTestService(t, &fakeOracle{}, chain)
	ctx := context.Background()
	m := activeMission(t, svc, "Unverifiable transfer")

	tx := "0xfeedface"
	_, receipt, err := svc.Boost(ctx, m.ID, BoostInput{Booster: carol, Amount: big.NewInt(1), TxHash: &tx})
	require.NoError(t, err, "receipt lookup failures degrade to acceptance")
	assert.Equal(t, tx, *receipt.TxHash)
}

// ─── Queries ────────────────────────────────────────────────

func TestListMissionsFilters(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()

	open := activeMission(t, svc, "Open mission")
	claimed := activeMission(t, svc, "Claimed mission")
	_, err := svc.Claim(ctx, claimed.ID, bob)
	require.NoError(t, err)
	_, _, err = svc.Propose(ctx, proposal("Still proposed"))
	require.NoError(t, err)

	st := models.StatusActive
	missions, err := svc.ListMissions(&st, false, 50)
	require.NoError(t, err)
	assert.Len(t, missions, 2)

	missions, err = svc.ListMissions(&st, true, 50)
	require.NoError(t, err)
	require.Len(t, missions, 1)
	assert.Equal(t, open.ID, missions[0].ID)
}

func TestMyMissions(t *testing.T) {
	svc := newTestService(t, &fakeOracle{}, &fakeChain{})
	ctx := context.Background()

	m := activeMission(t, svc, "Alice proposes, Bob claims")
	_, err := svc.Claim(ctx, m.ID, bob)
	require.NoError(t, err)

	proposed, claimed, err := svc.MyMissions(alice)
	require.NoError(t, err)
	assert.Len(t, proposed, 1)
	assert.Empty(t, claimed)

	proposed, claimed, err = svc.MyMissions(bob)
	require.NoError(t, err)
	assert.Empty(t, proposed)
	require.Len(t, claimed, 1)
	assert.Equal(t, m.ID, claimed[0].ID)
}
