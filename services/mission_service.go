package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"
	"time"

	"forgood-mission-system/ai"
	"forgood-mission-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScoringOracle produces difficulty/impact judgments and proof verdicts.
// All methods may fail; the state machine decides which failures are fatal.
type ScoringOracle interface {
	Available() bool
	EvaluateMission(ctx context.Context, m ai.MissionSummary) (*ai.Evaluation, error)
	VerifyProof(ctx context.Context, missionSummary, proofURL string) (*ai.Verification, error)
	DetectGenerated(ctx context.Context, proofURL string) (*ai.DiscriminatorResult, error)
	ScreenProposal(ctx context.Context, m ai.MissionSummary) (*ai.ScreeningResult, error)
	GenerateMissionIdea(ctx context.Context) (*ai.MissionIdea, error)
}

// SettlementLedger transfers reward value. Release blocks until finalized.
type SettlementLedger interface {
	Enabled() bool
	ReleaseReward(ctx context.Context, recipient string, amount *big.Int) (string, error)
	VerifyReceipt(ctx context.Context, txHash string) (bool, error)
}

const (
	// ScreeningRejectThreshold: proposals rejected by screening with at
	// least this confidence are refused; lower-confidence rejections pass.
	ScreeningRejectThreshold = 0.6
	// GeneratedRejectThreshold: discriminator verdicts at or above this
	// confidence short-circuit verification to rejected.
	GeneratedRejectThreshold = 0.75
	// debugMissionTitle marks the demo mission whose verification bypasses
	// the oracle and always approves. Exact (case-insensitive) title match.
	debugMissionTitle = "test"
)

var addressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

type MissionService struct {
	DB     *gorm.DB
	Oracle ScoringOracle
	Chain  SettlementLedger
	Policy VerdictPolicy
}

func NewMissionService(db *gorm.DB, oracle ScoringOracle, chain SettlementLedger) *MissionService {
	return &MissionService{
		DB:     db,
		Oracle: oracle,
		Chain:  chain,
		Policy: LoadVerdictPolicy(),
	}
}

// ─── Inputs ─────────────────────────────────────────────────

type MissionProposal struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Location    *string `json:"location"`
	Proposer    string  `json:"proposer"`
}

type EvaluationInput struct {
	Difficulty   int      `json:"difficulty"`
	Impact       int      `json:"impact"`
	Confidence   float64  `json:"confidence"`
	Rationale    string   `json:"rationale"`
	RewardAmount *big.Int `json:"-"`
}

type ProofInput struct {
	Submitter string  `json:"submitter"`
	ProofURI  string  `json:"proof_uri"`
	Note      *string `json:"note"`
}

type VerificationInput struct {
	Verdict    string   `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

type RewardInput struct {
	Recipient *string `json:"recipient"`
	TxHash    *string `json:"tx_hash"`
}

type BoostInput struct {
	Booster string   `json:"booster"`
	Amount  *big.Int `json:"-"`
	TxHash  *string  `json:"tx_hash"`
}

// BoostReceipt summarizes a successful boost for the caller.
type BoostReceipt struct {
	Booster  string
	Amount   *big.Int
	NewTotal *big.Int
	TxHash   *string
}

// ─── Lookup helpers ─────────────────────────────────────────

func (s *MissionService) getMission(id string) (*models.Mission, error) {
	var m models.Mission
	if err := s.DB.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("mission not found")
		}
		return nil, err
	}
	return &m, nil
}

// GetMission returns a mission with its proof history, newest first.
func (s *MissionService) GetMission(id string) (*models.Mission, []models.Proof, error) {
	m, err := s.getMission(id)
	if err != nil {
		return nil, nil, err
	}
	var proofs []models.Proof
	if err := s.DB.Where("mission_id = ?", id).Order("created_at DESC").Find(&proofs).Error; err != nil {
		return nil, nil, err
	}
	return m, proofs, nil
}

// ListMissions returns missions for the feed, newest first.
func (s *MissionService) ListMissions(status *models.MissionStatus, excludeClaimed bool, limit int) ([]models.Mission, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := s.DB.Order("created_at DESC").Limit(limit)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if excludeClaimed {
		q = q.Where("claimed_by IS NULL")
	}
	var missions []models.Mission
	if err := q.Find(&missions).Error; err != nil {
		return nil, err
	}
	return missions, nil
}

// MyMissions returns missions proposed and claimed by an address.
func (s *MissionService) MyMissions(address string) (proposed, claimed []models.Mission, err error) {
	if !addressRe.MatchString(address) {
		return nil, nil, ErrValidation("invalid Ethereum address")
	}
	if err := s.DB.Where("LOWER(proposer) = LOWER(?)", address).
		Order("created_at DESC").Limit(50).Find(&proposed).Error; err != nil {
		return nil, nil, err
	}
	if err := s.DB.Where("LOWER(claimed_by) = LOWER(?)", address).
		Order("claimed_at DESC").Limit(50).Find(&claimed).Error; err != nil {
		return nil, nil, err
	}
	return proposed, claimed, nil
}

// statusConflict turns a zero-rows conditional update into the right error.
func (s *MissionService) statusConflict(id string, expected ...models.MissionStatus) error {
	m, err := s.getMission(id)
	if err != nil {
		return err
	}
	allowed := make([]string, len(expected))
	for i, st := range expected {
		allowed[i] = fmt.Sprintf("%q", st)
	}
	return ErrConflict("mission status is %q, expected %s", m.Status, strings.Join(allowed, " or "))
}

func summaryOf(m *models.Mission) ai.MissionSummary {
	loc := ""
	if m.Location != nil {
		loc = *m.Location
	}
	return ai.MissionSummary{
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Location:    loc,
	}
}

// mockTxRef synthesizes a clearly-marked placeholder settlement reference for
// display continuity when the chain is disabled.
func mockTxRef() string {
	buf := make([]byte, 29)
	_, _ = rand.Read(buf)
	return "0xMOCK" + hex.EncodeToString(buf)
}

// ─── Propose ────────────────────────────────────────────────

// Propose screens and stores a new mission in proposed status.
// Screening outages degrade to allow-through; a confident rejection refuses
// the proposal with the screening payload attached.
func (s *MissionService) Propose(ctx context.Context, in MissionProposal) (*models.Mission, *ai.ScreeningResult, error) {
	if len(in.Title) < 3 || len(in.Title) > 120 {
		return nil, nil, ErrValidation("title must be 3-120 characters")
	}
	if len(in.Description) < 10 || len(in.Description) > 4000 {
		return nil, nil, ErrValidation("description must be 10-4000 characters")
	}
	if len(in.Category) < 2 || len(in.Category) > 64 {
		return nil, nil, ErrValidation("category must be 2-64 characters")
	}
	if in.Location != nil && (len(*in.Location) < 2 || len(*in.Location) > 128) {
		return nil, nil, ErrValidation("location must be 2-128 characters")
	}
	if !addressRe.MatchString(in.Proposer) {
		return nil, nil, ErrValidation("invalid proposer address")
	}

	var screening *ai.ScreeningResult
	if s.Oracle != nil && s.Oracle.Available() {
		result, err := s.Oracle.ScreenProposal(ctx, ai.MissionSummary{
			Title: in.Title, Description: in.Description, Category: in.Category,
		})
		if err != nil {
			log.Printf("⚠️  Mission screening failed — allowing through: %v", err)
		} else {
			screening = result
			if !result.Approved && result.Confidence >= ScreeningRejectThreshold {
				return nil, result, ErrScreening("mission proposal was not approved by the screening agent", result)
			}
		}
	}

	mission := &models.Mission{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Location:    in.Location,
		Proposer:    in.Proposer,
		Status:      models.StatusProposed,
	}
	if err := s.DB.Create(mission).Error; err != nil {
		return nil, screening, err
	}
	return mission, screening, nil
}

// ─── Evaluate ───────────────────────────────────────────────

// Evaluate applies a caller-supplied judgment: proposed → evaluated.
func (s *MissionService) Evaluate(ctx context.Context, id string, in EvaluationInput) (*models.Mission, error) {
	if in.Difficulty < 1 || in.Difficulty > 10 {
		return nil, ErrValidation("difficulty must be in [1,10]")
	}
	if in.Impact < 1 || in.Impact > 10 {
		return nil, ErrValidation("impact must be in [1,10]")
	}
	if in.Confidence < 0 || in.Confidence > 1 {
		return nil, ErrValidation("confidence must be in [0,1]")
	}
	if len(in.Rationale) < 10 || len(in.Rationale) > 2000 {
		return nil, ErrValidation("rationale must be 10-2000 characters")
	}

	reward := in.RewardAmount
	if reward == nil {
		reward = ComputeReward(in.Difficulty, in.Impact)
	}
	return s.applyEvaluation(id, in.Difficulty, in.Impact, in.Confidence, in.Rationale, reward)
}

// AutoEvaluate is the same transition with an oracle-sourced judgment.
func (s *MissionService) AutoEvaluate(ctx context.Context, id string) (*models.Mission, *ai.Evaluation, error) {
	m, err := s.getMission(id)
	if err != nil {
		return nil, nil, err
	}
	if m.Status != models.StatusProposed {
		return nil, nil, s.statusConflict(id, models.StatusProposed)
	}
	if s.Oracle == nil || !s.Oracle.Available() {
		return nil, nil, ErrOracle(nil, "AI evaluation is unavailable — set OPENROUTER_API_KEY or evaluate manually")
	}

	eval, err := s.Oracle.EvaluateMission(ctx, summaryOf(m))
	if err != nil {
		return nil, nil, ErrOracle(err, "AI evaluation failed")
	}

	reward := eval.RewardWei
	if reward == nil {
		reward = ComputeReward(eval.Difficulty, eval.Impact)
	}
	updated, err := s.applyEvaluation(id, eval.Difficulty, eval.Impact, eval.Confidence, eval.Rationale, reward)
	if err != nil {
		return nil, nil, err
	}
	return updated, eval, nil
}

func (s *MissionService) applyEvaluation(id string, difficulty, impact int, confidence float64, rationale string, reward *big.Int) (*models.Mission, error) {
	res := s.DB.Model(&models.Mission{}).
		Where("id = ? AND status = ?", id, models.StatusProposed).
		Updates(map[string]interface{}{
			"status":        models.StatusEvaluated,
			"difficulty":    difficulty,
			"impact":        impact,
			"confidence":    confidence,
			"rationale":     rationale,
			"reward_amount": models.NewWei(reward),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.statusConflict(id, models.StatusProposed)
	}
	return s.getMission(id)
}

// ─── Activate ───────────────────────────────────────────────

// Activate opens an evaluated mission for claiming: evaluated → active.
func (s *MissionService) Activate(ctx context.Context, id string) (*models.Mission, error) {
	res := s.DB.Model(&models.Mission{}).
		Where("id = ? AND status = ?", id, models.StatusEvaluated).
		Update("status", models.StatusActive)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.statusConflict(id, models.StatusEvaluated)
	}
	return s.getMission(id)
}

// ─── Claim / Unclaim ────────────────────────────────────────

var activeClaimStatuses = []models.MissionStatus{models.StatusActive, models.StatusProofSubmitted}

// Claim commits a participant to a mission. Both exclusivity predicates —
// the mission is unclaimed, and the claimer holds no other active or
// proof_submitted claim — are evaluated inside one conditional UPDATE, so a
// racing request loses by affecting zero rows.
func (s *MissionService) Claim(ctx context.Context, id, claimer string) (*models.Mission, error) {
	if !addressRe.MatchString(claimer) {
		return nil, ErrValidation("valid claimer address required")
	}

	now := time.Now()
	res := s.DB.Exec(`
		UPDATE missions SET claimed_by = ?, claimed_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND claimed_by IS NULL AND deleted_at IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM missions other
			WHERE LOWER(other.claimed_by) = LOWER(?)
			  AND other.status IN ?
			  AND other.deleted_at IS NULL
		  )`,
		claimer, now, now, id, models.StatusActive, claimer, activeClaimStatuses)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.claimConflict(id, claimer)
	}
	return s.getMission(id)
}

func (s *MissionService) claimConflict(id, claimer string) error {
	m, err := s.getMission(id)
	if err != nil {
		return err
	}
	if m.Status != models.StatusActive {
		return s.statusConflict(id, models.StatusActive)
	}
	if m.ClaimedBy != nil {
		return ErrConflict("mission already claimed by another user")
	}
	var existing models.Mission
	err = s.DB.Where("LOWER(claimed_by) = LOWER(?) AND status IN ?", claimer, activeClaimStatuses).
		First(&existing).Error
	if err == nil {
		return ErrConflict("you already have an active claim on mission %q — complete or unclaim it first", existing.Title)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return ErrConflict("mission could not be claimed")
}

// Unclaim releases a claim. Forbidden once proof has been submitted.
func (s *MissionService) Unclaim(ctx context.Context, id, claimer string) (*models.Mission, error) {
	if !addressRe.MatchString(claimer) {
		return nil, ErrValidation("valid claimer address required")
	}

	m, err := s.getMission(id)
	if err != nil {
		return nil, err
	}
	if m.ClaimedBy == nil || !strings.EqualFold(*m.ClaimedBy, claimer) {
		return nil, ErrConflict("you did not claim this mission")
	}
	if m.Status == models.StatusProofSubmitted {
		return nil, ErrConflict("cannot unclaim after proof submission")
	}

	res := s.DB.Model(&models.Mission{}).
		Where("id = ? AND LOWER(claimed_by) = LOWER(?) AND status IN ?",
			id, claimer, []models.MissionStatus{models.StatusActive, models.StatusEvaluated}).
		Updates(map[string]interface{}{"claimed_by": nil, "claimed_at": nil})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict("mission claim changed concurrently — retry")
	}
	return s.getMission(id)
}

// ─── Submit proof ───────────────────────────────────────────

// SubmitProof records a proof attempt: active|rejected → proof_submitted.
// An unclaimed mission is auto-claimed for the submitter.
func (s *MissionService) SubmitProof(ctx context.Context, id string, in ProofInput) (*models.Mission, *models.Proof, error) {
	if !addressRe.MatchString(in.Submitter) {
		return nil, nil, ErrValidation("valid submitter address required")
	}
	lowerURI := strings.ToLower(in.ProofURI)
	if !strings.HasPrefix(in.ProofURI, "/uploads/") &&
		!strings.HasPrefix(lowerURI, "http://") && !strings.HasPrefix(lowerURI, "https://") {
		return nil, nil, ErrValidation("proof URI must be an http(s) URL or an /uploads/ path")
	}
	if in.Note != nil && len(*in.Note) > 2000 {
		return nil, nil, ErrValidation("note must be at most 2000 characters")
	}

	var proof *models.Proof
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var m models.Mission
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound("mission not found")
			}
			return err
		}
		if m.Status != models.StatusActive && m.Status != models.StatusRejected {
			return ErrConflict("mission status is %q, expected %q or %q",
				m.Status, models.StatusActive, models.StatusRejected)
		}
		if m.ClaimedBy != nil && !strings.EqualFold(*m.ClaimedBy, in.Submitter) {
			return ErrConflict("only the mission claimant can submit proof")
		}

		proof = &models.Proof{
			ID:        uuid.NewString(),
			MissionID: id,
			Submitter: in.Submitter,
			ProofURI:  in.ProofURI,
			Note:      in.Note,
		}
		if err := tx.Create(proof).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":             models.StatusProofSubmitted,
			"proof_uri":          in.ProofURI,
			"proof_note":         in.Note,
			"proof_submitted_by": in.Submitter,
		}
		if m.ClaimedBy == nil {
			updates["claimed_by"] = in.Submitter
			updates["claimed_at"] = time.Now()
		}

		res := tx.Model(&models.Mission{}).
			Where("id = ? AND status = ?", id, m.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict("mission changed concurrently — retry proof submission")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	m, err := s.getMission(id)
	if err != nil {
		return nil, nil, err
	}
	return m, proof, nil
}

// ─── Verify ─────────────────────────────────────────────────

// Verify applies a caller-supplied verdict to the latest proof attempt:
// approved → verified, rejected → rejected, needs_review leaves the status.
func (s *MissionService) Verify(ctx context.Context, id string, in VerificationInput) (*models.Mission, error) {
	if err := validateVerification(in); err != nil {
		return nil, err
	}
	return s.applyVerification(id, in)
}

func validateVerification(in VerificationInput) error {
	switch Verdict(in.Verdict) {
	case VerdictApproved, VerdictRejected, VerdictNeedsReview:
	default:
		return ErrValidation("verdict must be approved, rejected or needs_review")
	}
	if in.Confidence < 0 || in.Confidence > 1 {
		return ErrValidation("confidence must be in [0,1]")
	}
	if len(in.Evidence) == 0 {
		return ErrValidation("at least one evidence item required")
	}
	for _, e := range in.Evidence {
		if len(e) > 300 {
			return ErrValidation("evidence items must be at most 300 characters")
		}
	}
	return nil
}

func (s *MissionService) applyVerification(id string, in VerificationInput) (*models.Mission, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var m models.Mission
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound("mission not found")
			}
			return err
		}
		if m.Status != models.StatusProofSubmitted && m.Status != models.StatusRejected {
			return ErrConflict("mission status is %q, expected %q or %q",
				m.Status, models.StatusProofSubmitted, models.StatusRejected)
		}

		var latest models.Proof
		if err := tx.Where("mission_id = ?", id).Order("created_at DESC").First(&latest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound("mission has no proof to verify")
			}
			return err
		}

		if err := tx.Model(&models.Proof{}).Where("id = ?", latest.ID).
			Updates(map[string]interface{}{
				"verdict":    in.Verdict,
				"confidence": in.Confidence,
				"evidence":   models.StringList(in.Evidence),
			}).Error; err != nil {
			return err
		}

		resolved := m.Status
		switch Verdict(in.Verdict) {
		case VerdictApproved:
			resolved = models.StatusVerified
		case VerdictRejected:
			resolved = models.StatusRejected
		}
		if resolved == m.Status {
			return nil
		}

		res := tx.Model(&models.Mission{}).
			Where("id = ? AND status = ?", id, m.Status).
			Update("status", resolved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict("mission changed concurrently — retry verification")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.getMission(id)
}

// AutoVerifyResult carries the oracle context of an automatic verification.
type AutoVerifyResult struct {
	Mission       *models.Mission
	Verification  VerificationInput
	Discriminator *ai.DiscriminatorResult
	OracleUsed    bool
}

// AutoVerify sources the verdict from the oracle and applies the same
// transition rules as Verify. The discriminator runs first: a confident
// "generated" finding rejects without consulting the main verifier, and a
// discriminator failure merely skips the pre-screen.
func (s *MissionService) AutoVerify(ctx context.Context, id string) (*AutoVerifyResult, error) {
	m, err := s.getMission(id)
	if err != nil {
		return nil, err
	}
	if m.Status != models.StatusProofSubmitted && m.Status != models.StatusRejected {
		return nil, s.statusConflict(id, models.StatusProofSubmitted, models.StatusRejected)
	}
	if m.ProofURI == nil {
		return nil, ErrValidation("mission has no proof URI")
	}

	result := &AutoVerifyResult{}

	if strings.EqualFold(m.Title, debugMissionTitle) {
		// Debug mission: always verifies as confirmed, independent of the
		// oracle. Named override, not part of the verdict policy.
		log.Println("Debug mission detected — auto-approving")
		result.Verification = VerificationInput{
			Verdict:    string(VerdictApproved),
			Confidence: 1.0,
			Evidence: []string{
				"Debug mission: always verified as confirmed",
				"This mission exists to exercise the lifecycle end to end",
			},
		}
	} else {
		if s.Oracle == nil || !s.Oracle.Available() {
			return nil, ErrOracle(nil, "AI verification is unavailable — set OPENROUTER_API_KEY or verify manually")
		}

		disc, discErr := s.Oracle.DetectGenerated(ctx, *m.ProofURI)
		if discErr != nil {
			log.Printf("⚠️  AI discriminator failed — proceeding to main verification: %v", discErr)
		} else {
			result.Discriminator = disc
			if disc.IsGenerated && disc.Confidence >= GeneratedRejectThreshold {
				log.Printf("🚫 Proof flagged as AI-generated (confidence %.2f) — rejecting", disc.Confidence)
				evidence := append([]string{"REJECTED: proof appears to be AI-generated content"}, disc.Reasons...)
				evidence = append(evidence, "Please submit genuine real-world evidence (photos, videos, documents)")
				result.Verification = VerificationInput{
					Verdict:    string(VerdictRejected),
					Confidence: disc.Confidence,
					Evidence:   evidence,
				}
				result.OracleUsed = true
			}
		}

		if result.Verification.Verdict == "" {
			raw, err := s.Oracle.VerifyProof(ctx, summaryOf(m).String(), *m.ProofURI)
			if err != nil {
				return nil, ErrOracle(err, "AI verification failed")
			}
			resolved := s.Policy.Resolve(raw.Verdict, raw.Confidence)
			result.Verification = VerificationInput{
				Verdict:    string(resolved),
				Confidence: raw.Confidence,
				Evidence:   raw.Evidence,
			}
			result.OracleUsed = true
		}
	}

	updated, err := s.applyVerification(id, result.Verification)
	if err != nil {
		return nil, err
	}
	result.Mission = updated
	return result, nil
}

// ─── Reward ─────────────────────────────────────────────────

// Reward settles a verified mission: verified → rewarded. A settlement
// failure surfaces as an error with no state change; the loser of a
// concurrent reward race observes a conflict, never a double issue.
func (s *MissionService) Reward(ctx context.Context, id string, in RewardInput) (*models.Mission, error) {
	if in.Recipient != nil && !addressRe.MatchString(*in.Recipient) {
		return nil, ErrValidation("invalid recipient address")
	}

	m, err := s.getMission(id)
	if err != nil {
		return nil, err
	}
	if m.Status != models.StatusVerified {
		return nil, s.statusConflict(id, models.StatusVerified)
	}
	if m.RewardAmount == nil {
		return nil, ErrValidation("mission has no reward amount set")
	}

	recipient := ""
	switch {
	case in.Recipient != nil:
		recipient = *in.Recipient
	case m.ClaimedBy != nil:
		recipient = *m.ClaimedBy
	case m.ProofSubmittedBy != nil:
		recipient = *m.ProofSubmittedBy
	default:
		return nil, ErrValidation("no reward recipient (no claimant or explicit recipient)")
	}

	txHash := in.TxHash
	if s.Chain != nil && s.Chain.Enabled() {
		hash, err := s.Chain.ReleaseReward(ctx, recipient, m.RewardAmount.BigInt())
		if err != nil {
			return nil, ErrSettlement(err, "on-chain reward release failed")
		}
		txHash = &hash
		log.Printf("💸 On-chain reward sent: tx=%s recipient=%s amount=%s", hash, recipient, m.RewardAmount.String())
	} else if txHash == nil {
		mock := mockTxRef()
		txHash = &mock
		log.Printf("💸 Mock reward issued for %s (on-chain settlement disabled)", recipient)
	}

	res := s.DB.Model(&models.Mission{}).
		Where("id = ? AND status = ?", id, models.StatusVerified).
		Updates(map[string]interface{}{
			"status":          models.StatusRewarded,
			"onchain_tx_hash": txHash,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.statusConflict(id, models.StatusVerified)
	}
	return s.getMission(id)
}

// ─── Boost ──────────────────────────────────────────────────

var boostableStatuses = []models.MissionStatus{
	models.StatusEvaluated, models.StatusActive, models.StatusProofSubmitted,
}

// Boost adds to a mission's reward pot and records the attribution. The new
// total is applied with a compare-and-swap on the current amount so racing
// boosts serialize without losing precision to in-database arithmetic.
// Receipt verification is best-effort by design: a failed lookup logs and
// accepts, only an explicit on-chain failure rejects.
func (s *MissionService) Boost(ctx context.Context, id string, in BoostInput) (*models.Mission, *BoostReceipt, error) {
	if !addressRe.MatchString(in.Booster) {
		return nil, nil, ErrValidation("valid booster address required")
	}
	if in.Amount == nil || in.Amount.Sign() <= 0 {
		return nil, nil, ErrValidation("boost amount must be a positive wei amount")
	}

	txHash := in.TxHash
	if txHash != nil && s.Chain != nil && s.Chain.Enabled() {
		ok, err := s.Chain.VerifyReceipt(ctx, *txHash)
		if err != nil {
			log.Printf("⚠️  Could not verify boost tx on-chain — accepting anyway: %v", err)
		} else if !ok {
			return nil, nil, ErrValidation("on-chain transfer transaction failed")
		}
	} else if txHash == nil && (s.Chain == nil || !s.Chain.Enabled()) {
		mock := mockTxRef()
		txHash = &mock
	}

	for attempt := 0; attempt < 3; attempt++ {
		m, err := s.getMission(id)
		if err != nil {
			return nil, nil, err
		}
		if !boostEligible(m.Status) {
			return nil, nil, ErrConflict("cannot boost mission in %q status", m.Status)
		}

		current := m.RewardAmount.BigInt()
		newTotal := new(big.Int).Add(current, in.Amount)

		var swapped bool
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			q := tx.Model(&models.Mission{}).Where("id = ? AND status = ?", id, m.Status)
			if m.RewardAmount == nil {
				q = q.Where("reward_amount IS NULL")
			} else {
				q = q.Where("reward_amount = ?", m.RewardAmount)
			}
			res := q.Update("reward_amount", models.NewWei(newTotal))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil // lost the race; retry with fresh state
			}
			swapped = true
			return tx.Create(&models.BoostRecord{
				ID:        uuid.NewString(),
				MissionID: id,
				Booster:   strings.ToLower(in.Booster),
				AmountWei: *models.NewWei(in.Amount),
				TxHash:    txHash,
			}).Error
		})
		if err != nil {
			return nil, nil, err
		}
		if !swapped {
			continue
		}

		updated, err := s.getMission(id)
		if err != nil {
			return nil, nil, err
		}
		return updated, &BoostReceipt{
			Booster:  in.Booster,
			Amount:   new(big.Int).Set(in.Amount),
			NewTotal: newTotal,
			TxHash:   txHash,
		}, nil
	}
	return nil, nil, ErrConflict("mission reward changed concurrently — retry boost")
}

func boostEligible(st models.MissionStatus) bool {
	for _, s := range boostableStatuses {
		if s == st {
			return true
		}
	}
	return false
}
