package services

import (
	"errors"
	"math/big"
	"strings"

	"forgood-mission-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

type ProfileInput struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
}

// ProfileStats aggregates a participant's lifecycle activity. Derived on
// read — nothing here is stored.
type ProfileStats struct {
	MissionsCompleted int64    `json:"missions_completed"`
	MissionsProposed  int64    `json:"missions_proposed"`
	MissionsClaimed   int64    `json:"missions_claimed"`
	MissionsVerified  int64    `json:"missions_verified"`
	TotalBoostWei     *big.Int `json:"-"`
}

// GetOrDefaultProfile returns the stored profile, or an unsaved default so
// every address has a profile shape without a write on first read.
func (s *ProfileService) GetOrDefaultProfile(address string) (*models.UserProfile, error) {
	if !addressRe.MatchString(address) {
		return nil, ErrValidation("invalid Ethereum address")
	}
	addr := strings.ToLower(address)

	var profile models.UserProfile
	err := s.DB.Where("address = ?", addr).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &models.UserProfile{Address: addr}, nil
}

// UpsertProfile creates or updates the profile for an address.
func (s *ProfileService) UpsertProfile(address string, in ProfileInput) (*models.UserProfile, error) {
	if !addressRe.MatchString(address) {
		return nil, ErrValidation("invalid Ethereum address")
	}
	if in.DisplayName != nil && len(*in.DisplayName) > 50 {
		return nil, ErrValidation("display name must be at most 50 characters")
	}
	if in.Bio != nil && len(*in.Bio) > 500 {
		return nil, ErrValidation("bio must be at most 500 characters")
	}
	if in.AvatarURL != nil && len(*in.AvatarURL) > 256 {
		return nil, ErrValidation("avatar URL must be at most 256 characters")
	}
	addr := strings.ToLower(address)

	var profile models.UserProfile
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("address = ?", addr).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.UserProfile{ID: uuid.NewString(), Address: addr}
		} else if err != nil {
			return err
		}
		if in.DisplayName != nil {
			profile.DisplayName = in.DisplayName
		}
		if in.Bio != nil {
			profile.Bio = in.Bio
		}
		if in.AvatarURL != nil {
			profile.AvatarURL = in.AvatarURL
		}
		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Stats computes an address's activity counters and cumulative boost total.
// Boost amounts are summed in Go because they live as decimal strings wider
// than any SQL integer type.
func (s *ProfileService) Stats(address string) (*ProfileStats, error) {
	if !addressRe.MatchString(address) {
		return nil, ErrValidation("invalid Ethereum address")
	}

	stats := &ProfileStats{TotalBoostWei: new(big.Int)}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.MissionsCompleted, s.DB.Model(&models.Mission{}).
			Where("LOWER(claimed_by) = LOWER(?) AND status = ?", address, models.StatusRewarded)},
		{&stats.MissionsProposed, s.DB.Model(&models.Mission{}).
			Where("LOWER(proposer) = LOWER(?)", address)},
		{&stats.MissionsClaimed, s.DB.Model(&models.Mission{}).
			Where("LOWER(claimed_by) = LOWER(?) AND status IN ?", address, activeClaimStatuses)},
		{&stats.MissionsVerified, s.DB.Model(&models.Mission{}).
			Where("LOWER(claimed_by) = LOWER(?) AND status IN ?", address,
				[]models.MissionStatus{models.StatusVerified, models.StatusRewarded})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	var boosts []models.BoostRecord
	if err := s.DB.Where("booster = ?", strings.ToLower(address)).Find(&boosts).Error; err != nil {
		return nil, err
	}
	for _, b := range boosts {
		stats.TotalBoostWei.Add(stats.TotalBoostWei, b.AmountWei.BigInt())
	}
	return stats, nil
}

// RankFor derives an address's rank tier from its stats.
func (s *ProfileService) RankFor(address string) (*RankTier, *ProfileStats, error) {
	stats, err := s.Stats(address)
	if err != nil {
		return nil, nil, err
	}
	tier := ComputeRank(stats.MissionsCompleted, stats.TotalBoostWei)
	return &tier, stats, nil
}
