package services

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"forgood-mission-system/models"

	"github.com/go-co-op/gocron/v2"
)

const (
	defaultAutoPostThreshold = 3
	defaultAutoPostInterval  = 30 * time.Minute
)

// AutoPost tops up the mission feed: when fewer than threshold active
// unclaimed missions remain, it asks the oracle for an idea and runs it
// through the normal propose → evaluate → activate path.
func (s *MissionService) AutoPost(ctx context.Context) (*models.Mission, error) {
	if s.Oracle == nil || !s.Oracle.Available() {
		return nil, ErrOracle(nil, "AI mission generation is unavailable")
	}

	idea, err := s.Oracle.GenerateMissionIdea(ctx)
	if err != nil {
		return nil, ErrOracle(err, "AI mission generation failed")
	}

	// Models occasionally invent categories; fold those into "other".
	if !models.ValidCategory(idea.Category) {
		idea.Category = "other"
	}
	var location *string
	if idea.Location != "" {
		location = &idea.Location
	}
	mission, _, err := s.Propose(ctx, MissionProposal{
		Title:       idea.Title,
		Description: idea.Description,
		Category:    idea.Category,
		Location:    location,
		Proposer:    AgentProposerAddress,
	})
	if err != nil {
		return nil, err
	}

	if _, _, err := s.AutoEvaluate(ctx, mission.ID); err != nil {
		return nil, err
	}
	return s.Activate(ctx, mission.ID)
}

// AgentProposerAddress attributes auto-posted missions to the system agent.
const AgentProposerAddress = "0x0000000000000000000000000000000000000a9e"

// StartAutoPostScheduler periodically tops up the feed. AUTO_POST_THRESHOLD
// and AUTO_POST_INTERVAL (Go duration, e.g. "30m") tune it; the job is
// skipped when the oracle is not configured.
func (s *MissionService) StartAutoPostScheduler(ctx context.Context) {
	threshold := int64(defaultAutoPostThreshold)
	if v := os.Getenv("AUTO_POST_THRESHOLD"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			threshold = n
		} else {
			log.Printf("⚠️  Ignoring invalid AUTO_POST_THRESHOLD=%q", v)
		}
	}
	interval := defaultAutoPostInterval
	if v := os.Getenv("AUTO_POST_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= time.Minute {
			interval = d
		} else {
			log.Printf("⚠️  Ignoring invalid AUTO_POST_INTERVAL=%q (minimum 1m)", v)
		}
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("❌ Failed to create auto-post scheduler: %v", err)
		return
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if s.Oracle == nil || !s.Oracle.Available() {
				return
			}
			var open int64
			err := s.DB.Model(&models.Mission{}).
				Where("status = ? AND claimed_by IS NULL", models.StatusActive).
				Count(&open).Error
			if err != nil {
				log.Printf("[AutoPost] DB error: %v", err)
				return
			}
			if open >= threshold {
				return
			}

			jobCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			mission, err := s.AutoPost(jobCtx)
			if err != nil {
				log.Printf("[AutoPost] Failed to generate mission: %v", err)
				return
			}
			log.Printf("✅ Auto-posted mission: %s", mission.Title)
		}),
	)
	if err != nil {
		log.Printf("❌ Failed to register auto-post job: %v", err)
		_ = sched.Shutdown()
		return
	}

	go func() {
		<-ctx.Done()
		_ = sched.Shutdown()
	}()
}
