package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"gatherly-api/internal/adapters/persistence/repositories"
	"gatherly-api/internal/core/domain"
)

// DeadlineService runs the background jobs: closing expired groups every few
// minutes and purging expired refresh tokens once a day.
type DeadlineService struct {
	groupRepo repositories.GroupRepository
	tokenRepo repositories.RefreshTokenRepository
	cron      *cron.Cron
	now       func() time.Time
}

// NewDeadlineService creates a new deadline service
func NewDeadlineService(groupRepo repositories.GroupRepository, tokenRepo repositories.RefreshTokenRepository) *DeadlineService {
	return &DeadlineService{
		groupRepo: groupRepo,
		tokenRepo: tokenRepo,
		cron:      cron.New(),
		now:       time.Now,
	}
}

// Start registers and starts the cron jobs
func (s *DeadlineService) Start() {
	// Sweep expired deadlines every 5 minutes
	s.cron.AddFunc("@every 5m", func() {
		s.SweepDeadlines(context.Background())
	})

	// Purge expired refresh tokens daily at midnight
	s.cron.AddFunc("@daily", func() {
		if err := s.tokenRepo.DeleteExpired(context.Background()); err != nil {
			log.Printf("❌ Refresh token purge failed: %v", err)
		}
	})

	s.cron.Start()
	log.Println("✅ Deadline service started (sweep @every 5m, token purge @daily)")
}

// Stop stops the cron scheduler
func (s *DeadlineService) Stop() {
	s.cron.Stop()
	log.Println("🛑 Deadline service stopped")
}

// SweepDeadlines closes every active non-flexible group whose deadline has
// passed. A group updated concurrently since the read is skipped; the next
// sweep picks it up again. Returns the number of groups closed.
func (s *DeadlineService) SweepDeadlines(ctx context.Context) int {
	now := s.now()
	candidates, err := s.groupRepo.ListDeadlineCandidates(ctx, now)
	if err != nil {
		log.Printf("❌ Deadline sweep failed to list candidates: %v", err)
		return 0
	}

	closed := 0
	for _, groupModel := range candidates {
		updated := domain.ApplyDeadlineTick(groupModel.ToDomain(), now)
		if updated.Status == domain.GroupStatus(groupModel.Status) {
			continue
		}

		groupModel.ApplyDomain(updated)
		err := s.groupRepo.UpdateGroupStatus(ctx, groupModel, groupModel.Version)
		if errors.Is(err, domain.ErrStaleWrite) {
			// A join or another sweep got there first.
			continue
		}
		if err != nil {
			log.Printf("❌ Failed to close group %s: %v", groupModel.ID, err)
			continue
		}
		closed++
	}

	if closed > 0 {
		log.Printf("✅ Deadline sweep closed %d group(s)", closed)
	}
	return closed
}
