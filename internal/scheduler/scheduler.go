// Package scheduler runs the periodic maintenance jobs: accumulator
// checkpoints so observers see emission progress, and the governance sweep
// over expired proposals.
package scheduler

import (
	"fmt"
	"log"

	"StakeSentinel/internal/governance"
	"StakeSentinel/internal/report"
	"StakeSentinel/internal/rewards"

	"github.com/robfig/cron/v3"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron         *cron.Cron
	Rewards      *rewards.Ledger
	Governance   *governance.Registry
	AutoFinalize bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(rl *rewards.Ledger, gr *governance.Registry, autoFinalize bool) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Rewards:      rl,
		Governance:   gr,
		AutoFinalize: autoFinalize,
	}
}

// RegisterAll registers the checkpoint and sweep tasks.
func (s *Scheduler) RegisterAll(checkpointCron, sweepCron string) error {
	if _, err := s.Cron.AddFunc(checkpointCron, s.checkpointTask); err != nil {
		return fmt.Errorf("register checkpoint task: %w", err)
	}
	if _, err := s.Cron.AddFunc(sweepCron, s.sweepTask); err != nil {
		return fmt.Errorf("register sweep task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) checkpointTask() {
	s.Rewards.Checkpoint()
	log.Printf("[INFO] %s", report.FormatPoolStatus(s.Rewards.PoolStatus()))
}

func (s *Scheduler) sweepTask() {
	if s.AutoFinalize {
		for _, id := range s.Governance.FinalizeExpired() {
			status, err := s.Governance.GetStatus(id)
			if err != nil {
				log.Printf("[ERROR] sweep status %d: %v", id, err)
				continue
			}
			log.Printf("[INFO] finalized %s", report.FormatProposalStatus(status))
		}
		return
	}
	if ids := s.Governance.ExpiredUnexecuted(); len(ids) > 0 {
		log.Printf("[INFO] %d proposal(s) past deadline awaiting execution: %v", len(ids), ids)
	}
}
