package jobs

import (
	"log"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/services"
)

// DailyScheduler keeps the round pipeline moving: it activates rounds past
// their betting deadline, tops up tomorrow's schedule and expires stale
// referral commissions.
type DailyScheduler struct {
	schedulerService *services.SchedulerService
	referralService  *services.ReferralService
	interval         time.Duration
	stopChan         chan struct{}
}

// NewDailyScheduler creates the scheduling job
func NewDailyScheduler(schedulerService *services.SchedulerService, referralService *services.ReferralService, interval time.Duration) *DailyScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &DailyScheduler{
		schedulerService: schedulerService,
		referralService:  referralService,
		interval:         interval,
		stopChan:         make(chan struct{}),
	}
}

// Start begins the scheduling loop. Runs one pass immediately so a fresh
// deployment has rounds before the first tick.
func (ds *DailyScheduler) Start() {
	log.Printf("[DailyScheduler] Starting scheduling job (interval: %v)", ds.interval)

	ds.runOnce()

	ticker := time.NewTicker(ds.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ds.runOnce()
		case <-ds.stopChan:
			log.Println("[DailyScheduler] Stopping scheduling job")
			return
		}
	}
}

// Stop stops the scheduling loop
func (ds *DailyScheduler) Stop() {
	close(ds.stopChan)
}

func (ds *DailyScheduler) runOnce() {
	if _, err := ds.schedulerService.UpdateRoundStatuses(); err != nil {
		log.Printf("[DailyScheduler] Error activating due rounds: %v", err)
	}

	now := time.Now().UTC()
	if _, err := ds.schedulerService.ScheduleDailyRounds(now); err != nil {
		log.Printf("[DailyScheduler] Error scheduling today's rounds: %v", err)
	}
	if _, err := ds.schedulerService.ScheduleDailyRounds(now.AddDate(0, 0, 1)); err != nil {
		log.Printf("[DailyScheduler] Error scheduling tomorrow's rounds: %v", err)
	}

	if _, err := ds.referralService.ExpirePendingCommissions(); err != nil {
		log.Printf("[DailyScheduler] Error expiring commissions: %v", err)
	}
}
