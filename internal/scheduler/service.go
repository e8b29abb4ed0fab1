package scheduler

import (
	"context"

	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/monitor"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service triggers periodic monitoring sweeps. Per-subscription cadence
// gating happens inside the monitor; the cron entry just wakes it up.
type Service struct {
	schedule       string
	monitorService *monitor.Service
	cron           *cron.Cron
}

// NewService creates a new scheduler service
func NewService(schedule string, monitorService *monitor.Service) *Service {
	return &Service{
		schedule:       schedule,
		monitorService: monitorService,
		cron:           cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled monitoring sweeps
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		logrus.Info("Starting scheduled monitoring sweep")
		outcomes, err := s.monitorService.RunAll(context.Background())
		if err != nil {
			logrus.Errorf("Scheduled monitoring sweep failed: %v", err)
			return
		}

		var completed, failed int
		for _, outcome := range outcomes {
			switch outcome.Status {
			case models.RunCompleted:
				completed++
			case models.RunFailed:
				failed++
			}
		}
		logrus.Infof("Monitoring sweep finished: %d completed, %d failed, %d total",
			completed, failed, len(outcomes))
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q", s.schedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
