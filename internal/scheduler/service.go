package scheduler

import (
	"context"
	"fmt"

	"github.com/Yertled/Discord-Inactive-Checker/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner posts an activity report to a channel
type Runner interface {
	RunReport(ctx context.Context, guildID, replyChannelID string) error
}

// Service posts activity reports on a recurring schedule
type Service struct {
	config *config.Config
	runner Runner
	cron   *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, runner Runner) *Service {
	return &Service{
		config: cfg,
		runner: runner,
		cron:   cron.New(cron.WithSeconds()),
	}
}

// Expression maps a configured schedule to a six-field cron expression
func Expression(schedule string) string {
	switch schedule {
	case "daily":
		// Run daily at 9 AM UTC
		return "0 0 9 * * *"
	case "weekly":
		// Run weekly on Monday at 9 AM UTC
		return "0 0 9 * * MON"
	default:
		return schedule
	}
}

// Start registers the report job. It does nothing when no schedule is configured.
func (s *Service) Start() error {
	if s.config.ReportSchedule == "" {
		logrus.Info("No report schedule configured, scheduler disabled")
		return nil
	}

	expression := Expression(s.config.ReportSchedule)
	if _, err := s.cron.AddFunc(expression, s.runScheduled); err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", s.config.ReportSchedule, err)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s schedule for guild %s", s.config.ReportSchedule, s.config.ReportGuildID)
	return nil
}

func (s *Service) runScheduled() {
	logrus.Info("Starting scheduled activity report")
	if err := s.runner.RunReport(context.Background(), s.config.ReportGuildID, s.config.ReportChannel); err != nil {
		logrus.Errorf("Scheduled activity report failed: %v", err)
	}
}

// Jobs returns the number of registered jobs
func (s *Service) Jobs() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler and waits for a running report to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
