package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/config"
	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
	"github.com/Yertled/Discord-Inactive-Checker/internal/notifications"
	"github.com/Yertled/Discord-Inactive-Checker/internal/platform"
	"github.com/Yertled/Discord-Inactive-Checker/internal/ratelimit"
	"github.com/Yertled/Discord-Inactive-Checker/internal/report"
	"github.com/Yertled/Discord-Inactive-Checker/internal/storage"
	"github.com/sirupsen/logrus"
)

const (
	MsgNoChannels     = "No channels configured to check. Please update the configuration."
	MsgAlreadyRunning = "An activity report is already running. Please wait for it to finish."
	MsgPreparing      = "Preparing to check activity..."
)

// Service runs the activity report command end to end
type Service struct {
	config              *config.Config
	platform            platform.Platform
	driver              *Driver
	guard               *ratelimit.Guard
	storage             storage.StorageInterface
	notificationService notifications.NotificationInterface
	metrics             *Metrics
	mu                  sync.RWMutex
	running             sync.Mutex
	now                 func() time.Time
}

// Metrics holds report run metrics
type Metrics struct {
	RunsCompleted    int       `json:"runs_completed"`
	LastRun          time.Time `json:"last_run"`
	LastRunDuration  string    `json:"last_run_duration"`
	LastGuildID      string    `json:"last_guild_id"`
	MembersChecked   int       `json:"members_checked"`
	ChannelsChecked  int       `json:"channels_checked"`
	ChannelsSkipped  int       `json:"channels_skipped"`
	MessagesCounted  int       `json:"messages_counted"`
	RateLimitRetries int       `json:"rate_limit_retries"`
	ErrorCount       int       `json:"error_count"`
	LastArchive      string    `json:"last_archive,omitempty"`
}

// Option customises a Service
type Option func(*Service)

// WithSleep replaces the timer used for backoff and pacing
func WithSleep(sleep ratelimit.SleepFunc) Option {
	return func(s *Service) {
		s.guard = ratelimit.NewGuard(s.config.RateLimitDelay, sleep)
		s.driver = NewDriver(s.platform, NewCounter(s.platform, s.guard), s.guard, s.config.RateLimitDelay, sleep)
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a report service. archive may be nil when archiving is disabled.
func NewService(cfg *config.Config, p platform.Platform, archive storage.StorageInterface, notificationService notifications.NotificationInterface, opts ...Option) *Service {
	guard := ratelimit.NewGuard(cfg.RateLimitDelay, nil)
	s := &Service{
		config:              cfg,
		platform:            p,
		driver:              NewDriver(p, NewCounter(p, guard), guard, cfg.RateLimitDelay, nil),
		guard:               guard,
		storage:             archive,
		notificationService: notificationService,
		metrics:             &Metrics{},
		now:                 time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RunReport tallies the guild's tracked members and posts the leaderboard to replyChannelID
func (s *Service) RunReport(ctx context.Context, guildID, replyChannelID string) error {
	if !s.running.TryLock() {
		_, err := s.platform.SendMessage(ctx, replyChannelID, MsgAlreadyRunning)
		return err
	}
	defer s.running.Unlock()

	if len(s.config.ChannelsToCheck) == 0 {
		logrus.Warn("Activity report requested but no channels are configured")
		_, err := s.platform.SendMessage(ctx, replyChannelID, MsgNoChannels)
		return err
	}

	err := s.runReport(ctx, guildID, replyChannelID)
	if err != nil {
		s.recordFailure()
		s.sendAlert(guildID, err)
	}
	return err
}

func (s *Service) runReport(ctx context.Context, guildID, replyChannelID string) error {
	start := time.Now()

	members, memberRetries, err := s.trackedMembers(ctx, guildID)
	if err != nil {
		return err
	}
	logrus.Infof("Found %d members to track", len(members))

	window := models.NewTimeWindow(s.now().UTC(), s.config.DaysToCheck)
	logrus.Infof("Checking activity from %s to %s", window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))

	statusID, err := s.platform.SendMessage(ctx, replyChannelID, MsgPreparing)
	if err != nil {
		return fmt.Errorf("failed to send status message: %w", err)
	}

	progress := func(index, total int, member models.TrackedMember) {
		content := fmt.Sprintf("Checking activity: %d/%d\nCurrent member: %s", index, total, member.Username)
		if err := s.platform.EditMessage(ctx, replyChannelID, statusID, content); err != nil {
			logrus.Warnf("Failed to update status message: %v", err)
		}
	}

	tally, stats, err := s.driver.Run(ctx, guildID, members, s.config.ChannelsToCheck, window.Start, progress)
	if err != nil {
		return fmt.Errorf("activity run interrupted: %w", err)
	}

	stats.RateLimitRetries += memberRetries

	r := report.Build(tally, window, s.config.DaysToCheck, guildID, s.now().UTC())
	for _, embed := range report.Embeds(r) {
		embed := embed
		retries, err := s.guard.Do(ctx, func() error {
			return s.platform.SendEmbed(ctx, replyChannelID, embed)
		})
		stats.RateLimitRetries += retries
		if err != nil {
			return fmt.Errorf("failed to send leaderboard: %w", err)
		}
	}
	logrus.Infof("Activity leaderboard generated for guild %s (%d segments)", guildID, len(r.Chunks))

	archived := s.mirror(ctx, r)
	s.updateMetrics(r, stats, time.Since(start), archived)

	return nil
}

func (s *Service) trackedMembers(ctx context.Context, guildID string) ([]models.TrackedMember, int, error) {
	var all []models.TrackedMember
	retries, err := s.guard.Do(ctx, func() error {
		var err error
		all, err = s.platform.GuildMembers(ctx, guildID)
		return err
	})
	if err != nil {
		return nil, retries, err
	}

	var tracked []models.TrackedMember
	for _, member := range all {
		if member.HasAnyRole(s.config.RolesToTrack) {
			tracked = append(tracked, member)
		}
	}
	return tracked, retries, nil
}

// mirror copies the report to the archive and notification channels. Failures are only logged.
func (s *Service) mirror(ctx context.Context, r *models.Report) string {
	var archived string
	if s.storage != nil {
		name, err := storage.ArchiveReport(ctx, s.storage, r)
		if err != nil {
			logrus.Errorf("Failed to archive report: %v", err)
		} else {
			archived = name
		}
	}

	if s.notificationService != nil {
		if err := s.notificationService.SendReport(r); err != nil {
			logrus.Errorf("Failed to mirror report: %v", err)
		}
	}

	return archived
}

func (s *Service) sendAlert(guildID string, runErr error) {
	if s.notificationService == nil || errors.Is(runErr, context.Canceled) {
		return
	}

	alert := &models.Alert{
		Type:      "error",
		Title:     "Activity report failed",
		Message:   runErr.Error(),
		GuildID:   guildID,
		CreatedAt: s.now(),
	}
	if err := s.notificationService.SendAlert(alert); err != nil {
		logrus.Errorf("Failed to send alert: %v", err)
	}
}

func (s *Service) updateMetrics(r *models.Report, stats RunStats, duration time.Duration, archived string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := 0
	for _, entry := range r.Entries {
		messages += entry.Total
	}

	s.metrics.RunsCompleted++
	s.metrics.LastRun = r.GeneratedAt
	s.metrics.LastRunDuration = duration.String()
	s.metrics.LastGuildID = r.GuildID
	s.metrics.MembersChecked = len(r.Entries)
	s.metrics.ChannelsChecked = stats.ChannelsChecked
	s.metrics.ChannelsSkipped = stats.ChannelsSkipped
	s.metrics.MessagesCounted = messages
	s.metrics.RateLimitRetries = stats.RateLimitRetries
	s.metrics.ErrorCount += stats.ChannelErrors
	if archived != "" {
		s.metrics.LastArchive = archived
	}
}

func (s *Service) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.ErrorCount++
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
