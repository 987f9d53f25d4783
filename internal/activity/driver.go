package activity

import (
	"context"
	"errors"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
	"github.com/Yertled/Discord-Inactive-Checker/internal/platform"
	"github.com/Yertled/Discord-Inactive-Checker/internal/ratelimit"
	"github.com/sirupsen/logrus"
)

// ProgressFunc is called before each member is processed; index is 1-based
type ProgressFunc func(index, total int, member models.TrackedMember)

// RunStats summarises one aggregation pass
type RunStats struct {
	ChannelsChecked  int
	ChannelsSkipped  int
	RateLimitRetries int
	ChannelErrors    int
}

// Driver walks every tracked member across every configured channel, one pair at a time
type Driver struct {
	resolver platform.ChannelResolver
	counter  *Counter
	guard    *ratelimit.Guard
	delay    time.Duration
	sleep    ratelimit.SleepFunc
}

// NewDriver creates a driver that waits delay after every counted channel/member pair.
// Channel lookups go through guard so a rate limit never marks a channel as missing.
func NewDriver(resolver platform.ChannelResolver, counter *Counter, guard *ratelimit.Guard, delay time.Duration, sleep ratelimit.SleepFunc) *Driver {
	if sleep == nil {
		sleep = ratelimit.Sleep
	}
	return &Driver{
		resolver: resolver,
		counter:  counter,
		guard:    guard,
		delay:    delay,
		sleep:    sleep,
	}
}

// Run tallies members × channelIDs in order. Channels that cannot be resolved are skipped.
// Only context cancellation stops the run early.
func (d *Driver) Run(ctx context.Context, guildID string, members []models.TrackedMember, channelIDs []string, start time.Time, progress ProgressFunc) (*models.Tally, RunStats, error) {
	tally := models.NewTally()
	stats := RunStats{}
	resolved := make(map[string]*models.Channel, len(channelIDs))

	for _, member := range members {
		tally.Track(member)
	}

	for i, member := range members {
		if progress != nil {
			progress(i+1, len(members), member)
		}
		logrus.Infof("Checking activity for member: %s", member.Username)

		for _, channelID := range channelIDs {
			ch, ok := resolved[channelID]
			if !ok {
				var err error
				ch, err = d.resolve(ctx, guildID, channelID, &stats)
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return tally, stats, err
				}
				if err != nil {
					logrus.Warnf("Channel with ID %s not found: %v", channelID, err)
					ch = nil
				}
				resolved[channelID] = ch
			}
			if ch == nil {
				stats.ChannelsSkipped++
				continue
			}

			logrus.Infof("Checking channel: %s", ch.Name)
			result := d.counter.Count(ctx, *ch, member, start)
			logrus.Infof("Found %d messages for %s in %s", result.Count, member.Username, ch.Name)

			tally.Add(member, ch.Name, result.Count)
			stats.ChannelsChecked++
			stats.RateLimitRetries += result.Retries
			if result.Err != nil {
				stats.ChannelErrors++
			}

			if err := d.sleep(ctx, d.delay); err != nil {
				return tally, stats, err
			}
		}
	}

	logrus.Info("Finished checking all members and channels")
	return tally, stats, nil
}

func (d *Driver) resolve(ctx context.Context, guildID, channelID string, stats *RunStats) (*models.Channel, error) {
	var ch *models.Channel
	retries, err := d.guard.Do(ctx, func() error {
		var err error
		ch, err = d.resolver.ResolveChannel(ctx, guildID, channelID)
		return err
	})
	stats.RateLimitRetries += retries
	return ch, err
}
