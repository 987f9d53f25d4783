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

// ChannelResult is the outcome of counting one member in one channel.
// Err records a handled failure; Count is zero whenever Err is set.
type ChannelResult struct {
	Count   int
	Retries int
	Err     error
}

// Counter counts a member's messages in a channel after a start time
type Counter struct {
	history platform.HistoryReader
	guard   *ratelimit.Guard
}

// NewCounter creates a counter reading history through the given reader
func NewCounter(history platform.HistoryReader, guard *ratelimit.Guard) *Counter {
	return &Counter{
		history: history,
		guard:   guard,
	}
}

// Count walks the channel (and its threads, for forums) and counts messages authored by
// member strictly after start. Rate limits restart the whole walk; every other failure is
// logged and counts as zero.
func (c *Counter) Count(ctx context.Context, ch models.Channel, member models.TrackedMember, start time.Time) ChannelResult {
	var count int
	retries, err := c.guard.Do(ctx, func() error {
		count = 0
		return c.countChannel(ctx, ch, member.ID, start, &count)
	})

	if err != nil {
		count = 0
		var httpErr *platform.HTTPError
		switch {
		case errors.Is(err, platform.ErrForbidden):
			logrus.Warnf("No permission to read history in channel %s", ch.Name)
		case errors.As(err, &httpErr):
			logrus.Errorf("Error checking channel %s: %v", ch.Name, err)
		default:
			logrus.Errorf("Unexpected error checking channel %s: %v", ch.Name, err)
		}
	}

	logrus.Infof("Total messages found for %s (ID: %s) in %s: %d", member.Username, member.ID, ch.Name, count)
	return ChannelResult{Count: count, Retries: retries, Err: err}
}

func (c *Counter) countChannel(ctx context.Context, ch models.Channel, memberID string, start time.Time, count *int) error {
	switch ch.Kind {
	case models.ChannelKindForum:
		return c.countForum(ctx, ch, memberID, start, count)
	case models.ChannelKindText, models.ChannelKindThread:
		return c.countHistory(ctx, ch.ID, memberID, start, count)
	default:
		logrus.Warnf("Unsupported channel type for %s: %s", ch.Name, ch.Kind)
		return nil
	}
}

// countForum visits archived threads newest first and stops at the first one created
// before start, then visits every active thread.
func (c *Counter) countForum(ctx context.Context, forum models.Channel, memberID string, start time.Time, count *int) error {
	var archived []models.Thread
	err := c.history.WalkArchivedThreads(ctx, forum.ID, func(th models.Thread) bool {
		if th.CreatedAt.Before(start) {
			return false
		}
		archived = append(archived, th)
		return true
	})
	if err != nil {
		return err
	}

	for _, th := range archived {
		if err := c.countHistory(ctx, th.ID, memberID, start, count); err != nil {
			return err
		}
	}

	active, err := c.history.ActiveThreads(ctx, forum.GuildID, forum.ID)
	if err != nil {
		return err
	}
	for _, th := range active {
		if err := c.countHistory(ctx, th.ID, memberID, start, count); err != nil {
			return err
		}
	}

	return nil
}

func (c *Counter) countHistory(ctx context.Context, channelID, memberID string, start time.Time, count *int) error {
	return c.history.WalkHistory(ctx, channelID, start, func(m models.Message) {
		if m.AuthorID == memberID && m.Timestamp.After(start) {
			*count++
		}
	})
}
