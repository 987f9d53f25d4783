package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
	"github.com/Yertled/Discord-Inactive-Checker/internal/platform"
)

// fakePlatform is an in-memory chat service driven by fixtures
type fakePlatform struct {
	members  []models.TrackedMember
	channels map[string]*models.Channel
	history  map[string][]models.Message
	archived map[string][]models.Thread
	active   map[string][]models.Thread
	// failures queues errors returned by WalkHistory for a channel before it succeeds
	failures   map[string][]error
	membersErr error
	// resolveFailures, memberFailures and embedFailures queue errors returned before the call succeeds
	resolveFailures map[string][]error
	memberFailures  []error
	embedFailures   []error

	historyFetches  int
	resolveCalls    int
	memberCalls     int
	fetchedChannels []string
	sent            []string
	edits           []string
	embeds          []models.Embed
}

var _ platform.Platform = (*fakePlatform)(nil)

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		channels: make(map[string]*models.Channel),
		history:  make(map[string][]models.Message),
		archived: make(map[string][]models.Thread),
		active:   make(map[string][]models.Thread),
		failures: make(map[string][]error),

		resolveFailures: make(map[string][]error),
	}
}

func (f *fakePlatform) addChannel(id, name string, kind models.ChannelKind) {
	f.channels[id] = &models.Channel{ID: id, GuildID: "guild", Name: name, Kind: kind}
}

// addMessages appends n messages by author to channelID at the given time
func (f *fakePlatform) addMessages(channelID, authorID string, at time.Time, n int) {
	for i := 0; i < n; i++ {
		f.history[channelID] = append(f.history[channelID], models.Message{
			ID:        fmt.Sprintf("%s-%s-%d-%d", channelID, authorID, at.Unix(), i),
			ChannelID: channelID,
			AuthorID:  authorID,
			Timestamp: at,
		})
	}
}

func (f *fakePlatform) GuildMembers(ctx context.Context, guildID string) ([]models.TrackedMember, error) {
	f.memberCalls++
	if len(f.memberFailures) > 0 {
		err := f.memberFailures[0]
		f.memberFailures = f.memberFailures[1:]
		return nil, err
	}
	return f.members, f.membersErr
}

func (f *fakePlatform) ResolveChannel(ctx context.Context, guildID, channelID string) (*models.Channel, error) {
	f.resolveCalls++
	if queue := f.resolveFailures[channelID]; len(queue) > 0 {
		f.resolveFailures[channelID] = queue[1:]
		return nil, queue[0]
	}
	if ch, ok := f.channels[channelID]; ok {
		return ch, nil
	}
	return nil, platform.ErrNotFound
}

func (f *fakePlatform) WalkHistory(ctx context.Context, channelID string, after time.Time, fn func(models.Message)) error {
	f.historyFetches++
	f.fetchedChannels = append(f.fetchedChannels, channelID)

	if queue := f.failures[channelID]; len(queue) > 0 {
		f.failures[channelID] = queue[1:]
		return queue[0]
	}

	for _, m := range f.history[channelID] {
		if m.Timestamp.After(after) {
			fn(m)
		}
	}
	return nil
}

func (f *fakePlatform) WalkArchivedThreads(ctx context.Context, forumID string, fn func(models.Thread) bool) error {
	for _, th := range f.archived[forumID] {
		if !fn(th) {
			return nil
		}
	}
	return nil
}

func (f *fakePlatform) ActiveThreads(ctx context.Context, guildID, forumID string) ([]models.Thread, error) {
	return f.active[forumID], nil
}

func (f *fakePlatform) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	f.sent = append(f.sent, content)
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func (f *fakePlatform) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	f.edits = append(f.edits, content)
	return nil
}

func (f *fakePlatform) SendEmbed(ctx context.Context, channelID string, embed models.Embed) error {
	if len(f.embedFailures) > 0 {
		err := f.embedFailures[0]
		f.embedFailures = f.embedFailures[1:]
		return err
	}
	f.embeds = append(f.embeds, embed)
	return nil
}

// recordingSleeper captures requested waits without blocking
type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}
