package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const (
	memberPageSize   = 1000
	historyPageSize  = 100
	archivedPageSize = 100

	// discordEpoch is the first millisecond of 2015 in Unix milliseconds
	discordEpoch = 1420070400000
)

// Discord implements Platform on top of a discordgo session
type Discord struct {
	session *discordgo.Session
}

// Ensure Discord implements Platform
var _ Platform = (*Discord)(nil)

// NewDiscord creates a bot session. Rate limits are surfaced as *RateLimitError instead of
// being retried inside discordgo.
func NewDiscord(token string) (*Discord, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.ShouldRetryOnRateLimit = false
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return &Discord{session: session}, nil
}

// Session exposes the underlying session for event handler registration
func (d *Discord) Session() *discordgo.Session {
	return d.session
}

// Open connects the gateway websocket
func (d *Discord) Open() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	logrus.Info("Connected to Discord gateway")
	return nil
}

// Close disconnects the gateway websocket
func (d *Discord) Close() error {
	return d.session.Close()
}

// GuildMembers pages through the full member list in API order
func (d *Discord) GuildMembers(ctx context.Context, guildID string) ([]models.TrackedMember, error) {
	var members []models.TrackedMember
	after := ""

	for {
		page, err := d.session.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list members of guild %s: %w", guildID, translateError(err))
		}

		for _, m := range page {
			if m.User == nil {
				continue
			}
			members = append(members, memberFrom(m))
			after = m.User.ID
		}

		if len(page) < memberPageSize {
			break
		}
	}

	return members, nil
}

// ResolveChannel looks the id up in the gateway state (channels, forums and threads), then via
// the REST API.
func (d *Discord) ResolveChannel(ctx context.Context, guildID, channelID string) (*models.Channel, error) {
	if ch, err := d.session.State.Channel(channelID); err == nil && ch.GuildID == guildID {
		return channelFrom(ch), nil
	}

	ch, err := d.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel %s: %w", channelID, translateError(err))
	}
	if guildID != "" && ch.GuildID != guildID {
		return nil, fmt.Errorf("channel %s is not in guild %s: %w", channelID, guildID, ErrNotFound)
	}

	return channelFrom(ch), nil
}

// WalkHistory pages forward from the snowflake of after until the channel is exhausted
func (d *Discord) WalkHistory(ctx context.Context, channelID string, after time.Time, fn func(models.Message)) error {
	cursor := snowflakeAt(after)

	for {
		page, err := d.session.ChannelMessages(channelID, historyPageSize, "", cursor, "", discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to fetch history of %s: %w", channelID, translateError(err))
		}

		for _, m := range page {
			if snowflakeLess(cursor, m.ID) {
				cursor = m.ID
			}
			if m.Author == nil {
				continue
			}
			fn(models.Message{
				ID:        m.ID,
				ChannelID: m.ChannelID,
				AuthorID:  m.Author.ID,
				Timestamp: m.Timestamp,
			})
		}

		if len(page) < historyPageSize {
			return nil
		}
	}
}

// WalkArchivedThreads pages public archived threads, most recently archived first
func (d *Discord) WalkArchivedThreads(ctx context.Context, forumID string, fn func(models.Thread) bool) error {
	var before *time.Time

	for {
		list, err := d.session.ThreadsArchived(forumID, before, archivedPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to list archived threads of %s: %w", forumID, translateError(err))
		}

		for _, th := range list.Threads {
			if !fn(threadFrom(th)) {
				return nil
			}
		}

		if !list.HasMore || len(list.Threads) == 0 {
			return nil
		}
		last := list.Threads[len(list.Threads)-1]
		if last.ThreadMetadata == nil {
			return nil
		}
		ts := last.ThreadMetadata.ArchiveTimestamp
		before = &ts
	}
}

// ActiveThreads filters the guild's active threads down to the forum's children
func (d *Discord) ActiveThreads(ctx context.Context, guildID, forumID string) ([]models.Thread, error) {
	list, err := d.session.GuildThreadsActive(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list active threads of guild %s: %w", guildID, translateError(err))
	}

	var threads []models.Thread
	for _, th := range list.Threads {
		if th.ParentID == forumID {
			threads = append(threads, threadFrom(th))
		}
	}
	return threads, nil
}

// SendMessage posts plain text and returns the new message id
func (d *Discord) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	msg, err := d.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to send message to %s: %w", channelID, translateError(err))
	}
	return msg.ID, nil
}

// EditMessage replaces the content of a previously sent message
func (d *Discord) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	if _, err := d.session.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit message %s: %w", messageID, translateError(err))
	}
	return nil
}

// SendEmbed posts a rich message segment
func (d *Discord) SendEmbed(ctx context.Context, channelID string, embed models.Embed) error {
	_, err := d.session.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send embed to %s: %w", channelID, translateError(err))
	}
	return nil
}

// translateError maps discordgo errors onto the platform error taxonomy
func translateError(err error) error {
	var rle *discordgo.RateLimitError
	if errors.As(err, &rle) {
		var retryAfter time.Duration
		if rle.RateLimit != nil && rle.TooManyRequests != nil {
			retryAfter = rle.RetryAfter
		}
		return &RateLimitError{RetryAfter: retryAfter}
	}

	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return err
	}

	message := string(restErr.ResponseBody)
	if restErr.Message != nil {
		message = restErr.Message.Message
	}

	switch restErr.Response.StatusCode {
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case http.StatusTooManyRequests:
		return &RateLimitError{}
	default:
		return &HTTPError{StatusCode: restErr.Response.StatusCode, Message: message}
	}
}

func kindOf(t discordgo.ChannelType) models.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		return models.ChannelKindText
	case discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildNewsThread:
		return models.ChannelKindThread
	case discordgo.ChannelTypeGuildForum:
		return models.ChannelKindForum
	default:
		return models.ChannelKindUnsupported
	}
}

func channelFrom(ch *discordgo.Channel) *models.Channel {
	return &models.Channel{
		ID:      ch.ID,
		GuildID: ch.GuildID,
		Name:    ch.Name,
		Kind:    kindOf(ch.Type),
	}
}

func threadFrom(th *discordgo.Channel) models.Thread {
	created, err := discordgo.SnowflakeTimestamp(th.ID)
	if err != nil {
		logrus.Warnf("Could not decode creation time of thread %s: %v", th.ID, err)
	}
	return models.Thread{
		ID:        th.ID,
		ParentID:  th.ParentID,
		Name:      th.Name,
		CreatedAt: created,
	}
}

func memberFrom(m *discordgo.Member) models.TrackedMember {
	return models.TrackedMember{
		ID:       m.User.ID,
		Username: m.User.Username,
		Nickname: m.Nick,
		Roles:    m.Roles,
	}
}

// snowflakeAt returns the smallest snowflake id for the given instant
func snowflakeAt(t time.Time) string {
	ms := t.UnixMilli() - discordEpoch
	if ms < 0 {
		return "0"
	}
	return strconv.FormatUint(uint64(ms)<<22, 10)
}

// snowflakeLess compares two decimal snowflakes numerically
func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
