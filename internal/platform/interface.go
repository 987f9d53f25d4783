package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
)

var (
	// ErrForbidden means the bot lacks permission to read or write the resource
	ErrForbidden = errors.New("missing permission")
	// ErrNotFound means the channel, thread or guild does not exist or is not visible
	ErrNotFound = errors.New("not found")
)

// RateLimitError signals a "too many requests" response. RetryAfter is zero when the
// server gave no hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %v", e.RetryAfter)
	}
	return "rate limited"
}

// HTTPError is any other non-success response from the platform API
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("platform returned status %d: %s", e.StatusCode, e.Message)
}

// RateLimited reports whether err is a rate-limit signal and the server's retry hint
func RateLimited(err error) (time.Duration, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.RetryAfter, true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return 0, true
	}
	return 0, false
}

// MemberLister lists guild members with their roles
type MemberLister interface {
	GuildMembers(ctx context.Context, guildID string) ([]models.TrackedMember, error)
}

// ChannelResolver turns a configured channel id into a typed channel
type ChannelResolver interface {
	ResolveChannel(ctx context.Context, guildID, channelID string) (*models.Channel, error)
}

// HistoryReader walks message history and forum threads
type HistoryReader interface {
	// WalkHistory calls fn for every message in the channel posted after the given time
	WalkHistory(ctx context.Context, channelID string, after time.Time, fn func(models.Message)) error
	// WalkArchivedThreads calls fn for archived threads of a forum, newest first, until fn returns false
	WalkArchivedThreads(ctx context.Context, forumID string, fn func(models.Thread) bool) error
	// ActiveThreads returns the forum's currently active threads
	ActiveThreads(ctx context.Context, guildID, forumID string) ([]models.Thread, error)
}

// Messenger posts and edits messages in a channel
type Messenger interface {
	SendMessage(ctx context.Context, channelID, content string) (string, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) error
	SendEmbed(ctx context.Context, channelID string, embed models.Embed) error
}

// Platform is everything the activity report needs from the chat service
type Platform interface {
	MemberLister
	ChannelResolver
	HistoryReader
	Messenger
}
