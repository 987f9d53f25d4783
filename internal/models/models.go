package models

import "time"

// TrackedMember is a guild member whose activity is counted
type TrackedMember struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Nickname string   `json:"nickname,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// DisplayName returns the nickname when set, otherwise the username
func (m TrackedMember) DisplayName() string {
	if m.Nickname != "" {
		return m.Nickname
	}
	return m.Username
}

// HasAnyRole reports whether the member holds at least one of the given roles
func (m TrackedMember) HasAnyRole(roleIDs []string) bool {
	for _, have := range m.Roles {
		for _, want := range roleIDs {
			if have == want {
				return true
			}
		}
	}
	return false
}

// ChannelKind is the closed set of channel shapes the counter knows how to walk
type ChannelKind int

const (
	ChannelKindUnsupported ChannelKind = iota
	ChannelKindText
	ChannelKindThread
	ChannelKindForum
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelKindText:
		return "text"
	case ChannelKindThread:
		return "thread"
	case ChannelKindForum:
		return "forum"
	default:
		return "unsupported"
	}
}

// Channel is a configured channel id resolved against the guild
type Channel struct {
	ID      string      `json:"id"`
	GuildID string      `json:"guild_id"`
	Name    string      `json:"name"`
	Kind    ChannelKind `json:"kind"`
}

// Thread is a thread inside a forum-like channel
type Thread struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is the subset of a chat message needed for counting
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	AuthorID  string    `json:"author_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TimeWindow is the trailing window a report covers
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeWindow returns the window (now - days, now)
func NewTimeWindow(now time.Time, days int) TimeWindow {
	return TimeWindow{
		Start: now.AddDate(0, 0, -days),
		End:   now,
	}
}

// Embed is a rich message segment
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// LeaderboardEntry is one ranked line of a report
type LeaderboardEntry struct {
	Member            TrackedMember `json:"member"`
	Total             int           `json:"total"`
	MostActiveChannel string        `json:"most_active_channel"`
}

// Report represents one rendered activity leaderboard
type Report struct {
	Title       string             `json:"title"`
	GuildID     string             `json:"guild_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Window      TimeWindow         `json:"window"`
	Days        int                `json:"days"`
	Entries     []LeaderboardEntry `json:"entries"`
	Description string             `json:"description"`
	Chunks      []string           `json:"chunks"`
}

// Alert represents a failed report run surfaced to the notification channels
type Alert struct {
	Type      string    `json:"type"` // "error", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	GuildID   string    `json:"guild_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
