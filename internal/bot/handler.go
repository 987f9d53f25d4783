package bot

import (
	"context"
	"strings"

	"github.com/Yertled/Discord-Inactive-Checker/internal/config"
	"github.com/Yertled/Discord-Inactive-Checker/internal/platform"
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const (
	MsgPermissionDenied = "You don't have permission to use this command."
	MsgCommandFailed    = "An error occurred while processing the command. Please try again later."
)

// Reporter runs an activity report for a guild and replies in a channel
type Reporter interface {
	RunReport(ctx context.Context, guildID, replyChannelID string) error
}

// Invocation is a chat message that may carry a command
type Invocation struct {
	GuildID   string
	GuildName string
	ChannelID string
	Author    string
	AuthorBot bool
	RoleIDs   []string
	Content   string
}

// Handler turns "<prefix>activity" messages into report runs for authorized members
type Handler struct {
	config    *config.Config
	reporter  Reporter
	messenger platform.Messenger
}

// NewHandler creates a command handler
func NewHandler(cfg *config.Config, reporter Reporter, messenger platform.Messenger) *Handler {
	return &Handler{
		config:    cfg,
		reporter:  reporter,
		messenger: messenger,
	}
}

// OnMessageCreate is registered with the discordgo session
func (h *Handler) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}

	inv := Invocation{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Author:    m.Author.Username,
		AuthorBot: m.Author.Bot,
		Content:   m.Content,
	}
	if m.Member != nil {
		inv.RoleIDs = m.Member.Roles
	}
	if guild, err := s.State.Guild(m.GuildID); err == nil {
		inv.GuildName = guild.Name
	}

	h.Handle(context.Background(), inv)
}

// Handle runs the command if the message is one. It reports whether the message was a command.
func (h *Handler) Handle(ctx context.Context, inv Invocation) bool {
	if inv.AuthorBot || inv.GuildID == "" || !h.isCommand(inv.Content) {
		return false
	}

	logrus.Infof("'activity' command invoked by %s in %s", inv.Author, guildLabel(inv))

	if !h.authorized(inv.RoleIDs) {
		logrus.Warnf("Denied 'activity' command for %s: no authorized role", inv.Author)
		h.reply(ctx, inv.ChannelID, MsgPermissionDenied)
		return true
	}

	if err := h.reporter.RunReport(ctx, inv.GuildID, inv.ChannelID); err != nil {
		logrus.Errorf("An error occurred: %v", err)
		h.reply(ctx, inv.ChannelID, MsgCommandFailed)
	}
	return true
}

func (h *Handler) isCommand(content string) bool {
	fields := strings.Fields(content)
	return len(fields) > 0 && fields[0] == h.config.ActivityCommand()
}

func (h *Handler) authorized(roleIDs []string) bool {
	for _, have := range roleIDs {
		for _, allowed := range h.config.AuthorizedRoles {
			if have == allowed {
				return true
			}
		}
	}
	return false
}

func (h *Handler) reply(ctx context.Context, channelID, content string) {
	if _, err := h.messenger.SendMessage(ctx, channelID, content); err != nil {
		logrus.Errorf("Failed to reply in %s: %v", channelID, err)
	}
}

func guildLabel(inv Invocation) string {
	if inv.GuildName != "" {
		return inv.GuildName
	}
	return inv.GuildID
}
