package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/Yertled/Discord-Inactive-Checker/internal/config"
	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) RunReport(ctx context.Context, guildID, replyChannelID string) error {
	args := m.Called(guildID, replyChannelID)
	return args.Error(0)
}

type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	args := m.Called(channelID, content)
	return args.String(0), args.Error(1)
}

func (m *MockMessenger) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	args := m.Called(channelID, messageID, content)
	return args.Error(0)
}

func (m *MockMessenger) SendEmbed(ctx context.Context, channelID string, embed models.Embed) error {
	args := m.Called(channelID, embed)
	return args.Error(0)
}

func newTestHandler() (*Handler, *MockReporter, *MockMessenger) {
	cfg := &config.Config{CommandPrefix: "!", AuthorizedRoles: []string{"admin"}}
	reporter := &MockReporter{}
	messenger := &MockMessenger{}
	return NewHandler(cfg, reporter, messenger), reporter, messenger
}

func TestHandler_AuthorizedRunsReport(t *testing.T) {
	handler, reporter, messenger := newTestHandler()
	reporter.On("RunReport", "guild", "chan").Return(nil)

	handled := handler.Handle(context.Background(), Invocation{
		GuildID: "guild", ChannelID: "chan", Author: "mod", RoleIDs: []string{"member", "admin"}, Content: "!activity",
	})

	assert.True(t, handled)
	reporter.AssertExpectations(t)
	messenger.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestHandler_UnauthorizedIsDenied(t *testing.T) {
	handler, reporter, messenger := newTestHandler()
	messenger.On("SendMessage", "chan", MsgPermissionDenied).Return("m1", nil)

	handled := handler.Handle(context.Background(), Invocation{
		GuildID: "guild", ChannelID: "chan", Author: "guest", RoleIDs: []string{"member"}, Content: "!activity",
	})

	assert.True(t, handled)
	messenger.AssertExpectations(t)
	reporter.AssertNotCalled(t, "RunReport", mock.Anything, mock.Anything)
}

func TestHandler_FailureSendsGenericMessage(t *testing.T) {
	handler, reporter, messenger := newTestHandler()
	reporter.On("RunReport", "guild", "chan").Return(errors.New("members unavailable"))
	messenger.On("SendMessage", "chan", MsgCommandFailed).Return("m1", nil)

	handler.Handle(context.Background(), Invocation{
		GuildID: "guild", ChannelID: "chan", Author: "mod", RoleIDs: []string{"admin"}, Content: "!activity",
	})

	reporter.AssertExpectations(t)
	messenger.AssertExpectations(t)
}

func TestHandler_IgnoresNonCommands(t *testing.T) {
	tests := []struct {
		name string
		inv  Invocation
	}{
		{name: "Plain chat", inv: Invocation{GuildID: "guild", Content: "hello", RoleIDs: []string{"admin"}}},
		{name: "Other command", inv: Invocation{GuildID: "guild", Content: "!activityx", RoleIDs: []string{"admin"}}},
		{name: "Wrong prefix", inv: Invocation{GuildID: "guild", Content: "?activity", RoleIDs: []string{"admin"}}},
		{name: "Bot author", inv: Invocation{GuildID: "guild", Content: "!activity", AuthorBot: true, RoleIDs: []string{"admin"}}},
		{name: "Direct message", inv: Invocation{Content: "!activity", RoleIDs: []string{"admin"}}},
		{name: "Empty", inv: Invocation{GuildID: "guild"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, reporter, messenger := newTestHandler()

			assert.False(t, handler.Handle(context.Background(), tt.inv))
			reporter.AssertNotCalled(t, "RunReport", mock.Anything, mock.Anything)
			messenger.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_CommandWithTrailingArguments(t *testing.T) {
	handler, reporter, _ := newTestHandler()
	reporter.On("RunReport", "guild", "chan").Return(nil)

	assert.True(t, handler.Handle(context.Background(), Invocation{
		GuildID: "guild", ChannelID: "chan", RoleIDs: []string{"admin"}, Content: "  !activity now",
	}))
	reporter.AssertExpectations(t)
}
