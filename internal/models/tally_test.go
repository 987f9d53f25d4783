package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTally_MostActiveChannelTieGoesToFirst(t *testing.T) {
	tally := NewTally()
	m := TrackedMember{ID: "1", Username: "alice"}

	tally.Add(m, "chan1", 3)
	tally.Add(m, "chan2", 3)

	name, ok := tally.MostActiveChannel("1")
	assert.True(t, ok)
	assert.Equal(t, "chan1", name)
	assert.Equal(t, 6, tally.Total("1"))
}

func TestTally_ZeroCountsRegisterMemberOnly(t *testing.T) {
	tally := NewTally()
	m := TrackedMember{ID: "1", Username: "alice"}

	tally.Add(m, "general", 0)

	assert.Len(t, tally.Members(), 1)
	assert.Equal(t, 0, tally.Total("1"))
	assert.Empty(t, tally.Breakdown("1"))

	_, ok := tally.MostActiveChannel("1")
	assert.False(t, ok)
}

func TestTally_SameChannelNameMerges(t *testing.T) {
	tally := NewTally()
	m := TrackedMember{ID: "1", Username: "alice"}

	tally.Add(m, "general", 2)
	tally.Add(m, "random", 3)
	tally.Add(m, "general", 2)

	assert.Equal(t, []ChannelCount{{"general", 4}, {"random", 3}}, tally.Breakdown("1"))
	name, _ := tally.MostActiveChannel("1")
	assert.Equal(t, "general", name)
}

func TestTrackedMember_DisplayNameAndRoles(t *testing.T) {
	m := TrackedMember{ID: "1", Username: "alice", Roles: []string{"10", "20"}}
	assert.Equal(t, "alice", m.DisplayName())
	m.Nickname = "Al"
	assert.Equal(t, "Al", m.DisplayName())

	assert.True(t, m.HasAnyRole([]string{"30", "20"}))
	assert.False(t, m.HasAnyRole([]string{"30"}))
	assert.False(t, m.HasAnyRole(nil))
}

func TestNewTimeWindow(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	w := NewTimeWindow(now, 7)
	assert.Equal(t, time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, now, w.End)
}
