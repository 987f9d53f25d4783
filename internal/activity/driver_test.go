package activity

import (
	"context"
	"testing"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
	"github.com/Yertled/Discord-Inactive-Checker/internal/platform"
	"github.com/Yertled/Discord-Inactive-Checker/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver(f *fakePlatform, delay time.Duration) (*Driver, *recordingSleeper) {
	sleeper := &recordingSleeper{}
	guard := ratelimit.NewGuard(time.Second, sleeper.sleep)
	return NewDriver(f, NewCounter(f, guard), guard, delay, sleeper.sleep), sleeper
}

// twoByThree is two members across three channels with known per-channel counts
func twoByThree() *fakePlatform {
	f := newFakePlatform()
	f.addChannel("c1", "general", models.ChannelKindText)
	f.addChannel("c2", "support", models.ChannelKindThread)
	f.addChannel("c3", "help", models.ChannelKindForum)
	f.archived["c3"] = []models.Thread{{ID: "c3-t1", ParentID: "c3", CreatedAt: windowStart.Add(time.Hour)}}

	in := windowStart.Add(2 * time.Hour)
	f.addMessages("c1", alice.ID, in, 2)
	f.addMessages("c2", alice.ID, in, 5)
	f.addMessages("c3-t1", alice.ID, in, 1)
	f.addMessages("c1", bob.ID, in, 4)
	f.addMessages("c3-t1", bob.ID, in, 3)
	return f
}

func TestDriver_TotalsAreSumOfChannels(t *testing.T) {
	f := twoByThree()
	driver, _ := newTestDriver(f, time.Second)

	tally, stats, err := driver.Run(context.Background(), "guild", []models.TrackedMember{alice, bob}, []string{"c1", "c2", "c3"}, windowStart, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, tally.Total(alice.ID))
	assert.Equal(t, 7, tally.Total(bob.ID))
	for _, member := range []models.TrackedMember{alice, bob} {
		sum := 0
		for _, c := range tally.Breakdown(member.ID) {
			sum += c.Count
		}
		assert.Equal(t, tally.Total(member.ID), sum)
	}

	assert.Equal(t, []models.ChannelCount{{Channel: "general", Count: 4}, {Channel: "help", Count: 3}}, tally.Breakdown(bob.ID))
	assert.Equal(t, 6, stats.ChannelsChecked)
	assert.Zero(t, stats.ChannelsSkipped)
}

func TestDriver_MostActiveTieFollowsChannelOrder(t *testing.T) {
	f := newFakePlatform()
	f.addChannel("chan1", "chan1", models.ChannelKindText)
	f.addChannel("chan2", "chan2", models.ChannelKindText)
	f.addMessages("chan1", alice.ID, windowStart.Add(time.Hour), 3)
	f.addMessages("chan2", alice.ID, windowStart.Add(time.Hour), 3)

	driver, _ := newTestDriver(f, 0)
	tally, _, err := driver.Run(context.Background(), "guild", []models.TrackedMember{alice}, []string{"chan1", "chan2"}, windowStart, nil)
	require.NoError(t, err)

	name, ok := tally.MostActiveChannel(alice.ID)
	assert.True(t, ok)
	assert.Equal(t, "chan1", name)
}

func TestDriver_SkipsUnresolvedChannels(t *testing.T) {
	f := twoByThree()
	driver, sleeper := newTestDriver(f, 2*time.Second)

	tally, stats, err := driver.Run(context.Background(), "guild", []models.TrackedMember{alice, bob}, []string{"missing", "c1"}, windowStart, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, tally.Total(alice.ID))
	assert.Equal(t, 4, tally.Total(bob.ID))
	assert.Equal(t, 2, stats.ChannelsSkipped)
	assert.Equal(t, 2, stats.ChannelsChecked)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleeper.waits)
}

func TestDriver_DelayAfterEveryPairAndProgress(t *testing.T) {
	f := twoByThree()
	driver, sleeper := newTestDriver(f, 3*time.Second)

	type call struct {
		index, total int
		member       string
	}
	var calls []call
	progress := func(index, total int, member models.TrackedMember) {
		calls = append(calls, call{index, total, member.ID})
	}

	_, _, err := driver.Run(context.Background(), "guild", []models.TrackedMember{alice, bob}, []string{"c1", "c2", "c3"}, windowStart, progress)
	require.NoError(t, err)

	assert.Len(t, sleeper.waits, 6)
	for _, wait := range sleeper.waits {
		assert.Equal(t, 3*time.Second, wait)
	}
	assert.Equal(t, []call{{1, 2, alice.ID}, {2, 2, bob.ID}}, calls)
}

func TestDriver_MembersWithoutActivityStayInTally(t *testing.T) {
	f := twoByThree()
	quiet := models.TrackedMember{ID: "300", Username: "quiet"}
	driver, _ := newTestDriver(f, 0)

	tally, _, err := driver.Run(context.Background(), "guild", []models.TrackedMember{quiet, alice}, []string{"c1"}, windowStart, nil)
	require.NoError(t, err)

	require.Len(t, tally.Members(), 2)
	assert.Equal(t, quiet.ID, tally.Members()[0].ID)
	_, ok := tally.MostActiveChannel(quiet.ID)
	assert.False(t, ok)
}

func TestDriver_StopsOnCancelledContext(t *testing.T) {
	f := twoByThree()
	driver, _ := newTestDriver(f, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, stats, err := driver.Run(ctx, "guild", []models.TrackedMember{alice, bob}, []string{"c1", "c2"}, windowStart, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stats.ChannelsChecked)
}

func TestDriver_RateLimitedResolutionIsRetried(t *testing.T) {
	f := twoByThree()
	f.resolveFailures["c1"] = []error{&platform.RateLimitError{RetryAfter: time.Second}}
	driver, sleeper := newTestDriver(f, 0)

	tally, stats, err := driver.Run(context.Background(), "guild", []models.TrackedMember{alice, bob}, []string{"c1"}, windowStart, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, tally.Total(alice.ID))
	assert.Equal(t, 4, tally.Total(bob.ID))
	assert.Zero(t, stats.ChannelsSkipped)
	assert.Equal(t, 2, stats.ChannelsChecked)
	assert.Equal(t, 1, stats.RateLimitRetries)
	assert.Equal(t, 2, f.resolveCalls)
	assert.Equal(t, []time.Duration{time.Second, 0, 0}, sleeper.waits)
}

func TestDriver_MissingChannelIsResolvedOnce(t *testing.T) {
	f := twoByThree()
	driver, _ := newTestDriver(f, 0)

	_, stats, err := driver.Run(context.Background(), "guild", []models.TrackedMember{alice, bob}, []string{"missing"}, windowStart, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, f.resolveCalls)
	assert.Equal(t, 2, stats.ChannelsSkipped)
}
