package models

// ChannelCount is a member's message count in one channel, keyed by display name
type ChannelCount struct {
	Channel string `json:"channel"`
	Count   int    `json:"count"`
}

// Tally accumulates per-member totals and per-member-per-channel breakdowns for one run.
// Members and channels keep first-encounter order.
type Tally struct {
	members   []TrackedMember
	totals    map[string]int
	breakdown map[string][]ChannelCount
}

// NewTally creates an empty tally
func NewTally() *Tally {
	return &Tally{
		totals:    make(map[string]int),
		breakdown: make(map[string][]ChannelCount),
	}
}

// Track registers a member with a zero total if it has not been seen yet
func (t *Tally) Track(member TrackedMember) {
	if _, ok := t.totals[member.ID]; ok {
		return
	}
	t.members = append(t.members, member)
	t.totals[member.ID] = 0
}

// Add records count messages for member in the named channel.
// Zero counts raise nothing but still register the member.
func (t *Tally) Add(member TrackedMember, channelName string, count int) {
	t.Track(member)
	if count <= 0 {
		return
	}
	t.totals[member.ID] += count

	counts := t.breakdown[member.ID]
	for i := range counts {
		if counts[i].Channel == channelName {
			counts[i].Count += count
			return
		}
	}
	t.breakdown[member.ID] = append(counts, ChannelCount{Channel: channelName, Count: count})
}

// Members returns tracked members in encounter order
func (t *Tally) Members() []TrackedMember {
	return t.members
}

// Total returns the member's total across all channels
func (t *Tally) Total(memberID string) int {
	return t.totals[memberID]
}

// Breakdown returns the member's non-zero channel counts in encounter order
func (t *Tally) Breakdown(memberID string) []ChannelCount {
	return t.breakdown[memberID]
}

// MostActiveChannel returns the channel with the highest count for the member.
// Ties go to the channel encountered first. ok is false when the member has no activity.
func (t *Tally) MostActiveChannel(memberID string) (name string, ok bool) {
	best := -1
	for _, c := range t.breakdown[memberID] {
		if c.Count > best {
			best = c.Count
			name = c.Channel
			ok = true
		}
	}
	return name, ok
}
