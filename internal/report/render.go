package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
)

const (
	// MaxDescriptionLength is the embed description cap, in characters
	MaxDescriptionLength = 4096
	// EmbedColor is the leaderboard embed colour
	EmbedColor = 0x00ff00
	// NoActivity is shown as the most active channel of members with no messages
	NoActivity = "N/A"
)

// Build ranks the tally and renders it into report segments stamped with generatedAt
func Build(tally *models.Tally, window models.TimeWindow, days int, guildID string, generatedAt time.Time) *models.Report {
	entries := Rank(tally)

	var description strings.Builder
	for _, entry := range entries {
		description.WriteString(FormatLine(entry))
	}

	return &models.Report{
		Title:       Title(days),
		GuildID:     guildID,
		GeneratedAt: generatedAt,
		Window:      window,
		Days:        days,
		Entries:     entries,
		Description: description.String(),
		Chunks:      Chunk(description.String(), MaxDescriptionLength),
	}
}

// Title is the heading of the first report segment
func Title(days int) string {
	return fmt.Sprintf("Staff Activity in the Last %d Days", days)
}

// Rank orders members by total descending; equal totals keep encounter order
func Rank(tally *models.Tally) []models.LeaderboardEntry {
	members := tally.Members()
	entries := make([]models.LeaderboardEntry, 0, len(members))

	for _, member := range members {
		channel, ok := tally.MostActiveChannel(member.ID)
		if !ok {
			channel = NoActivity
		}
		entries = append(entries, models.LeaderboardEntry{
			Member:            member,
			Total:             tally.Total(member.ID),
			MostActiveChannel: channel,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Total > entries[j].Total
	})

	return entries
}

// FormatLine renders one leaderboard line including the trailing newline
func FormatLine(entry models.LeaderboardEntry) string {
	return fmt.Sprintf("<@%s> (%s) - %d messages [Most active in: %s]\n",
		entry.Member.ID, entry.Member.DisplayName(), entry.Total, entry.MostActiveChannel)
}

// Chunk splits s into pieces of at most limit characters. Splits fall on the character
// boundary, not on line boundaries. A string within the limit is returned whole.
func Chunk(s string, limit int) []string {
	runes := []rune(s)
	if len(runes) <= limit {
		return []string{s}
	}

	chunks := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Embeds turns report chunks into message segments. Only the first carries the title.
func Embeds(r *models.Report) []models.Embed {
	embeds := make([]models.Embed, 0, len(r.Chunks))
	for i, chunk := range r.Chunks {
		embed := models.Embed{Description: chunk, Color: EmbedColor}
		if i == 0 {
			embed.Title = r.Title
		}
		embeds = append(embeds, embed)
	}
	return embeds
}
