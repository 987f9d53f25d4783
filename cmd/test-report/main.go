package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
	"github.com/Yertled/Discord-Inactive-Checker/internal/report"
	"github.com/Yertled/Discord-Inactive-Checker/internal/storage"
)

const outputDir = "test_output"

// TestStorage implements simple file-based storage for testing
type TestStorage struct{}

func (t *TestStorage) Store(ctx context.Context, name string, data []byte) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, name), data, 0644)
}

func (t *TestStorage) Retrieve(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(outputDir, name))
}

func (t *TestStorage) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

type sample struct {
	member models.TrackedMember
	counts map[string]int
}

func main() {
	fmt.Println("🤖 Discord Activity Bot - Test Report Generator")
	fmt.Println("===============================================")

	days := 7
	window := models.NewTimeWindow(time.Now(), days)
	channels := []string{"general", "support", "help-forum"}

	samples := []sample{
		{
			member: models.TrackedMember{ID: "112233445566778899", Username: "mod_anna", Nickname: "Anna"},
			counts: map[string]int{"general": 41, "support": 12, "help-forum": 9},
		},
		{
			member: models.TrackedMember{ID: "223344556677889900", Username: "helper_ben"},
			counts: map[string]int{"support": 30, "help-forum": 30},
		},
		{
			member: models.TrackedMember{ID: "334455667788990011", Username: "quiet_cam"},
		},
		{
			member: models.TrackedMember{ID: "445566778899001122", Username: "dana", Nickname: "Dana (staff)"},
			counts: map[string]int{"general": 3},
		},
	}

	tally := models.NewTally()
	for _, s := range samples {
		tally.Track(s.member)
		for _, channel := range channels {
			tally.Add(s.member, channel, s.counts[channel])
		}
	}

	fmt.Printf("\n📊 Generating report for %d sample members over %d channels...\n", len(samples), len(channels))

	r := report.Build(tally, window, days, "000000000000000000", window.End)
	for i, embed := range report.Embeds(r) {
		fmt.Println("\n" + strings.Repeat("=", 70))
		if embed.Title != "" {
			fmt.Printf("📝 %s\n", embed.Title)
		} else {
			fmt.Printf("📝 (continued, embed %d)\n", i+1)
		}
		fmt.Printf("🎨 Color: #%06x | %d characters\n", embed.Color, len([]rune(embed.Description)))
		fmt.Println(strings.Repeat("-", 70))
		fmt.Print(embed.Description)
	}
	fmt.Println(strings.Repeat("=", 70))

	name, err := storage.ArchiveReport(context.Background(), &TestStorage{}, r)
	if err != nil {
		fmt.Printf("❌ Error saving report: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n💾 Report saved to: %s\n", filepath.Join(outputDir, name))

	fmt.Println("\n✅ Test report generation completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Check the 'test_output' directory for the saved JSON report")
	fmt.Println("   • Run 'go test ./internal/report -v' for more detailed tests")
	fmt.Println("   • Configure DISCORD_BOT_TOKEN and run the full bot with 'go run cmd/bot/main.go'")
}
