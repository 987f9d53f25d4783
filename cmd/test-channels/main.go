package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/config"
	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
	"github.com/Yertled/Discord-Inactive-Checker/internal/platform"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🔍 Discord Activity Bot - Channel Connectivity Test")
	fmt.Println("===================================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	guildID := cfg.ReportGuildID
	if len(os.Args) > 1 {
		guildID = os.Args[1]
	}
	if guildID == "" {
		log.Fatal("Usage: test-channels <guild-id> (or set REPORT_GUILD_ID)")
	}

	discord, err := platform.NewDiscord(cfg.DiscordToken)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("\n👥 Tracked members...")
	fmt.Println(strings.Repeat("-", 40))
	members, err := discord.GuildMembers(ctx, guildID)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
	} else {
		tracked := 0
		for _, member := range members {
			if member.HasAnyRole(cfg.RolesToTrack) {
				tracked++
			}
		}
		fmt.Printf("✅ %d members, %d with a tracked role\n", len(members), tracked)
	}

	fmt.Println("\n📡 Configured channels...")
	fmt.Println(strings.Repeat("-", 40))
	for _, channelID := range cfg.ChannelsToCheck {
		testChannel(ctx, discord, guildID, channelID)
	}

	fmt.Println("\n✅ Channel connectivity test completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Grant the bot Read Message History on any channel marked ERROR")
	fmt.Println("   • Remove unsupported channels from CHANNELS_TO_CHECK")
	fmt.Println("   • Run full bot with: go run cmd/bot/main.go")
}

func testChannel(ctx context.Context, discord *platform.Discord, guildID, channelID string) {
	fmt.Printf("🔸 Testing %s... ", channelID)

	channel, err := discord.ResolveChannel(ctx, guildID, channelID)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	switch channel.Kind {
	case models.ChannelKindUnsupported:
		fmt.Printf("⚠️  UNSUPPORTED (#%s is skipped when counting)\n", channel.Name)
	case models.ChannelKindForum:
		archived := 0
		if err := discord.WalkArchivedThreads(ctx, channel.ID, func(models.Thread) bool {
			archived++
			return true
		}); err != nil {
			fmt.Printf("❌ ERROR: %v\n", err)
			return
		}
		active, err := discord.ActiveThreads(ctx, guildID, channel.ID)
		if err != nil {
			fmt.Printf("❌ ERROR: %v\n", err)
			return
		}
		fmt.Printf("✅ SUCCESS (forum #%s: %d archived, %d active threads)\n", channel.Name, archived, len(active))
	default:
		fmt.Printf("✅ SUCCESS (%s #%s)\n", channel.Kind, channel.Name)
	}
}
