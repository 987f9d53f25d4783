package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
)

// ReportPrefix is shared by every archived report name
const ReportPrefix = "activity-"

// ReportName is the archive name of a guild's report generated at t
func ReportName(guildID string, t time.Time) string {
	return fmt.Sprintf("%s%s-%s.json", ReportPrefix, guildID, t.UTC().Format("2006-01-02-15-04-05"))
}

// ArchiveReport stores the report as JSON and returns its name
func ArchiveReport(ctx context.Context, store StorageInterface, report *models.Report) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	name := ReportName(report.GuildID, report.GeneratedAt)
	if err := store.Store(ctx, name, data); err != nil {
		return "", err
	}
	return name, nil
}
