package notifications

import "github.com/Yertled/Discord-Inactive-Checker/internal/models"

// NotificationInterface defines the contract for report mirrors outside the chat platform
type NotificationInterface interface {
	SendReport(report *models.Report) error
	SendAlert(alert *models.Alert) error
}
