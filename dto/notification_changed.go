package dto

type NotificationChange string

const (
	NotificationCreated NotificationChange = "created"
	NotificationRead    NotificationChange = "read"
	NotificationReadAll NotificationChange = "read_all"
	NotificationRefresh NotificationChange = "refresh"
)

type NotificationChanged struct {
	NotificationIDs []string           `json:"notificationIds"`
	Change          NotificationChange `json:"change"`
	Origin          string             `json:"origin"`
}
