package dto

const (
	EventUserActivated    = "user_activated"
	EventPasswordMigrated = "password_migrated"
)

type KafkaMessage struct {
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data"`
}

type UserActivatedEvent struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type PasswordMigratedEvent struct {
	ID int64 `json:"id"`
}
