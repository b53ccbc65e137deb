// internal/models/event_log.go
package models

import "time"

type EventLog struct {
	BaseModel
	EventType  string    `json:"event_type" gorm:"size:64;not null;index"`
	Actor      string    `json:"actor" gorm:"size:128;index"`
	Data       JSONB     `json:"data" gorm:"type:jsonb"`
	OccurredAt time.Time `json:"occurred_at" gorm:"index"`
}
