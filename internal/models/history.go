package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedReport is a persisted reliability report, tagged by the owning user.
// Never mutated after creation.
type SavedReport struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Query     VehicleQuery `json:"query"`
	Report    Report       `json:"report"`
	CreatedAt time.Time    `json:"created_at"`
}

// SavedChat is a persisted chat transcript. Messages are stored with the
// in-flight state stripped.
type SavedChat struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
}

// SearchEntry records a vehicle search submission.
type SearchEntry struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Query     VehicleQuery `json:"query"`
	CreatedAt time.Time    `json:"created_at"`
}

type SaveReportRequest struct {
	Query  VehicleQuery `json:"query"`
	Report Report       `json:"report"`
}

type SaveChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}
