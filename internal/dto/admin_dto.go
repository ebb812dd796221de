package dto

import (
	"encoding/json"
	"time"
)

// QueueEntryDTO is the admin view of one pending mutation.
type QueueEntryDTO struct {
	Lane           string          `json:"lane"`
	SequenceNumber uint64          `json:"sequence_number"`
	IntentType     string          `json:"intent_type"`
	CoalesceKey    string          `json:"coalesce_key,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"created_at"`
}

type QueueLaneDTO struct {
	Lane    string          `json:"lane"`
	Entries []QueueEntryDTO `json:"entries"`
}

type QueueOverviewDTO struct {
	Pending int64          `json:"pending"`
	Lanes   []QueueLaneDTO `json:"lanes"`
}
