package model

import "time"

// PendingMutation is one queued intent that the backend has not confirmed yet.
// (Lane, SequenceNumber) is unique and sequence numbers are never reused.
type PendingMutation struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Lane           string    `gorm:"not null;uniqueIndex:idx_lane_sequence" json:"lane"`
	SequenceNumber uint64    `gorm:"not null;uniqueIndex:idx_lane_sequence" json:"sequence_number"`
	IntentType     string    `gorm:"not null" json:"intent_type"`
	CoalesceKey    string    `gorm:"index" json:"coalesce_key,omitempty"`
	IdempotencyKey string    `gorm:"not null" json:"idempotency_key"`
	Payload        string    `gorm:"type:text;not null" json:"payload"` // JSON, decoded by the queue
	CreatedAt      time.Time `json:"created_at"`
}

// QueueLane keeps the last sequence number handed out for a lane.
type QueueLane struct {
	Lane         string    `gorm:"primarykey" json:"lane"`
	LastSequence uint64    `gorm:"not null;default:0" json:"last_sequence"`
	UpdatedAt    time.Time `json:"updated_at"`
}
