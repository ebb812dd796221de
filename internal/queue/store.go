package queue

import (
	"context"

	"github.com/lshigami/quizsync/internal/model"
)

// Store is the storage engine behind a Queue. Every method is atomic with
// respect to the stored data. Sequence numbers are assigned by Append and are
// never reused within a lane.
type Store interface {
	// Append assigns the next sequence number of m.Lane to m and stores it.
	// A pending mutation of the same lane with the same non-empty coalesce
	// key is removed in the same step.
	Append(ctx context.Context, m *model.PendingMutation) error
	// List returns the mutations of a lane in ascending sequence order.
	List(ctx context.Context, lane string) ([]model.PendingMutation, error)
	// Delete removes one mutation and reports whether it existed.
	Delete(ctx context.Context, lane string, seq uint64) (bool, error)
	Lanes(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	// MoveLane re-appends every mutation of from onto to, in order, with
	// fresh sequence numbers of to, and empties from.
	MoveLane(ctx context.Context, from, to string, rewrite func(payload string) string) (int, error)
}
