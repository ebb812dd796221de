package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/quizsync/internal/model"
	"github.com/rs/zerolog/log"
)

// Queue is the local durable mutation queue. It is safe for concurrent use;
// every change to the store happens under one process-wide lock.
type Queue struct {
	mu       sync.Mutex
	store    Store
	now      func() time.Time
	hookMu   sync.RWMutex
	onChange []func(pending int64)
}

func New(store Store) *Queue {
	return &Queue{store: store, now: time.Now}
}

// OnChange registers fn to be called with the total pending count after
// every change to the queue.
func (q *Queue) OnChange(fn func(pending int64)) {
	q.hookMu.Lock()
	defer q.hookMu.Unlock()
	q.onChange = append(q.onChange, fn)
}

func (q *Queue) notify(ctx context.Context) {
	q.hookMu.RLock()
	hooks := q.onChange
	q.hookMu.RUnlock()
	if len(hooks) == 0 {
		return
	}
	n, err := q.store.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count pending mutations")
		return
	}
	for _, fn := range hooks {
		fn(n)
	}
}

func toEntry(m model.PendingMutation) Entry {
	return Entry{
		Lane:           m.Lane,
		SequenceNumber: m.SequenceNumber,
		IntentType:     IntentType(m.IntentType),
		CoalesceKey:    m.CoalesceKey,
		IdempotencyKey: m.IdempotencyKey,
		Payload:        json.RawMessage(m.Payload),
		CreatedAt:      m.CreatedAt,
	}
}

// Enqueue appends intent to its lane with the next sequence number. A pending
// entry with the same coalesce key is replaced.
func (q *Queue) Enqueue(ctx context.Context, intent Intent) (Entry, error) {
	payload, err := intent.payload()
	if err != nil {
		return Entry{}, err
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode %s payload: %w", intent.Type, err)
	}
	key := intent.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	m := &model.PendingMutation{
		Lane:           intent.Lane(),
		IntentType:     string(intent.Type),
		CoalesceKey:    intent.CoalesceKey(),
		IdempotencyKey: key,
		Payload:        string(b),
		CreatedAt:      q.now().UTC(),
	}

	q.mu.Lock()
	err = q.store.Append(ctx, m)
	q.mu.Unlock()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to enqueue %s: %w", intent.Type, err)
	}

	log.Debug().
		Str("lane", m.Lane).
		Uint64("seq", m.SequenceNumber).
		Str("intent", m.IntentType).
		Msg("Mutation queued")
	q.notify(ctx)
	return toEntry(*m), nil
}

// PeekOrdered returns the entries of lane in ascending sequence order. Entries
// that cannot be decoded are removed with a warning and counted in dropped.
func (q *Queue) PeekOrdered(ctx context.Context, lane string) (entries []Entry, dropped int, err error) {
	q.mu.Lock()
	mutations, err := q.store.List(ctx, lane)
	if err != nil {
		q.mu.Unlock()
		return nil, 0, err
	}
	for _, m := range mutations {
		entry := toEntry(m)
		if _, decodeErr := entry.Intent(); decodeErr != nil {
			log.Warn().
				Err(decodeErr).
				Str("lane", lane).
				Uint64("seq", m.SequenceNumber).
				Msg("Dropping corrupt queue entry")
			if _, err := q.store.Delete(ctx, lane, m.SequenceNumber); err != nil {
				q.mu.Unlock()
				return nil, dropped, err
			}
			dropped++
			continue
		}
		entries = append(entries, entry)
	}
	q.mu.Unlock()

	if dropped > 0 {
		q.notify(ctx)
	}
	return entries, dropped, nil
}

// Acknowledge removes exactly one entry. Acknowledging an entry that is already
// gone is a no-op.
func (q *Queue) Acknowledge(ctx context.Context, lane string, seq uint64) error {
	_, err := q.Discard(ctx, lane, seq)
	return err
}

// Discard removes one entry and reports whether it was present.
func (q *Queue) Discard(ctx context.Context, lane string, seq uint64) (bool, error) {
	q.mu.Lock()
	removed, err := q.store.Delete(ctx, lane, seq)
	q.mu.Unlock()
	if err != nil {
		return false, err
	}
	if removed {
		q.notify(ctx)
	}
	return removed, nil
}

func (q *Queue) Lanes(ctx context.Context) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Lanes(ctx)
}

func (q *Queue) Pending(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Count(ctx)
}

func (q *Queue) HasPending(ctx context.Context, lane string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	mutations, err := q.store.List(ctx, lane)
	return len(mutations) > 0, err
}

// List returns every pending entry, lane by lane, without dropping corrupt ones.
func (q *Queue) List(ctx context.Context) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	lanes, err := q.store.Lanes(ctx)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, lane := range lanes {
		mutations, err := q.store.List(ctx, lane)
		if err != nil {
			return nil, err
		}
		for _, m := range mutations {
			entries = append(entries, toEntry(m))
		}
	}
	return entries, nil
}

// Remap moves the lane of a placeholder attempt onto the lane of the id the
// backend issued, keeping order, and rewrites the attempt id in payloads.
func (q *Queue) Remap(ctx context.Context, temporaryID, attemptID int64) (int, error) {
	if temporaryID == attemptID {
		return 0, errors.New("queue: remap onto the same attempt id")
	}
	rewrite := func(payload string) string {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			return payload
		}
		if _, ok := fields["attemptId"]; !ok {
			return payload
		}
		fields["attemptId"] = json.RawMessage(fmt.Sprintf("%d", attemptID))
		b, err := json.Marshal(fields)
		if err != nil {
			return payload
		}
		return string(b)
	}

	q.mu.Lock()
	moved, err := q.store.MoveLane(ctx, AttemptLane(temporaryID), AttemptLane(attemptID), rewrite)
	q.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("failed to remap attempt %d to %d: %w", temporaryID, attemptID, err)
	}
	if moved > 0 {
		log.Info().
			Int64("temporaryID", temporaryID).
			Int64("attemptID", attemptID).
			Int("entries", moved).
			Msg("Queue lane remapped")
	}
	return moved, nil
}
