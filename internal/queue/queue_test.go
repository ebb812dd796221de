package queue

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/lshigami/quizsync/config"
	"github.com/lshigami/quizsync/database"
	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend opens stores over the same underlying data, so reopening simulates
// a process restart.
type backend struct {
	name    string
	open    func() Store
	corrupt func(lane string, seq uint64)
}

func backends(t *testing.T) []backend {
	t.Helper()

	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "queue.db")
	openDB := func() Store {
		db, err := database.NewDatabase(cfg)
		require.NoError(t, err)
		require.NoError(t, database.Migrate(db))
		sqlDB, err := db.DB()
		require.NoError(t, err)
		t.Cleanup(func() { sqlDB.Close() })
		return NewGormStore(db)
	}
	corruptDB := func(lane string, seq uint64) {
		db, err := database.NewDatabase(cfg)
		require.NoError(t, err)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		defer sqlDB.Close()
		require.NoError(t, db.Create(&model.PendingMutation{
			Lane:           lane,
			SequenceNumber: seq,
			IntentType:     string(IntentSubmitAnswer),
			IdempotencyKey: "corrupt",
			Payload:        "{not json",
		}).Error)
	}

	mr := miniredis.RunT(t)
	const prefix = "test:"
	openRedis := func() Store {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		return NewRedisStore(client, prefix)
	}
	corruptRedis := func(lane string, seq uint64) {
		field := strconv.FormatUint(seq, 10)
		mr.HSet(prefix+"data:"+lane, field, "garbage")
		_, err := mr.ZAdd(prefix+"entries:"+lane, float64(seq), field)
		require.NoError(t, err)
		_, err = mr.SAdd(prefix+"lanes", lane)
		require.NoError(t, err)
	}

	return []backend{
		{name: "gorm", open: openDB, corrupt: corruptDB},
		{name: "redis", open: openRedis, corrupt: corruptRedis},
	}
}

func seqs(entries []Entry) []uint64 {
	out := make([]uint64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.SequenceNumber)
	}
	return out
}

func TestQueue_EnqueueAndPeekOrdered(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			q := New(b.open())

			for _, questionID := range []uint{1, 2, 3} {
				_, err := q.Enqueue(ctx, AnswerIntent(7, questionID, []uint{questionID * 10}))
				require.NoError(t, err)
			}
			entries, dropped, err := q.PeekOrdered(ctx, AttemptLane(7))
			require.NoError(t, err)
			assert.Zero(t, dropped)
			assert.Equal(t, []uint64{1, 2, 3}, seqs(entries))

			intent, err := entries[1].Intent()
			require.NoError(t, err)
			assert.Equal(t, IntentSubmitAnswer, intent.Type)
			assert.Equal(t, int64(7), intent.AttemptID)
			assert.Equal(t, uint(2), intent.Answer.QuestionID)
			assert.Equal(t, []uint{20}, intent.Answer.SelectedOptionIDs)
			assert.NotEmpty(t, entries[1].IdempotencyKey)
		})
	}
}

func TestQueue_SequenceNumbersAreNeverReused(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			q := New(b.open())

			_, err := q.Enqueue(ctx, AnswerIntent(1, 1, []uint{1}))
			require.NoError(t, err)
			second, err := q.Enqueue(ctx, AnswerIntent(1, 2, []uint{1}))
			require.NoError(t, err)
			require.NoError(t, q.Acknowledge(ctx, second.Lane, second.SequenceNumber))

			third, err := q.Enqueue(ctx, AnswerIntent(1, 3, []uint{1}))
			require.NoError(t, err)
			assert.Equal(t, uint64(3), third.SequenceNumber)
		})
	}
}

func TestQueue_Acknowledge(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			q := New(b.open())
			lane := AttemptLane(3)
			for _, questionID := range []uint{1, 2, 3} {
				_, err := q.Enqueue(ctx, AnswerIntent(3, questionID, []uint{1}))
				require.NoError(t, err)
			}

			require.NoError(t, q.Acknowledge(ctx, lane, 2))
			require.NoError(t, q.Acknowledge(ctx, lane, 2), "acknowledging twice is a no-op")
			require.NoError(t, q.Acknowledge(ctx, lane, 99))

			entries, _, err := q.PeekOrdered(ctx, lane)
			require.NoError(t, err)
			assert.Equal(t, []uint64{1, 3}, seqs(entries))

			removed, err := q.Discard(ctx, lane, 2)
			require.NoError(t, err)
			assert.False(t, removed)
		})
	}
}

func TestQueue_CoalescesByKey(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			q := New(b.open())
			lane := AttemptLane(5)

			_, err := q.Enqueue(ctx, AnswerIntent(5, 1, []uint{11}))
			require.NoError(t, err)
			_, err = q.Enqueue(ctx, AnswerIntent(5, 2, []uint{21}))
			require.NoError(t, err)
			_, err = q.Enqueue(ctx, AnswerIntent(5, 1, []uint{12}))
			require.NoError(t, err)

			entries, _, err := q.PeekOrdered(ctx, lane)
			require.NoError(t, err)
			require.Equal(t, []uint64{2, 3}, seqs(entries))
			latest, err := entries[1].Intent()
			require.NoError(t, err)
			assert.Equal(t, uint(1), latest.Answer.QuestionID)
			assert.Equal(t, []uint{12}, latest.Answer.SelectedOptionIDs)

			// acknowledging the replaced entry must not touch the new one
			require.NoError(t, q.Acknowledge(ctx, lane, 1))
			_, err = q.Enqueue(ctx, AnswerIntent(5, 1, []uint{13}))
			require.NoError(t, err)
			entries, _, err = q.PeekOrdered(ctx, lane)
			require.NoError(t, err)
			assert.Equal(t, []uint64{2, 4}, seqs(entries))
		})
	}
}

func TestQueue_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			q := New(b.open())
			_, err := q.Enqueue(ctx, AnswerIntent(9, 1, []uint{1}))
			require.NoError(t, err)
			_, err = q.Enqueue(ctx, CompleteIntent(9))
			require.NoError(t, err)
			_, err = q.Enqueue(ctx, ProgressIntent(dto.UserProgressRequest{QuizID: 4, Score: 80}))
			require.NoError(t, err)

			restarted := New(b.open())
			entries, _, err := restarted.PeekOrdered(ctx, AttemptLane(9))
			require.NoError(t, err)
			assert.Equal(t, []uint64{1, 2}, seqs(entries))
			assert.Equal(t, IntentCompleteAttempt, entries[1].IntentType)

			lanes, err := restarted.Lanes(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{AttemptLane(9), LegacyLane}, lanes)

			pending, err := restarted.Pending(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(3), pending)

			next, err := restarted.Enqueue(ctx, AnswerIntent(9, 2, []uint{1}))
			require.NoError(t, err)
			assert.Equal(t, uint64(3), next.SequenceNumber)
		})
	}
}

func TestQueue_Remap(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			q := New(b.open())
			_, err := q.Enqueue(ctx, AnswerIntent(-1, 1, []uint{2}))
			require.NoError(t, err)
			_, err = q.Enqueue(ctx, CompleteIntent(-1))
			require.NoError(t, err)

			moved, err := q.Remap(ctx, -1, 42)
			require.NoError(t, err)
			assert.Equal(t, 2, moved)

			has, err := q.HasPending(ctx, AttemptLane(-1))
			require.NoError(t, err)
			assert.False(t, has)

			entries, _, err := q.PeekOrdered(ctx, AttemptLane(42))
			require.NoError(t, err)
			require.Equal(t, []uint64{1, 2}, seqs(entries))
			assert.JSONEq(t, `{"attemptId":42,"questionId":1,"selectedOptionId":[2]}`, string(entries[0].Payload))

			complete, err := entries[1].Intent()
			require.NoError(t, err)
			assert.Equal(t, int64(42), complete.AttemptID)
			assert.Equal(t, int64(42), complete.Complete.AttemptID)

			lanes, err := q.Lanes(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{AttemptLane(42)}, lanes)
		})
	}
}

func TestQueue_DropsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			q := New(b.open())
			lane := AttemptLane(11)
			_, err := q.Enqueue(ctx, AnswerIntent(11, 1, []uint{1}))
			require.NoError(t, err)
			b.corrupt(lane, 50)

			entries, dropped, err := q.PeekOrdered(ctx, lane)
			require.NoError(t, err)
			assert.Equal(t, 1, dropped)
			assert.Equal(t, []uint64{1}, seqs(entries))

			pending, err := q.Pending(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), pending)
		})
	}
}

func TestQueue_OnChange(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			q := New(b.open())
			var seen []int64
			q.OnChange(func(pending int64) { seen = append(seen, pending) })

			first, err := q.Enqueue(ctx, StartIntent(-2, 8))
			require.NoError(t, err)
			_, err = q.Enqueue(ctx, AnswerIntent(-2, 1, []uint{1}))
			require.NoError(t, err)
			require.NoError(t, q.Acknowledge(ctx, first.Lane, first.SequenceNumber))

			assert.Equal(t, []int64{1, 2, 1}, seen)
		})
	}
}

func TestIntent_CoalesceKey(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		want   string
		lane   string
	}{
		{name: "start", intent: StartIntent(-1, 3), want: "start", lane: "attempt:-1"},
		{name: "answer", intent: AnswerIntent(4, 17, []uint{1}), want: "answer:17", lane: "attempt:4"},
		{name: "complete", intent: CompleteIntent(4), want: "complete", lane: "attempt:4"},
		{name: "progress", intent: ProgressIntent(dto.UserProgressRequest{QuizID: 6}), want: "progress:6", lane: LegacyLane},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.intent.CoalesceKey())
			assert.Equal(t, tt.lane, tt.intent.Lane())
		})
	}
}

func TestEntry_IntentRejectsUnknownType(t *testing.T) {
	_, err := Entry{Lane: AttemptLane(1), IntentType: "teleport", Payload: json.RawMessage(`{}`)}.Intent()
	assert.ErrorIs(t, err, ErrCorruptEntry)
}
