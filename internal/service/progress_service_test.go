package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/lshigami/quizsync/internal/backend/backendtest"
	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/gateway"
	"github.com/lshigami/quizsync/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressService_RecordProgress(t *testing.T) {
	completedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	req := dto.RecordProgressDTO{
		QuizID:      7,
		Score:       80,
		Answers:     []dto.ProgressAnswerDTO{{QuestionID: 1, SelectedOptionIDs: []uint{3}}},
		CompletedAt: &completedAt,
	}

	tests := []struct {
		name       string
		online     bool
		fail       error
		wantStatus string
		wantQueued int
		wantErr    bool
	}{
		{"online", true, nil, string(gateway.StatusAcked), 0, false},
		{"offline", false, nil, string(gateway.StatusQueued), 1, false},
		{"backend down", true, backendtest.Transient(), string(gateway.StatusQueued), 1, false},
		{"rejected", true, backendtest.Status(http.StatusUnprocessableEntity, `{"error":"bad score"}`), "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.fail != nil {
				h.fake.SetFail(func(backendtest.Call) error { return tt.fail })
			}
			h.monitor.SetOnline(tt.online)
			svc := NewProgressService(gateway.New(h.fake, h.queue, h.monitor))

			got, err := svc.RecordProgress(context.Background(), req)
			entries, _, peekErr := h.queue.PeekOrdered(context.Background(), queue.LegacyLane)
			require.NoError(t, peekErr)
			assert.Len(t, entries, tt.wantQueued)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantQueued > 0 {
				intent, err := entries[0].Intent()
				require.NoError(t, err)
				assert.True(t, completedAt.Equal(intent.Progress.CompletedAt))
				assert.Equal(t, []uint{3}, intent.Progress.Answers[0].SelectedOptionIDs)
			} else {
				require.NotNil(t, got.Progress)
				assert.Equal(t, 80, got.Progress.Score)
			}
		})
	}
}

func TestProgressService_DefaultsCompletionTime(t *testing.T) {
	h := newHarness(t)
	h.monitor.SetOnline(false)
	svc := &progressService{
		gateway: gateway.New(h.fake, h.queue, h.monitor),
		now:     func() time.Time { return time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC) },
	}

	_, err := svc.RecordProgress(context.Background(), dto.RecordProgressDTO{QuizID: 3, Score: 40})
	require.NoError(t, err)
	entries, _, err := h.queue.PeekOrdered(context.Background(), queue.LegacyLane)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	intent, err := entries[0].Intent()
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC).Equal(intent.Progress.CompletedAt))
}
