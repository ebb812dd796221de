package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/jinzhu/copier"
	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/queue"
	"github.com/rs/zerolog/log"
)

type AdminQueueService interface {
	QueueOverview(ctx context.Context) (*dto.QueueOverviewDTO, error)
	DiscardEntry(ctx context.Context, lane string, seq uint64) error
}

type adminQueueService struct {
	queue *queue.Queue
}

func NewAdminQueueService(q *queue.Queue) AdminQueueService {
	return &adminQueueService{queue: q}
}

func (s *adminQueueService) QueueOverview(ctx context.Context) (*dto.QueueOverviewDTO, error) {
	entries, err := s.queue.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("QueueOverview: failed to list queue")
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}

	byLane := map[string][]dto.QueueEntryDTO{}
	for _, e := range entries {
		var item dto.QueueEntryDTO
		if err := copier.Copy(&item, &e); err != nil {
			return nil, fmt.Errorf("error preparing response data: %w", err)
		}
		byLane[e.Lane] = append(byLane[e.Lane], item)
	}

	overview := &dto.QueueOverviewDTO{Pending: int64(len(entries)), Lanes: []dto.QueueLaneDTO{}}
	for lane, items := range byLane {
		overview.Lanes = append(overview.Lanes, dto.QueueLaneDTO{Lane: lane, Entries: items})
	}
	sort.Slice(overview.Lanes, func(i, j int) bool { return overview.Lanes[i].Lane < overview.Lanes[j].Lane })
	return overview, nil
}

// DiscardEntry drops one queued mutation by hand, for entries the backend will
// never accept.
func (s *adminQueueService) DiscardEntry(ctx context.Context, lane string, seq uint64) error {
	removed, err := s.queue.Discard(ctx, lane, seq)
	if err != nil {
		log.Error().Err(err).Str("lane", lane).Uint64("seq", seq).Msg("DiscardEntry: failed to discard entry")
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s #%d", ErrQueueEntryNotFound, lane, seq)
	}
	log.Warn().Str("lane", lane).Uint64("seq", seq).Msg("Queue entry discarded by admin")
	return nil
}
