package queue

import (
	"context"

	"github.com/lshigami/quizsync/internal/model"
	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore keeps the queue in the pending_mutations and queue_lanes tables.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// nextSequences reserves n sequence numbers of lane and returns the first one.
func nextSequences(tx *gorm.DB, lane string, n int) (uint64, error) {
	counter := model.QueueLane{Lane: lane}
	if err := tx.FirstOrCreate(&counter, model.QueueLane{Lane: lane}).Error; err != nil {
		return 0, err
	}
	err := tx.Model(&model.QueueLane{}).
		Where("lane = ?", lane).
		UpdateColumn("last_sequence", gorm.Expr("last_sequence + ?", n)).Error
	if err != nil {
		return 0, err
	}
	if err := tx.First(&counter, "lane = ?", lane).Error; err != nil {
		return 0, err
	}
	return counter.LastSequence - uint64(n) + 1, nil
}

func (s *gormStore) Append(ctx context.Context, m *model.PendingMutation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := nextSequences(tx, m.Lane, 1)
		if err != nil {
			return err
		}
		if m.CoalesceKey != "" {
			err := tx.Where("lane = ? AND coalesce_key = ?", m.Lane, m.CoalesceKey).
				Delete(&model.PendingMutation{}).Error
			if err != nil {
				return err
			}
		}
		m.ID = 0
		m.SequenceNumber = seq
		return tx.Create(m).Error
	})
}

func (s *gormStore) List(ctx context.Context, lane string) ([]model.PendingMutation, error) {
	var mutations []model.PendingMutation
	err := s.db.WithContext(ctx).
		Where("lane = ?", lane).
		Order("sequence_number asc").
		Find(&mutations).Error
	return mutations, err
}

func (s *gormStore) Delete(ctx context.Context, lane string, seq uint64) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("lane = ? AND sequence_number = ?", lane, seq).
		Delete(&model.PendingMutation{})
	return res.RowsAffected > 0, res.Error
}

func (s *gormStore) Lanes(ctx context.Context) ([]string, error) {
	var lanes []string
	err := s.db.WithContext(ctx).
		Model(&model.PendingMutation{}).
		Distinct("lane").
		Order("lane").
		Pluck("lane", &lanes).Error
	return lanes, err
}

func (s *gormStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.PendingMutation{}).Count(&n).Error
	return n, err
}

func (s *gormStore) MoveLane(ctx context.Context, from, to string, rewrite func(string) string) (int, error) {
	moved := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mutations []model.PendingMutation
		err := tx.Where("lane = ?", from).Order("sequence_number asc").Find(&mutations).Error
		if err != nil || len(mutations) == 0 {
			return err
		}
		first, err := nextSequences(tx, to, len(mutations))
		if err != nil {
			return err
		}
		for i, m := range mutations {
			if m.CoalesceKey != "" {
				err := tx.Where("lane = ? AND coalesce_key = ?", to, m.CoalesceKey).
					Delete(&model.PendingMutation{}).Error
				if err != nil {
					return err
				}
			}
			payload := m.Payload
			if rewrite != nil {
				payload = rewrite(payload)
			}
			err := tx.Model(&model.PendingMutation{}).
				Where("id = ?", m.ID).
				Updates(map[string]interface{}{
					"lane":            to,
					"sequence_number": first + uint64(i),
					"payload":         payload,
				}).Error
			if err != nil {
				return err
			}
		}
		moved = len(mutations)
		return nil
	})
	return moved, err
}
