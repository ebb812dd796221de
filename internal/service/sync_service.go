package service

import (
	"context"

	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/monitor"
	"github.com/lshigami/quizsync/internal/reconcile"
	"github.com/rs/zerolog/log"
)

// SyncService exposes connectivity and replay to the API.
type SyncService interface {
	Status(ctx context.Context) (*dto.SyncStatusDTO, error)
	// SyncNow runs one replay pass and waits for it.
	SyncNow(ctx context.Context) (*dto.SyncReportDTO, error)
	SetOnline(ctx context.Context, online bool) (*dto.SyncStatusDTO, error)
}

type syncService struct {
	monitor      *monitor.Monitor
	synchronizer *reconcile.Synchronizer
}

func NewSyncService(m *monitor.Monitor, synchronizer *reconcile.Synchronizer) SyncService {
	return &syncService{monitor: m, synchronizer: synchronizer}
}

func (s *syncService) Status(ctx context.Context) (*dto.SyncStatusDTO, error) {
	status := s.monitor.Status()
	out := &dto.SyncStatusDTO{
		Online:     status.Online,
		Pending:    status.Pending,
		LastChange: status.LastChange,
	}
	report, passes := s.synchronizer.LastReport()
	out.Passes = passes
	if report != nil {
		out.LastReport = report.DTO()
	}
	return out, nil
}

func (s *syncService) SyncNow(ctx context.Context) (*dto.SyncReportDTO, error) {
	report, err := s.synchronizer.Sync(ctx)
	if report == nil {
		return nil, err
	}
	if err != nil {
		log.Warn().Err(err).Msg("SyncNow: pass stopped early")
	}
	return report.DTO(), err
}

// SetOnline feeds a connectivity signal from the host, such as the OS network
// state. It goes through the same debounce as probe results.
func (s *syncService) SetOnline(ctx context.Context, online bool) (*dto.SyncStatusDTO, error) {
	s.monitor.SetOnline(online)
	return s.Status(ctx)
}
