// Package reconcile replays queued mutations once the backend is reachable.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lshigami/quizsync/config"
	"github.com/lshigami/quizsync/internal/backend"
	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/gateway"
	"github.com/lshigami/quizsync/internal/queue"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Ledger keeps local attempt state in line with what the backend confirmed.
type Ledger interface {
	// RemapAttempt moves everything known about a placeholder attempt,
	// including its queued mutations, onto the id issued by the backend.
	RemapAttempt(ctx context.Context, temporaryID, attemptID int64) error
	// ApplyServerResult stores the confirmed result of an attempt and returns
	// the result shown before, or nil when none was shown.
	ApplyServerResult(ctx context.Context, attemptID int64, result dto.CompleteAttemptResponse) (*dto.CompleteAttemptResponse, error)
}

type Connectivity interface {
	ReportFailure(err error)
	ReportSuccess()
}

type Synchronizer struct {
	client  backend.Client
	queue   *queue.Queue
	ledger  Ledger
	monitor Connectivity
	workers int

	passMu  sync.Mutex
	trigger chan struct{}

	mu            sync.Mutex
	last          *Report
	passes        uint64
	onReport      []func(*Report)
	onDiscrepancy []func(ScoreDiscrepancy)
}

func New(client backend.Client, q *queue.Queue, cfg *config.Config) *Synchronizer {
	workers := cfg.Sync.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Synchronizer{
		client:  client,
		queue:   q,
		workers: workers,
		trigger: make(chan struct{}, 1),
	}
}

func (s *Synchronizer) SetLedger(l Ledger) { s.ledger = l }

func (s *Synchronizer) SetConnectivity(c Connectivity) { s.monitor = c }

func (s *Synchronizer) OnReport(fn func(*Report)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReport = append(s.onReport, fn)
}

func (s *Synchronizer) OnDiscrepancy(fn func(ScoreDiscrepancy)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDiscrepancy = append(s.onDiscrepancy, fn)
}

// LastReport returns the report of the latest pass and the number of passes run.
func (s *Synchronizer) LastReport() (*Report, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.passes
}

// Trigger asks Run for a pass without blocking. Triggers that arrive while a
// pass is running collapse into a single follow-up pass.
func (s *Synchronizer) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run executes triggered passes until ctx is done.
func (s *Synchronizer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Sync pass failed")
			}
		}
	}
}

// Sync runs one replay pass over every lane. Passes never overlap. The error
// is non-nil when the lanes could not be listed or the credential was refused.
func (s *Synchronizer) Sync(ctx context.Context) (*Report, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	report := &Report{StartedAt: time.Now().UTC()}
	lanes, err := s.queue.Lanes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue lanes: %w", err)
	}

	type laneResult struct {
		report        LaneReport
		discrepancies []ScoreDiscrepancy
	}
	results := make([]laneResult, len(lanes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, lane := range lanes {
		i, lane := i, lane
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i].report = LaneReport{Lane: lane, Err: gctx.Err()}
				return nil
			}
			rep, discrepancies, err := s.replayLane(gctx, lane)
			results[i] = laneResult{report: rep, discrepancies: discrepancies}
			return err
		})
	}
	passErr := g.Wait()

	for _, r := range results {
		report.add(r.report, r.discrepancies)
	}
	report.FinishedAt = time.Now().UTC()
	if passErr != nil && backend.Classify(passErr) == backend.KindAuthentication {
		report.AuthenticationFailed = true
	}

	s.mu.Lock()
	s.last = report
	s.passes++
	hooks := append([]func(*Report){}, s.onReport...)
	s.mu.Unlock()

	event := log.Info()
	if passErr != nil {
		event = log.Warn().Err(passErr)
	}
	event.
		Int("lanes", len(lanes)).
		Int("replayed", report.Replayed).
		Int("rejected", report.Rejected).
		Int("dropped", report.Dropped).
		Int("remaining", report.Remaining()).
		Msg("Sync pass finished")

	for _, fn := range hooks {
		fn(report)
	}
	return report, passErr
}

// replayLane replays a lane head first until it is empty or a call fails. It
// returns an error only when the whole pass has to stop.
func (s *Synchronizer) replayLane(ctx context.Context, lane string) (LaneReport, []ScoreDiscrepancy, error) {
	rep := LaneReport{Lane: lane}
	var discrepancies []ScoreDiscrepancy
	current := lane
	logger := log.With().Str("lane", lane).Logger()

	defer func() {
		if rest, _, err := s.queue.PeekOrdered(context.WithoutCancel(ctx), current); err == nil {
			rep.Remaining = len(rest)
		}
	}()

	for ctx.Err() == nil {
		entries, dropped, err := s.queue.PeekOrdered(ctx, current)
		rep.Dropped += dropped
		if err != nil {
			rep.Err = err
			return rep, discrepancies, nil
		}
		if len(entries) == 0 {
			return rep, discrepancies, nil
		}
		entry := entries[0]
		intent, err := entry.Intent()
		if err != nil {
			rep.Err = err
			return rep, discrepancies, nil
		}

		resp, err := gateway.Dispatch(ctx, s.client, intent)
		if err != nil && intent.Type == queue.IntentStartAttempt {
			// the backend already has an open attempt: continue on that one
			if existing, ok := backend.ExistingAttemptID(err); ok {
				resp.Start, err = &dto.StartAttemptResponse{AttemptID: existing}, nil
			}
		}
		if err != nil {
			switch backend.Classify(err) {
			case backend.KindAuthentication:
				rep.Err = err
				logger.Warn().Err(err).Msg("Credential refused, stopping sync pass")
				return rep, discrepancies, err
			case backend.KindTransient:
				rep.Err = err
				if ctx.Err() == nil && s.monitor != nil {
					s.monitor.ReportFailure(err)
				}
				logger.Info().Err(err).Uint64("seq", entry.SequenceNumber).Msg("Replay interrupted, lane kept for next pass")
				return rep, discrepancies, nil
			default:
				rep.Err = err
				rep.Rejected++
				logger.Warn().
					Err(err).
					Uint64("seq", entry.SequenceNumber).
					Str("intent", string(entry.IntentType)).
					Str("payload", string(entry.Payload)).
					Msg("Backend rejected queued mutation, lane held until it is discarded")
				return rep, discrepancies, nil
			}
		}
		if s.monitor != nil {
			s.monitor.ReportSuccess()
		}

		switch intent.Type {
		case queue.IntentStartAttempt:
			if resp.Start != nil && resp.Start.AttemptID != intent.AttemptID {
				next, err := s.remap(ctx, intent.AttemptID, resp.Start.AttemptID, entry)
				if err != nil {
					rep.Err = err
					return rep, discrepancies, nil
				}
				current = next
				rep.RemappedTo = resp.Start.AttemptID
				rep.Replayed++
				continue
			}
		case queue.IntentCompleteAttempt:
			if d, ok := s.reconcileScore(ctx, intent.AttemptID, resp.Complete); ok {
				discrepancies = append(discrepancies, d)
			}
		}

		if err := s.queue.Acknowledge(ctx, current, entry.SequenceNumber); err != nil {
			rep.Err = err
			return rep, discrepancies, nil
		}
		rep.Replayed++
	}
	rep.Err = ctx.Err()
	return rep, discrepancies, nil
}

// remap moves the placeholder lane, the start entry included, onto the real
// attempt and acknowledges the start entry there. If the process stops in
// between, the start is replayed with the same idempotency key and lands on
// the real lane.
func (s *Synchronizer) remap(ctx context.Context, temporaryID, attemptID int64, start queue.Entry) (string, error) {
	var err error
	if s.ledger != nil {
		err = s.ledger.RemapAttempt(ctx, temporaryID, attemptID)
	} else {
		_, err = s.queue.Remap(ctx, temporaryID, attemptID)
	}
	if err != nil {
		return "", err
	}

	lane := queue.AttemptLane(attemptID)
	entries, _, err := s.queue.PeekOrdered(ctx, lane)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IdempotencyKey == start.IdempotencyKey {
			if err := s.queue.Acknowledge(ctx, lane, e.SequenceNumber); err != nil {
				return "", err
			}
			break
		}
	}
	log.Info().Int64("temporaryID", temporaryID).Int64("attemptID", attemptID).Msg("Offline attempt registered with backend")
	return lane, nil
}

func (s *Synchronizer) reconcileScore(ctx context.Context, attemptID int64, server *dto.CompleteAttemptResponse) (ScoreDiscrepancy, bool) {
	if s.ledger == nil || server == nil {
		return ScoreDiscrepancy{}, false
	}
	local, err := s.ledger.ApplyServerResult(ctx, attemptID, *server)
	if err != nil {
		log.Warn().Err(err).Int64("attemptID", attemptID).Msg("Failed to store confirmed score")
		return ScoreDiscrepancy{}, false
	}
	if local == nil || (local.Score == server.Score && local.Passed == server.Passed) {
		return ScoreDiscrepancy{}, false
	}

	d := ScoreDiscrepancy{
		AttemptID:    attemptID,
		LocalScore:   local.Score,
		ServerScore:  server.Score,
		LocalPassed:  local.Passed,
		ServerPassed: server.Passed,
	}
	log.Warn().
		Int64("attemptID", attemptID).
		Int("localScore", d.LocalScore).
		Int("serverScore", d.ServerScore).
		Bool("localPassed", d.LocalPassed).
		Bool("serverPassed", d.ServerPassed).
		Msg("Confirmed score differs from the score shown offline")

	s.mu.Lock()
	hooks := append([]func(ScoreDiscrepancy){}, s.onDiscrepancy...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(d)
	}
	return d, true
}

// IsAuthFailure reports whether a Sync error means the learner must sign in again.
func IsAuthFailure(err error) bool {
	return err != nil && backend.Classify(err) == backend.KindAuthentication
}
