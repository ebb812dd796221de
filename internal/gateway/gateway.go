// Package gateway sends attempt mutations to the backend, or queues them when
// the backend cannot take them right now.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lshigami/quizsync/internal/backend"
	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/monitor"
	"github.com/lshigami/quizsync/internal/queue"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusAcked  Status = "acked"
	StatusQueued Status = "queued"
)

// Response holds what the backend answered to a dispatched intent.
type Response struct {
	Start    *dto.StartAttemptResponse
	Complete *dto.CompleteAttemptResponse
	Progress *dto.UserProgressResponse
}

type Result struct {
	Status Status
	// Entry is set when the intent was queued.
	Entry *queue.Entry
	Response
}

// Connectivity is the part of the monitor the gateway needs.
type Connectivity interface {
	IsOnline() bool
	ReportFailure(err error)
	ReportSuccess()
}

var _ Connectivity = (*monitor.Monitor)(nil)

type Gateway struct {
	client  backend.Client
	queue   *queue.Queue
	monitor Connectivity
	// onQueued runs when an intent was queued while the backend looked reachable,
	// including after a transient failure of the direct call.
	onQueued func()
}

func New(client backend.Client, q *queue.Queue, m Connectivity) *Gateway {
	return &Gateway{client: client, queue: q, monitor: m}
}

// OnQueuedWhileOnline registers the hook that asks for a replay pass.
func (g *Gateway) OnQueuedWhileOnline(fn func()) {
	g.onQueued = fn
}

// Submit delivers intent or queues it. Transient failures are never returned:
// the intent is queued and reported as StatusQueued. Authentication and
// validation failures are returned and nothing is queued.
func (g *Gateway) Submit(ctx context.Context, intent queue.Intent) (*Result, error) {
	if intent.IdempotencyKey == "" {
		intent.IdempotencyKey = uuid.NewString()
	}

	if !g.monitor.IsOnline() {
		return g.enqueue(ctx, intent, "offline")
	}

	busy, err := g.queue.HasPending(ctx, intent.Lane())
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue: %w", err)
	}
	if busy {
		return g.enqueueAndKick(ctx, intent, "lane has pending entries")
	}

	resp, err := Dispatch(ctx, g.client, intent)
	if err == nil {
		g.monitor.ReportSuccess()
		return &Result{Status: StatusAcked, Response: resp}, nil
	}
	if backend.IsTransient(err) {
		g.monitor.ReportFailure(err)
		return g.enqueueAndKick(ctx, intent, "transient failure")
	}
	return nil, err
}

// enqueueAndKick queues intent and asks for a replay pass. A pass started
// while the backend is still down only finds the lane transient again.
func (g *Gateway) enqueueAndKick(ctx context.Context, intent queue.Intent, reason string) (*Result, error) {
	res, err := g.enqueue(ctx, intent, reason)
	if err == nil && g.onQueued != nil {
		g.onQueued()
	}
	return res, err
}

func (g *Gateway) enqueue(ctx context.Context, intent queue.Intent, reason string) (*Result, error) {
	entry, err := g.queue.Enqueue(ctx, intent)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("lane", entry.Lane).
		Uint64("seq", entry.SequenceNumber).
		Str("intent", string(intent.Type)).
		Str("reason", reason).
		Msg("Submission queued")
	return &Result{Status: StatusQueued, Entry: &entry}, nil
}

var ErrUnknownIntent = errors.New("unknown intent type")

// Dispatch performs the backend call matching intent.
func Dispatch(ctx context.Context, client backend.Client, intent queue.Intent) (Response, error) {
	var resp Response
	if err := intent.Validate(); err != nil {
		return resp, err
	}
	var err error
	switch intent.Type {
	case queue.IntentStartAttempt:
		resp.Start, err = client.StartAttempt(ctx, *intent.Start, intent.IdempotencyKey)
	case queue.IntentSubmitAnswer:
		err = client.SubmitAnswer(ctx, *intent.Answer, intent.IdempotencyKey)
	case queue.IntentCompleteAttempt:
		resp.Complete, err = client.CompleteAttempt(ctx, *intent.Complete, intent.IdempotencyKey)
	case queue.IntentRecordProgress:
		resp.Progress, err = client.RecordProgress(ctx, *intent.Progress, intent.IdempotencyKey)
	default:
		err = fmt.Errorf("%w %q", ErrUnknownIntent, intent.Type)
	}
	return resp, err
}
