package offline

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// FlushResult summarizes one pass over the queue.
type FlushResult struct {
	Applied   int
	Conflicts int
	// Blocked is set when the pass stopped on a retryable failure.
	Blocked bool
}

// Syncer drains a Queue through a Transport.
type Syncer struct {
	queue       *Queue
	transport   Transport
	interval    time.Duration
	sendTimeout time.Duration
	kick        chan struct{}
}

// NewSyncer creates a Syncer that retries every interval.
func NewSyncer(queue *Queue, transport Transport, interval, sendTimeout time.Duration) *Syncer {
	return &Syncer{
		queue:       queue,
		transport:   transport,
		interval:    interval,
		sendTimeout: sendTimeout,
		kick:        make(chan struct{}, 1),
	}
}

// Kick requests an immediate flush, e.g. when connectivity returns.
func (s *Syncer) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Flush replays queued entries oldest first. A conflict drops the entry and
// moves on; a retryable failure puts the entry back and ends the pass so
// later entries never overtake it.
func (s *Syncer) Flush(ctx context.Context) (FlushResult, error) {
	var res FlushResult
	entries, err := s.queue.Pending(ctx)
	if err != nil {
		return res, fmt.Errorf("list pending: %w", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		entry := log.WithFields(log.Fields{"local_id": e.LocalID, "kind": e.Kind})

		m, err := e.Mutation()
		if err != nil {
			if err := s.queue.markInflight(ctx, e.ID); err != nil {
				return res, err
			}
			if err := s.queue.markFailed(ctx, e.ID, err.Error()); err != nil {
				return res, err
			}
			entry.WithError(err).Error("dropping unreadable queue entry")
			res.Conflicts++
			continue
		}

		if err := s.queue.markInflight(ctx, e.ID); err != nil {
			return res, err
		}

		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		ack, sendErr := s.transport.Send(sendCtx, m)
		cancel()

		switch {
		case sendErr == nil:
			if err := s.queue.markAcknowledged(ctx, e.ID); err != nil {
				return res, err
			}
			entry.WithField("duplicate", ack != nil && ack.Duplicate).Debug("mutation acknowledged")
			res.Applied++

		case errors.Is(sendErr, ErrConflict):
			if err := s.queue.markFailed(ctx, e.ID, sendErr.Error()); err != nil {
				return res, err
			}
			entry.WithError(sendErr).Warn("queued change could not be applied")
			res.Conflicts++

		default:
			// Requeue on a fresh context so a cancelled flush does not
			// strand the entry inflight.
			if err := s.queue.requeue(context.WithoutCancel(ctx), e.ID, sendErr); err != nil {
				return res, err
			}
			entry.WithError(sendErr).WithField("attempts", e.Attempts+1).Info("replay deferred")
			res.Blocked = true
			return res, nil
		}
	}
	return res, nil
}

// Run flushes on every tick and on Kick until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	if n, err := s.queue.Recover(ctx); err != nil {
		return fmt.Errorf("recover inflight entries: %w", err)
	} else if n > 0 {
		log.WithField("entries", n).Info("requeued entries left inflight")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		res, err := s.Flush(ctx)
		if err != nil && ctx.Err() == nil {
			log.WithError(err).Error("flush queue")
		} else if res.Applied > 0 || res.Conflicts > 0 {
			log.WithFields(log.Fields{
				"applied":   res.Applied,
				"conflicts": res.Conflicts,
				"blocked":   res.Blocked,
			}).Info("queue flushed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-s.kick:
		}
	}
}
