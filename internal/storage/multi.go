package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"priceScope/internal/metrics"
)

// Multi publishes every batch to all of its sinks in parallel and returns
// once each sink has acknowledged or failed.
type Multi struct {
	sinks  []Sink
	pool   pond.Pool
	logger *zap.Logger
}

func NewMulti(logger *zap.Logger, sinks ...Sink) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := len(sinks)
	if workers == 0 {
		workers = 1
	}
	return &Multi{
		sinks:  sinks,
		pool:   pond.NewPool(workers),
		logger: logger,
	}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Len() int { return len(m.sinks) }

func (m *Multi) Publish(ctx context.Context, batch BlockDeltas) error {
	if len(m.sinks) == 0 {
		return nil
	}
	group := m.pool.NewGroupContext(ctx)
	for _, sink := range m.sinks {
		sink := sink
		group.SubmitErr(func() error {
			if err := sink.Publish(ctx, batch); err != nil {
				metrics.IncSinkError(sink.Name())
				m.logger.Error("sink publish failed",
					zap.String("sink", sink.Name()),
					zap.Uint64("block", batch.BlockNumber),
					zap.Error(err),
				)
				return fmt.Errorf("%s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	err := group.Wait()
	if errors.Is(err, pond.ErrGroupStopped) && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("publish block %d: %w", batch.BlockNumber, err)
	}
	return nil
}

// Close stops the worker pool and closes every sink, returning the joined errors.
func (m *Multi) Close() error {
	m.pool.StopAndWait()
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
