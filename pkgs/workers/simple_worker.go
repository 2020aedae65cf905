package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WangWilly/xCrawl/pkgs/utils"
	log "github.com/sirupsen/logrus"
)

// SimpleWorker runs a producer and maxWorkers consumers over a channel of
// work items. The first error from either side cancels the rest.
type SimpleWorker[T any] struct {
	maxWorkers int

	produced atomic.Int64
	consumed atomic.Int64
}

func NewSimpleWorker[T any](maxWorkers int) *SimpleWorker[T] {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &SimpleWorker[T]{maxWorkers: maxWorkers}
}

// ProducerFunc sends work items to output. The channel is closed for it.
type ProducerFunc[T any] func(ctx context.Context, output chan<- T) error

// ConsumerFunc handles one work item.
type ConsumerFunc[T any] func(ctx context.Context, item T) error

// ProcessStats contains processing statistics
type ProcessStats struct {
	Produced int64
	Consumed int64
	Duration time.Duration
}

// SliceProducer produces items in order.
func SliceProducer[T any](items []T) ProducerFunc[T] {
	return func(ctx context.Context, output chan<- T) error {
		for _, item := range items {
			select {
			case <-ctx.Done():
				return nil
			case output <- item:
			}
		}
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////

// Process runs the pipeline until the producer is done and every item is
// consumed, or until the first error. The error returned is that first error.
func (sw *SimpleWorker[T]) Process(
	parent context.Context,
	producer ProducerFunc[T],
	consumer ConsumerFunc[T],
	bufferSize int,
) (ProcessStats, error) {
	startTime := time.Now()
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	workChan := make(chan T, bufferSize)

	go func() {
		defer close(workChan)
		counted := make(chan T)
		go func() {
			defer close(counted)
			if err := producer(ctx, counted); err != nil {
				cancel(err)
			}
		}()
		for item := range counted {
			sw.produced.Add(1)
			select {
			case <-ctx.Done():
			case workChan <- item:
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < sw.maxWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			defer utils.PanicHandler(cancel)

			logger := log.WithField("workerID", workerID)
			logger.Debug("consumer started")
			defer logger.Debug("consumer finished")

			for {
				select {
				case <-ctx.Done():
					return
				case item, ok := <-workChan:
					if !ok {
						return
					}
					if err := consumer(ctx, item); err != nil {
						cancel(err)
						return
					}
					sw.consumed.Add(1)
				}
			}
		}(i)
	}
	wg.Wait()

	stats := sw.GetStats()
	stats.Duration = time.Since(startTime)

	if ctx.Err() != nil {
		return stats, context.Cause(ctx)
	}
	return stats, nil
}

// GetStats returns current processing statistics
func (sw *SimpleWorker[T]) GetStats() ProcessStats {
	return ProcessStats{
		Produced: sw.produced.Load(),
		Consumed: sw.consumed.Load(),
	}
}
