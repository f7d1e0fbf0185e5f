package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/bank-teller/internal/core/ports"
	"github.com/99minutos/bank-teller/internal/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes interest jobs to a fixed set of workers using consistent
// hashing on the account id, so one account is never credited by two workers
// at once.
type Dispatcher struct {
	workers []chan int64
	service ports.InterestService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.InterestService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan int64, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan int64, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue sends an account to the worker responsible for it. It blocks once
// that worker's buffer is full, until ctx is done.
func (d *Dispatcher) Enqueue(ctx context.Context, accountID int64) error {
	idx := d.shardIndex(accountID)
	select {
	case d.workers[idx] <- accountID:
		metrics.InterestQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnqueueBatch enqueues every id, stopping at the first cancellation.
func (d *Dispatcher) EnqueueBatch(ctx context.Context, accountIDs []int64) error {
	for _, id := range accountIDs {
		if err := d.Enqueue(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// shardIndex maps an account id deterministically to a worker index.
func (d *Dispatcher) shardIndex(accountID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(accountID, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan int64) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case accountID, ok := <-ch:
			if !ok {
				return
			}
			metrics.InterestQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			applied, err := d.service.ApplyToAccount(ctx, accountID)
			if err != nil {
				d.log.Error().Err(err).
					Int64("account_id", accountID).
					Int("worker_id", id).
					Msg("interest processing failed")
				continue
			}
			if !applied {
				d.log.Warn().
					Int64("account_id", accountID).
					Int("worker_id", id).
					Msg("interest not applied")
			}
		}
	}
}
