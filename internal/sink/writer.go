package sink

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/riskmesh/riskmesh/internal/metrics"
	"github.com/riskmesh/riskmesh/internal/models"
)

// Inserter is the persistence surface the writer drains into.
type Inserter interface {
	InsertTransaction(ctx context.Context, tx *models.Transaction) error
}

// Writer buffers scored transactions and persists them through a pool of
// worker goroutines. Enqueue never blocks the scoring path; when the queue
// is full the row is counted as dead-lettered and dropped.
type Writer struct {
	store Inserter
	log   *logrus.Logger
	jobs  chan *models.Transaction

	workers     int
	maxAttempts int
	baseBackoff time.Duration
}

// WriterOptions tunes the writer; zero values fall back to defaults.
type WriterOptions struct {
	QueueSize   int
	Workers     int
	MaxAttempts int
	BaseBackoff time.Duration
}

// NewWriter creates a Writer. A nil store disables persistence entirely;
// enqueued rows are discarded without counting as dead letters.
func NewWriter(store Inserter, log *logrus.Logger, opts WriterOptions) *Writer {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1000
	}

	if opts.Workers <= 0 {
		opts.Workers = 2
	}

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}

	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 100 * time.Millisecond
	}

	return &Writer{
		store:       store,
		log:         log,
		jobs:        make(chan *models.Transaction, opts.QueueSize),
		workers:     opts.Workers,
		maxAttempts: opts.MaxAttempts,
		baseBackoff: opts.BaseBackoff,
	}
}

// Enqueue adds a transaction row. Non-blocking; drops the row if the queue
// is full.
func (w *Writer) Enqueue(tx *models.Transaction) {
	if w.store == nil {
		return
	}

	select {
	case w.jobs <- tx:
		metrics.SinkQueueDepth.Set(float64(len(w.jobs)))
	default:
		metrics.SinkDeadLetter.Inc()
		w.log.WithField("transaction_id", tx.ID).Warn("sink queue full, dropping row")
	}
}

// Run drains the queue until the context is cancelled, then flushes whatever
// remains. It blocks until all workers have stopped.
func (w *Writer) Run(ctx context.Context) {
	if w.store == nil {
		<-ctx.Done()

		return
	}

	var g errgroup.Group

	for i := 0; i < w.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					w.drain()

					return nil
				case tx := <-w.jobs:
					metrics.SinkQueueDepth.Set(float64(len(w.jobs)))
					w.persist(tx)
				}
			}
		})
	}

	g.Wait() //nolint:errcheck // workers only return nil.
}

func (w *Writer) drain() {
	for {
		select {
		case tx := <-w.jobs:
			w.persist(tx)
		default:
			return
		}
	}
}

// persist retries the insert with exponential backoff; after the final
// attempt the row is dead-lettered.
func (w *Writer) persist(tx *models.Transaction) {
	var err error

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if err = w.store.InsertTransaction(context.Background(), tx); err == nil {
			return
		}

		if attempt < w.maxAttempts {
			time.Sleep(w.baseBackoff << (attempt - 1))
		}
	}

	metrics.SinkDeadLetter.Inc()
	w.log.WithError(err).WithField("transaction_id", tx.ID).Warn("sink insert failed, dead-lettering row")
}
