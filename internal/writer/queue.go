package writer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/boardcrawl/internal/metrics"
	"github.com/nao1215/boardcrawl/internal/model"
)

// Default values for a Queue.
const (
	DefaultDrainInterval   = 10 * time.Millisecond
	DefaultWriteRetries    = 3
	DefaultWriteRetryDelay = 50 * time.Millisecond
)

// File and directory permissions of written records.
const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// Stats is a snapshot of queue activity.
type Stats struct {
	// Enqueued is the number of tasks accepted by Enqueue.
	Enqueued int64 `json:"enqueued"`

	// Written is the number of tasks appended to their file.
	Written int64 `json:"written"`

	// Dropped is the number of tasks abandoned after exhausting retries.
	Dropped int64 `json:"dropped"`

	// Batches is the number of non-empty drain batches processed.
	Batches int64 `json:"batches"`

	// Pending is the number of tasks waiting for the next drain.
	Pending int `json:"pending"`
}

// Queue buffers write tasks in memory and appends them to files from a single
// background drain loop.
type Queue struct {
	mu      sync.Mutex
	pending []model.WriteTask
	closed  bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	interval   time.Duration
	retries    int
	retryDelay time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// openFile is replaced in tests.
	openFile func(name string) (appendFile, error)

	enqueued atomic.Int64
	written  atomic.Int64
	dropped  atomic.Int64
	batches  atomic.Int64
}

// Option configures a Queue.
type Option func(*Queue)

// WithDrainInterval sets how often the drain loop wakes.
func WithDrainInterval(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.interval = d
		}
	}
}

// WithWriteRetries sets how many times a failed append is retried before the
// task is dropped.
func WithWriteRetries(n int) Option {
	return func(q *Queue) {
		if n >= 0 {
			q.retries = n
		}
	}
}

// WithWriteRetryDelay sets the pause between append retries.
func WithWriteRetryDelay(d time.Duration) Option {
	return func(q *Queue) {
		if d >= 0 {
			q.retryDelay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = l
	}
}

// WithMetrics reports queue activity to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

// NewQueue creates an empty, open queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		pending:    make([]model.WriteTask, 0, 64),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		interval:   DefaultDrainInterval,
		retries:    DefaultWriteRetries,
		retryDelay: DefaultWriteRetryDelay,
		logger:     slog.Default(),
		openFile:   openAppendFile,
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Enqueue appends task to the pending list. It never waits for disk I/O.
func (q *Queue) Enqueue(task model.WriteTask) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("%w: dropping write to %s", ErrQueueClosed, task.Filename)
	}
	q.pending = append(q.pending, task)
	n := len(q.pending)
	q.mu.Unlock()

	q.enqueued.Add(1)
	q.metrics.SetQueuePending(n)
	return nil
}

// Run drains the queue every interval until Stop is called or ctx is done,
// then closes the queue, drains what is left and returns. Run must be called
// at most once.
func (q *Queue) Run(ctx context.Context) error {
	defer close(q.doneCh)

	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.drain()
		case <-q.stopCh:
			q.closeAndDrain()
			return nil
		case <-ctx.Done():
			q.closeAndDrain()
			return nil
		}
	}
}

// Stop closes the queue to new tasks and asks Run to perform its final drain.
// It is safe to call more than once.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.stopCh)
	})
}

// Done is closed after Run has finished its final drain.
func (q *Queue) Done() <-chan struct{} {
	return q.doneCh
}

// Stats returns a snapshot of queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	pending := len(q.pending)
	q.mu.Unlock()

	return Stats{
		Enqueued: q.enqueued.Load(),
		Written:  q.written.Load(),
		Dropped:  q.dropped.Load(),
		Batches:  q.batches.Load(),
		Pending:  pending,
	}
}

func (q *Queue) closeAndDrain() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.drain()
	q.logger.Debug("write queue drained", "written", q.written.Load(), "dropped", q.dropped.Load())
}

// take swaps the pending list for an empty one and returns the old list.
func (q *Queue) take() []model.WriteTask {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}
	batch := q.pending
	q.pending = make([]model.WriteTask, 0, cap(batch))
	return batch
}

// drain appends one batch in order. Consecutive tasks for the same file share
// one open handle.
func (q *Queue) drain() {
	batch := q.take()
	q.metrics.SetQueuePending(0)
	if len(batch) == 0 {
		return
	}
	q.batches.Add(1)
	q.metrics.ObserveDrainBatch(len(batch))

	a := &appender{open: q.openFile}
	defer a.close()

	for _, task := range batch {
		q.write(a, task)
	}
}

// write appends one task, retrying on failure and dropping it once retries are
// exhausted.
func (q *Queue) write(a *appender, task model.WriteTask) {
	var err error
	for attempt := 0; attempt <= q.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(q.retryDelay)
		}
		if err = a.append(task); err == nil {
			q.written.Add(1)
			q.metrics.IncWrites()
			return
		}
		a.close()
		q.logger.Warn("append failed",
			"file", task.Filename,
			"attempt", attempt+1,
			"error", err)
	}

	q.dropped.Add(1)
	q.metrics.IncWriteFailures()
	q.logger.Error("dropping record after repeated write failures",
		"file", task.Filename,
		"bytes", len(task.Content),
		"attempts", q.retries+1,
		"error", err)
}

// appendFile is the part of *os.File the appender uses.
type appendFile interface {
	io.StringWriter
	io.Seeker
	io.Closer
	Truncate(size int64) error
}

func openAppendFile(name string) (appendFile, error) {
	if err := os.MkdirAll(filepath.Dir(name), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Clean(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// appender keeps the most recently used destination file open.
type appender struct {
	open func(name string) (appendFile, error)
	name string
	file appendFile
}

// append writes task.Content at the end of its file. A failed write is
// truncated back to the previous end of file so a retry never leaves a
// partial record behind.
func (a *appender) append(task model.WriteTask) error {
	if a.file == nil || a.name != task.Filename {
		a.close()
		f, err := a.open(task.Filename)
		if err != nil {
			return err
		}
		a.name = task.Filename
		a.file = f
	}

	end, err := a.file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to locate end of file: %w", err)
	}
	if _, err := a.file.WriteString(task.Content); err != nil {
		if terr := a.file.Truncate(end); terr != nil {
			return fmt.Errorf("failed to append: %w (rollback to %d bytes failed: %w)", err, end, terr)
		}
		return fmt.Errorf("failed to append: %w", err)
	}
	return nil
}

func (a *appender) close() {
	if a.file != nil {
		_ = a.file.Close()
	}
	a.file = nil
	a.name = ""
}
