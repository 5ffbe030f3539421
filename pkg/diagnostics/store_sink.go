package diagnostics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const storeSinkLogPrefix = "diagnostics:store_sink"

// DefaultBufferSize bounds the number of records waiting to be written.
const DefaultBufferSize = 256

// Store persists diagnostic records.
type Store interface {
	InsertDiagnostic(ctx context.Context, rec Record) error
}

// StoreSink writes records to a Store from a background goroutine. When the buffer
// is full the record is dropped and counted instead of blocking the caller.
type StoreSink struct {
	store   Store
	timeout time.Duration
	records chan Record

	mu      sync.Mutex
	closed  bool
	dropped int

	done chan struct{}
}

// NewStoreSink starts the writer goroutine. Call Close to flush and stop it.
func NewStoreSink(store Store, bufferSize int, writeTimeout time.Duration) *StoreSink {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	s := &StoreSink{
		store:   store,
		timeout: writeTimeout,
		records: make(chan Record, bufferSize),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Log queues err for persistence.
func (s *StoreSink) Log(err error) {
	if err == nil {
		return
	}
	rec := NewRecord(err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.records <- rec:
	default:
		s.dropped++
		slog.Warn(fmt.Sprintf("%s - buffer full, dropped %s record (total dropped %d)", storeSinkLogPrefix, rec.Kind, s.dropped))
	}
}

// Dropped returns how many records were discarded because the buffer was full.
func (s *StoreSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops accepting records and waits until the queued ones are written or ctx ends.
func (s *StoreSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.records)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s - close: %w", storeSinkLogPrefix, ctx.Err())
	}
}

func (s *StoreSink) run() {
	defer close(s.done)
	for rec := range s.records {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := s.store.InsertDiagnostic(ctx, rec); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to persist %s record %s: %v", storeSinkLogPrefix, rec.Kind, rec.ID, err))
		}
		cancel()
	}
}
