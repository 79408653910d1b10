// Package archive ships audit log entries to long-term object storage as
// JSONL batches. The database stays the system of record; the archive is a
// best-effort export for retention and offline analysis.
package archive

import (
	"context"
	"sync"
	"time"

	"tracehub/internal/models"
	"tracehub/internal/utils"
)

// Sink receives audit entries after they have been written to the database.
type Sink interface {
	Enqueue(entry *models.AuditLogEntry) error

	// Shutdown flushes buffered entries and stops the sink.
	Shutdown(ctx context.Context) error
}

// NoopSink discards entries. Used when archiving is disabled.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (s *NoopSink) Enqueue(entry *models.AuditLogEntry) error {
	return nil
}

func (s *NoopSink) Shutdown(ctx context.Context) error {
	return nil
}

// Writer persists one batch of entries. Implemented by S3Writer.
type Writer interface {
	WriteBatch(ctx context.Context, entries []*models.AuditLogEntry) (string, error)
}

// BufferedSinkConfig controls batching behavior
type BufferedSinkConfig struct {
	// BufferSize is the in-memory queue capacity; Enqueue drops entries when
	// the buffer is full rather than blocking the request path.
	BufferSize int

	// FlushSize triggers a flush once this many entries are buffered
	FlushSize int

	// FlushInterval triggers a flush after this much time regardless of size
	FlushInterval time.Duration
}

// DefaultBufferedSinkConfig returns default sink configuration
func DefaultBufferedSinkConfig() BufferedSinkConfig {
	return BufferedSinkConfig{
		BufferSize:    10000,
		FlushSize:     500,
		FlushInterval: 30 * time.Second,
	}
}

// BufferedSink buffers entries in memory and flushes them to a Writer in
// batches, off the request path.
type BufferedSink struct {
	writer Writer
	config BufferedSinkConfig
	logger *utils.Logger

	entries chan *models.AuditLogEntry

	mu     sync.Mutex
	closed bool

	stoppedChan chan struct{}
	cancel      context.CancelFunc
}

// NewBufferedSink creates a buffered sink and starts its flush loop
func NewBufferedSink(writer Writer, config BufferedSinkConfig) *BufferedSink {
	ctx, cancel := context.WithCancel(context.Background())

	s := &BufferedSink{
		writer:      writer,
		config:      config,
		logger:      utils.NewLogger("archive-sink"),
		entries:     make(chan *models.AuditLogEntry, config.BufferSize),
		stoppedChan: make(chan struct{}),
		cancel:      cancel,
	}

	go s.run(ctx)
	return s
}

// Enqueue buffers an entry for archiving. Never blocks; entries are dropped
// with a warning when the buffer is full.
func (s *BufferedSink) Enqueue(entry *models.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	select {
	case s.entries <- entry:
	default:
		s.logger.Warn("Archive buffer full, dropping entry", "entry_id", entry.ID)
	}
	return nil
}

// Shutdown flushes remaining entries and stops the flush loop
func (s *BufferedSink) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()

	select {
	case <-s.stoppedChan:
	case <-ctx.Done():
		return ctx.Err()
	}

	// Final drain of whatever is still buffered
	batch := s.drain(len(s.entries))
	if len(batch) > 0 {
		if _, err := s.writer.WriteBatch(ctx, batch); err != nil {
			return err
		}
	}

	return nil
}

// run flushes on size or interval until cancelled
func (s *BufferedSink) run(ctx context.Context) {
	defer close(s.stoppedChan)

	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	var pending []*models.AuditLogEntry

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if _, err := s.writer.WriteBatch(context.Background(), pending); err != nil {
			s.logger.Error("Failed to flush archive batch", "count", len(pending), "error", err)
		}
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case entry := <-s.entries:
			pending = append(pending, entry)
			if len(pending) >= s.config.FlushSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// drain pops up to n buffered entries without blocking
func (s *BufferedSink) drain(n int) []*models.AuditLogEntry {
	var batch []*models.AuditLogEntry
	for i := 0; i < n; i++ {
		select {
		case entry := <-s.entries:
			batch = append(batch, entry)
		default:
			return batch
		}
	}
	return batch
}
