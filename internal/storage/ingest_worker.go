package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tracehub/internal/models"
	"tracehub/internal/queue"
	"tracehub/internal/utils"
)

// EventStore is the write surface the ingest worker drains batches into.
// Implemented by EventWriter over the trace/observation/score repositories.
type EventStore interface {
	InsertTraces(ctx context.Context, traces []*models.Trace) error
	InsertObservations(ctx context.Context, observations []*models.Observation) error
	InsertScores(ctx context.Context, scores []*models.Score) error
}

// EventWriter implements EventStore on top of the repositories.
type EventWriter struct {
	traces       *TraceRepository
	observations *ObservationRepository
	scores       *ScoreRepository
}

// NewEventWriter creates an event writer over the given database handle
func NewEventWriter(db *DB) *EventWriter {
	return &EventWriter{
		traces:       NewTraceRepository(db),
		observations: NewObservationRepository(db),
		scores:       NewScoreRepository(db),
	}
}

func (w *EventWriter) InsertTraces(ctx context.Context, traces []*models.Trace) error {
	return w.traces.CreateBatch(ctx, traces)
}

func (w *EventWriter) InsertObservations(ctx context.Context, observations []*models.Observation) error {
	return w.observations.CreateBatch(ctx, observations)
}

func (w *EventWriter) InsertScores(ctx context.Context, scores []*models.Score) error {
	return w.scores.CreateBatch(ctx, scores)
}

// IngestWorker drains the ingest queue and writes event batches to the
// store, retrying failed batches and parking poison items in the DLQ.
type IngestWorker struct {
	queue       queue.Queue
	dlq         queue.DeadLetterQueue
	store       EventStore
	config      *queue.Config
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewIngestWorker creates a new ingest worker
func NewIngestWorker(q queue.Queue, dlq queue.DeadLetterQueue, store EventStore, config *queue.Config) *IngestWorker {
	if config == nil {
		config = queue.DefaultConfig("events")
	}

	return &IngestWorker{
		queue:       q,
		dlq:         dlq,
		store:       store,
		config:      config,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start starts the worker goroutine
func (w *IngestWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *IngestWorker) Stop() error {
	close(w.stopChan)
	<-w.stoppedChan
	return nil
}

// Enqueue adds an event to the queue
func (w *IngestWorker) Enqueue(ctx context.Context, event *models.Event) error {
	return w.queue.Enqueue(ctx, event)
}

// run is the main worker loop
func (w *IngestWorker) run(ctx context.Context) {
	defer close(w.stoppedChan)

	logger := utils.NewLogger("ingest-worker")

	for {
		select {
		case <-w.stopChan:
			logger.Info("Ingest worker stopping")
			return
		case <-ctx.Done():
			logger.Info("Ingest worker context cancelled")
			return
		default:
			w.processBatch(ctx, logger)
		}
	}
}

// processBatch drains one batch from the queue and writes it
func (w *IngestWorker) processBatch(ctx context.Context, logger *utils.Logger) {
	items, err := w.queue.DequeueWithTimeout(ctx, w.config.BatchSize, w.config.BatchTimeout)
	if err != nil {
		logger.Error("Failed to dequeue events", "error", err)
		time.Sleep(1 * time.Second) // Back off on error
		return
	}

	if len(items) == 0 {
		return
	}

	logger.Debug("Processing event batch", "count", len(items))

	events := make([]*models.Event, 0, len(items))
	for _, item := range items {
		var event models.Event
		if err := w.unmarshalItem(item, &event); err != nil {
			logger.Error("Failed to unmarshal event", "error", err)
			continue
		}
		if err := event.Validate(); err != nil {
			logger.Error("Dropping malformed event", "error", err)
			continue
		}
		events = append(events, &event)
	}

	if len(events) == 0 {
		return
	}

	if err := w.insertBatch(ctx, events); err != nil {
		logger.Error("Failed to insert batch, retrying events individually", "error", err)
		for _, event := range events {
			if err := w.processEvent(ctx, event, logger); err != nil {
				logger.Error("Failed to process event", "type", event.Type, "error", err)
			}
		}
		return
	}

	logger.Debug("Inserted batch successfully", "count", len(events))
}

// insertBatch writes a batch of events grouped by type
func (w *IngestWorker) insertBatch(ctx context.Context, events []*models.Event) error {
	var (
		traces       []*models.Trace
		observations []*models.Observation
		scores       []*models.Score
	)

	for _, event := range events {
		switch event.Type {
		case models.EventTrace:
			traces = append(traces, event.Trace)
		case models.EventObservation:
			observations = append(observations, event.Observation)
		case models.EventScore:
			scores = append(scores, event.Score)
		}
	}

	if err := w.store.InsertTraces(ctx, traces); err != nil {
		return fmt.Errorf("failed to insert traces: %w", err)
	}
	if err := w.store.InsertObservations(ctx, observations); err != nil {
		return fmt.Errorf("failed to insert observations: %w", err)
	}
	if err := w.store.InsertScores(ctx, scores); err != nil {
		return fmt.Errorf("failed to insert scores: %w", err)
	}

	return nil
}

// processEvent writes a single event with retries, parking it in the DLQ
// when retries are exhausted
func (w *IngestWorker) processEvent(ctx context.Context, event *models.Event, logger *utils.Logger) error {
	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := w.config.RetryBackoff * time.Duration(1<<uint(attempt-1))
			logger.Debug("Retrying event", "attempt", attempt, "backoff", backoff)
			time.Sleep(backoff)
		}

		if err := w.insertBatch(ctx, []*models.Event{event}); err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	if w.dlq != nil {
		if err := w.dlq.Add(ctx, event, lastErr); err != nil {
			logger.Error("Failed to add to dead letter queue", "error", err)
		} else {
			logger.Warn("Event moved to DLQ", "type", event.Type, "error", lastErr)
		}
	}

	return fmt.Errorf("%w: %v", queue.ErrMaxRetriesExceeded, lastErr)
}

// unmarshalItem converts a queue item into an Event
func (w *IngestWorker) unmarshalItem(item interface{}, event *models.Event) error {
	switch v := item.(type) {
	case *models.Event:
		*event = *v
		return nil
	case models.Event:
		*event = v
		return nil
	case []byte:
		return json.Unmarshal(v, event)
	case json.RawMessage:
		return json.Unmarshal(v, event)
	default:
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}
		return json.Unmarshal(data, event)
	}
}

// QueueLength returns the current queue length
func (w *IngestWorker) QueueLength(ctx context.Context) (int, error) {
	return w.queue.Length(ctx)
}

// DeadLetterItems returns items from the dead letter queue
func (w *IngestWorker) DeadLetterItems(ctx context.Context, maxItems int) ([]queue.DeadLetterItem, error) {
	if w.dlq == nil {
		return nil, fmt.Errorf("dead letter queue not configured")
	}
	return w.dlq.List(ctx, maxItems)
}

// RetryDeadLetterItem re-enqueues a failed item from the dead letter queue
func (w *IngestWorker) RetryDeadLetterItem(ctx context.Context, id string) error {
	if w.dlq == nil {
		return fmt.Errorf("dead letter queue not configured")
	}

	items, err := w.dlq.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list dead letter items: %w", err)
	}

	for _, dlItem := range items {
		if dlItem.ID == id {
			if err := w.queue.Enqueue(ctx, dlItem.Item); err != nil {
				return fmt.Errorf("failed to re-enqueue item: %w", err)
			}

			if err := w.dlq.Remove(ctx, id); err != nil {
				return fmt.Errorf("failed to remove from DLQ: %w", err)
			}

			return nil
		}
	}

	return queue.ErrItemNotFound
}
