// Package queue buffers ingested events between the HTTP ingest surface and
// the database writer, with two interchangeable backends:
//
//  1. Memory queue (channel-based): no persistence, no external dependencies.
//     Suitable for single-instance and development deployments.
//  2. Redis queue (list-based): survives restarts and supports multiple
//     writer instances draining the same queue.
//
// Both backends feed a batch worker that drains up to BatchSize items per
// cycle, retries failed writes with exponential backoff, and parks items
// that keep failing in a dead-letter queue for operator inspection.
package queue

import (
	"context"
	"time"
)

// Queue defines the interface for event buffering
type Queue interface {
	// Enqueue adds an item to the queue
	Enqueue(ctx context.Context, item interface{}) error

	// Dequeue retrieves items from the queue (up to maxItems)
	// Blocks until at least one item is available or context is cancelled
	Dequeue(ctx context.Context, maxItems int) ([]interface{}, error)

	// DequeueWithTimeout retrieves items with a timeout
	// Returns items if available before timeout, empty slice otherwise
	DequeueWithTimeout(ctx context.Context, maxItems int, timeout time.Duration) ([]interface{}, error)

	// Length returns the current queue length
	Length(ctx context.Context) (int, error)

	// Close shuts down the queue gracefully
	Close() error
}

// DeadLetterQueue defines the interface for handling failed items
type DeadLetterQueue interface {
	// Add adds a failed item to the dead letter queue with error info
	Add(ctx context.Context, item interface{}, err error) error

	// List retrieves items from the dead letter queue
	List(ctx context.Context, maxItems int) ([]DeadLetterItem, error)

	// Remove removes an item from the dead letter queue
	Remove(ctx context.Context, id string) error

	// Close shuts down the dead letter queue
	Close() error
}

// DeadLetterItem represents an item in the dead letter queue
type DeadLetterItem struct {
	ID        string
	Item      interface{}
	Error     string
	Timestamp time.Time
	Retries   int
}

// Config holds queue configuration
type Config struct {
	// BatchSize is the maximum number of items to process in a batch
	BatchSize int

	// BatchTimeout is how long to wait before processing a partial batch
	BatchTimeout time.Duration

	// MaxRetries is the maximum number of retry attempts
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries
	RetryBackoff time.Duration

	// UseRedis indicates whether to use Redis or in-memory queue
	UseRedis bool

	// RedisAddr is the Redis server address (if UseRedis is true)
	RedisAddr string

	// RedisPassword is the Redis password (if UseRedis is true)
	RedisPassword string

	// RedisDB is the Redis database number (if UseRedis is true)
	RedisDB int

	// QueueName is the name/key for the queue
	QueueName string
}

// DefaultConfig returns default queue configuration
func DefaultConfig(queueName string) *Config {
	return &Config{
		BatchSize:    100,
		BatchTimeout: 5 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 1 * time.Second,
		UseRedis:     false,
		QueueName:    queueName,
	}
}

// New builds a queue and matching dead-letter queue from config.
func New(config *Config) (Queue, DeadLetterQueue, error) {
	if config.UseRedis {
		q, err := NewRedisQueue(config)
		if err != nil {
			return nil, nil, err
		}
		dlq, err := NewRedisDeadLetterQueue(config)
		if err != nil {
			q.Close()
			return nil, nil, err
		}
		return q, dlq, nil
	}
	return NewMemoryQueue(config), NewMemoryDeadLetterQueue(), nil
}
