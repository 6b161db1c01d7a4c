package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-notify-nosql/internal/config"
	"github.com/segmentio/kafka-go"
)

const (
	maxAttempts    = 3
	retryBackoff   = time.Second
	deadLetterKind = "kafka-message"
)

// Reader is the subset of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Handler interface {
	Handle(ctx context.Context, value []byte) error
}

type DeadLetter interface {
	ArchiveRaw(ctx context.Context, kind string, data []byte) error
}

type Consumer struct {
	reader     Reader
	handler    Handler
	deadLetter DeadLetter
	backoff    time.Duration
}

func NewReader(cfg config.Kafka) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
}

// NewConsumer wires a reader to a handler. deadLetter may be nil, in which
// case unprocessable messages are logged and skipped.
func NewConsumer(reader Reader, handler Handler, deadLetter DeadLetter) *Consumer {
	return &Consumer{reader: reader, handler: handler, deadLetter: deadLetter, backoff: retryBackoff}
}

// Run consumes until ctx is cancelled. Every fetched message is committed
// once it has been handled, retried out or dead-lettered.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("kafka fetch failed", "err", err)
			if !sleep(ctx, c.backoff) {
				return nil
			}
			continue
		}

		c.process(ctx, m)

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			slog.Error("kafka commit failed", "topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, m kafka.Message) {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = c.handler.Handle(ctx, m.Value)
		if err == nil || errors.Is(err, ErrFatal) {
			break
		}
		slog.Warn("kafka message failed", "offset", m.Offset, "attempt", attempt, "err", err)
		if attempt < maxAttempts && !sleep(ctx, c.backoff) {
			return
		}
	}
	if err == nil {
		return
	}
	slog.Error("kafka message dead-lettered", "topic", m.Topic, "offset", m.Offset, "err", err)
	if c.deadLetter == nil {
		return
	}
	if err := c.deadLetter.ArchiveRaw(ctx, deadLetterKind, m.Value); err != nil {
		slog.Error("archive kafka message failed", "offset", m.Offset, "err", err)
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
