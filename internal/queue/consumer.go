package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// ReservationLog appends one structured line per reservation event.
type ReservationLog struct {
	log zerolog.Logger
}

// NewReservationLog writes event lines to w.
func NewReservationLog(w io.Writer) *ReservationLog {
	return &ReservationLog{log: zerolog.New(w).With().Timestamp().Logger()}
}

// OpenReservationLog appends to dir/reservations.log, creating dir if
// needed.  The returned file must be closed by the caller.
func OpenReservationLog(dir string) (*ReservationLog, *os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "reservations.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open reservation log: %w", err)
	}
	return NewReservationLog(f), f, nil
}

// Handle decodes one message body and records it.
func (l *ReservationLog) Handle(body []byte) error {
	var ev ReservationCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ReservationID == 0 {
		return errors.New("event has no reservation id")
	}
	seats := zerolog.Arr()
	for _, t := range ev.Tickets {
		seats.Dict(zerolog.Dict().
			Uint64("performance", t.PerformanceID).
			Int("row", t.Row).
			Int("seat", t.Seat))
	}
	l.log.Info().
		Str("event_id", ev.EventID).
		Uint64("reservation_id", ev.ReservationID).
		Uint64("user_id", ev.UserID).
		Time("created_at", ev.CreatedAt).
		Int("tickets", len(ev.Tickets)).
		Array("seats", seats).
		Msg("reservation created")
	return nil
}

// ConsumeAMQP reads the durable queue until ctx is cancelled, reconnecting
// with exponential backoff whenever the broker goes away.  Messages that
// fail to decode are rejected without requeue.
func ConsumeAMQP(ctx context.Context, url, queue string, handle func([]byte) error) error {
	logger := zerolog.Ctx(ctx)
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn().Err(err).Dur("retry_in", backoff).Msg("reservation consumer: dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queue, handle)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn().Err(err).Msg("reservation consumer: loop ended, reconnecting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, handle func([]byte) error) error {
	logger := zerolog.Ctx(ctx)
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn().Err(err).Msg("reservation consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handle(d.Body); err != nil {
			logger.Error().Err(err).Str("message_id", d.MessageId).Msg("reservation consumer: handle failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// MessageReader is the part of *kafka.Reader used by ConsumeKafka.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaReader joins groupID on topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}

// ConsumeKafka reads messages until ctx is cancelled.  Offsets are
// committed after handling, including for messages that fail to decode,
// so a bad payload is logged once instead of blocking the partition.
func ConsumeKafka(ctx context.Context, r MessageReader, handle func([]byte) error) error {
	logger := zerolog.Ctx(ctx)
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("kafka fetch: %w", err)
		}
		if err := handle(msg.Value); err != nil {
			logger.Error().Err(err).Int("partition", msg.Partition).Int64("offset", msg.Offset).
				Msg("reservation consumer: handle failed")
		}
		if err := r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("kafka commit: %w", err)
		}
	}
}
