package events

import (
	"sync"
	"time"

	"tradepost/internal/logging"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

const defaultSinkQueueSize = 256

var (
	// ErrSinkBacklogged is returned by Handle when the send queue is full.
	ErrSinkBacklogged = errors.New("kafka sink queue is full")
	// ErrSinkClosed is returned by Handle after Close.
	ErrSinkClosed = errors.New("kafka sink is closed")
)

// KafkaSink forwards bus events to a Kafka topic. Handle only enqueues; a
// single worker sends, so publishers never wait on the broker.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan *sarama.ProducerMessage
	done   chan struct{}
}

// NewKafkaSink dials brokers with a synchronous producer.
func NewKafkaSink(brokers []string, topic string, logger *zerolog.Logger) (*KafkaSink, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Timeout = 5 * time.Second
	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return NewKafkaSinkWithProducer(producer, topic, logger), nil
}

// NewKafkaSinkWithProducer wraps an existing producer and starts the send
// worker.
func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string, logger *zerolog.Logger) *KafkaSink {
	return newKafkaSink(producer, topic, logger, defaultSinkQueueSize)
}

func newKafkaSink(producer sarama.SyncProducer, topic string, logger *zerolog.Logger, queueSize int) *KafkaSink {
	s := &KafkaSink{
		producer: producer,
		topic:    topic,
		logger:   logging.Component(logger, "kafka_sink"),
		queue:    make(chan *sarama.ProducerMessage, queueSize),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Attach subscribes the sink to the given event types.
func (s *KafkaSink) Attach(bus *EventBus, eventTypes ...string) {
	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, s.Handle)
	}
}

// Handle queues one event for sending. A full queue drops the event and
// returns ErrSinkBacklogged; send failures are logged by the worker.
func (s *KafkaSink) Handle(event *Event) error {
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Value: sarama.ByteEncoder(event.Payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("event_id"), Value: []byte(event.ID)},
		},
		Timestamp: event.CreatedAt,
	}
	if event.Key != "" {
		msg.Key = sarama.StringEncoder(event.Key)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.Wrapf(ErrSinkClosed, "publish %s", event.Type)
	}
	select {
	case s.queue <- msg:
		return nil
	default:
		s.logger.Warn().Str("topic", s.topic).Str("event_type", event.Type).Str("event_id", event.ID).Msg("kafka sink backlogged, event dropped")
		return errors.Wrapf(ErrSinkBacklogged, "publish %s", event.Type)
	}
}

func (s *KafkaSink) run() {
	defer close(s.done)
	for msg := range s.queue {
		s.send(msg)
	}
}

func (s *KafkaSink) send(msg *sarama.ProducerMessage) {
	eventType := headerValue(msg, "event_type")
	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		s.logger.Error().Err(err).Str("topic", s.topic).Str("event_type", eventType).Msg("failed to publish event")
		return
	}
	s.logger.Debug().
		Str("topic", s.topic).
		Str("event_type", eventType).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("event published")
}

func headerValue(msg *sarama.ProducerMessage, key string) string {
	for _, h := range msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

// Close stops accepting events, sends what is queued and closes the producer.
func (s *KafkaSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return s.producer.Close()
}
