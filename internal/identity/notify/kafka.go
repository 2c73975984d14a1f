package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aussiebroadwan/identity/pkg/retry"
)

type KafkaConfig struct {
	Brokers      []string      `env:"BROKERS" envSeparator:","`
	Topic        string        `env:"TOPIC" envDefault:"identity.mail"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

// MailEvent is the record published for the mail service to deliver.
type MailEvent struct {
	Type       Kind      `json:"type"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Link       string    `json:"link,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// MessageWriter is the part of *kafka.Writer the mailer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMailer publishes mail as MailEvent records keyed by recipient.
type KafkaMailer struct {
	sender
	w       MessageWriter
	timeout time.Duration
	now     func() time.Time
}

func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func NewKafkaMailer(w MessageWriter, subjects Subjects, timeout time.Duration) *KafkaMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	m := &KafkaMailer{w: w, timeout: timeout, now: time.Now}
	m.sender = sender{subjects: subjects, send: m.publish}
	return m
}

func (m *KafkaMailer) publish(ctx context.Context, msg Message) error {
	ev := MailEvent{
		Type:       msg.Kind,
		To:         msg.To,
		Subject:    msg.Subject,
		Body:       msg.Body,
		Link:       msg.Link,
		Reason:     msg.Reason,
		OccurredAt: m.now().UTC(),
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err = m.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
		Time:  ev.OccurredAt,
	})
	if err == nil {
		return nil
	}

	err = fmt.Errorf("notify: kafka publish: %w", err)
	var kerr kafka.Error
	if errors.As(err, &kerr) && !kerr.Temporary() {
		return err
	}
	return retry.Transient(err)
}

func (m *KafkaMailer) Close() error { return m.w.Close() }
