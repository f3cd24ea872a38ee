package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the gateway uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Command is the record published for a downstream sender.
type Command struct {
	ID        string    `json:"id"`
	Message   Message   `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// KafkaGateway hands pushes to a broker topic. Records are keyed by token so
// pushes for one device stay ordered within a partition.
type KafkaGateway struct {
	writer messageWriter
}

// NewKafkaGateway returns a gateway writing to topic on brokers.
func NewKafkaGateway(brokers []string, topic string) (*KafkaGateway, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka gateway requires at least one broker")
	}
	if topic == "" {
		return nil, errors.New("kafka gateway requires a topic")
	}
	return &KafkaGateway{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
	}, nil
}

// Send publishes msg and returns the command id once the broker acked it.
func (g *KafkaGateway) Send(ctx context.Context, msg Message) (string, error) {
	if msg.Token == "" {
		return "", &GatewayError{Code: CodeInvalidArgument, Description: "empty token"}
	}
	cmd := Command{ID: uuid.NewString(), Message: msg, CreatedAt: time.Now().UTC()}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return "", &GatewayError{Code: CodeInternal, Description: fmt.Sprintf("marshal push command: %v", err)}
	}
	err = g.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.Token),
		Value:   payload,
		Time:    cmd.CreatedAt,
		Headers: []kafka.Header{{Key: "message-id", Value: []byte(cmd.ID)}},
	})
	if err != nil {
		return "", &GatewayError{Code: CodeUnavailable, Description: err.Error()}
	}
	return cmd.ID, nil
}

// Close flushes and closes the writer.
func (g *KafkaGateway) Close() error { return g.writer.Close() }
