package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/enum"
)

const defaultPublishTimeout = 5 * time.Second

// Publisher is the subset of *amqp.Channel used to send tickets.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPrinter publishes tickets to a topic exchange with routing key
// print.<destination>. Printer agents consume one queue per destination.
type AMQPPrinter struct {
	pub      Publisher
	exchange string
	timeout  time.Duration
}

// NewAMQPPrinter creates a new AMQPPrinter.
func NewAMQPPrinter(pub Publisher, exchange string, timeout time.Duration) *AMQPPrinter {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &AMQPPrinter{pub: pub, exchange: exchange, timeout: timeout}
}

// RoutingKey returns the routing key for a destination.
func RoutingKey(destination string) string {
	return "print." + destination
}

func (p *AMQPPrinter) Print(ctx context.Context, t Ticket) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.pub.PublishWithContext(ctx,
		p.exchange,                 // exchange
		RoutingKey(t.Destination), // routing key
		false,                      // mandatory
		false,                      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    t.ID.String(),
			Timestamp:    t.CreatedAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish ticket to %s: %w", t.Destination, err)
	}

	log.WithFields(log.Fields{
		"order_id":    t.OrderID,
		"destination": t.Destination,
		"wave":        t.Wave,
	}).Debug("ticket published")
	return nil
}

// Broker owns the AMQP connection and channel used by AMQPPrinter.
type Broker struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

// ConnectBroker dials RabbitMQ and declares the print exchange plus one
// durable queue per destination.
func ConnectBroker(url, exchange string) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	for _, dest := range []string{enum.DestinationKitchen, enum.DestinationBar} {
		queue := "print_" + dest
		if _, err := channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		); err != nil {
			conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := channel.QueueBind(
			queue,            // queue name
			RoutingKey(dest), // routing key
			exchange,         // exchange
			false,            // no-wait
			nil,              // arguments
		); err != nil {
			conn.Close()
			return nil, fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	log.WithField("exchange", exchange).Info("connected to rabbitmq")
	return &Broker{Conn: conn, Channel: channel}, nil
}

// Close releases the channel and connection.
func (b *Broker) Close() {
	if b.Channel != nil {
		b.Channel.Close()
	}
	if b.Conn != nil {
		b.Conn.Close()
	}
}
