package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/order"
)

// --- Mock implementations ---

type mockPublisher struct {
	publishFn func(ctx context.Context, exchange, key string, msg amqp.Publishing) error
}

func (m *mockPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.publishFn(ctx, exchange, key, msg)
}

func testTicket() Ticket {
	return Ticket{
		ID:          uuid.New(),
		OrderID:     uuid.New(),
		TableLabel:  "T12",
		Destination: enum.DestinationBar,
		Wave:        enum.ItemStatusPending,
		Lines:       []Line{{ItemID: uuid.New(), Name: "Negroni", Quantity: 2}},
		CreatedAt:   time.Now(),
	}
}

func TestAMQPPrinter_PublishesPersistentJSON(t *testing.T) {
	var gotExchange, gotKey string
	var gotMsg amqp.Publishing
	pub := &mockPublisher{
		publishFn: func(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
			gotExchange, gotKey, gotMsg = exchange, key, msg
			return nil
		},
	}
	p := NewAMQPPrinter(pub, "print_topic", time.Second)
	tk := testTicket()

	if err := p.Print(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotExchange != "print_topic" {
		t.Errorf("expected exchange print_topic, got %s", gotExchange)
	}
	if gotKey != "print.bar" {
		t.Errorf("expected routing key print.bar, got %s", gotKey)
	}
	if gotMsg.DeliveryMode != amqp.Persistent || gotMsg.ContentType != "application/json" {
		t.Errorf("unexpected publishing: mode %d type %s", gotMsg.DeliveryMode, gotMsg.ContentType)
	}
	if gotMsg.MessageId != tk.ID.String() {
		t.Errorf("expected message id %s, got %s", tk.ID, gotMsg.MessageId)
	}

	var decoded Ticket
	if err := json.Unmarshal(gotMsg.Body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.TableLabel != "T12" || len(decoded.Lines) != 1 || decoded.Lines[0].Name != "Negroni" {
		t.Errorf("unexpected body: %+v", decoded)
	}
}

func TestAMQPPrinter_TimeoutIsAnError(t *testing.T) {
	pub := &mockPublisher{
		publishFn: func(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	p := NewAMQPPrinter(pub, "print_topic", 20*time.Millisecond)

	start := time.Now()
	err := p.Print(context.Background(), testTicket())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("publish timeout was not applied")
	}
}

func TestNewTicket(t *testing.T) {
	o := order.New(uuid.New(), uuid.New(), time.Now())
	o.Covers = 4
	it, _ := o.Add(order.NewLine{
		MenuItemID: uuid.New(),
		Name:       "Burrata",
		Routing:    enum.DestinationKitchen,
		UnitPrice:  decimal.RequireFromString("11"),
		Quantity:   1,
		Notes:      "no basil",
	}, time.Now())
	plan, err := o.Fire(time.Now())
	if err != nil {
		t.Fatalf("fire: %v", err)
	}

	tk := NewTicket(o, "T3", plan.Tickets[0], time.Now())
	if tk.OrderID != o.ID || tk.TableLabel != "T3" || tk.Covers != 4 {
		t.Errorf("unexpected header: %+v", tk)
	}
	if tk.Destination != enum.DestinationKitchen || tk.Wave != enum.ItemStatusPending {
		t.Errorf("unexpected routing: %s %s", tk.Destination, tk.Wave)
	}
	if len(tk.Lines) != 1 || tk.Lines[0].ItemID != it.ID || tk.Lines[0].Notes != "no basil" {
		t.Errorf("unexpected lines: %+v", tk.Lines)
	}
}
