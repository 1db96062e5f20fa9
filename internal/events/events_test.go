package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"budgettracker/internal/core"
	"budgettracker/internal/store"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"amqp closed", amqp091.ErrClosed, true},
		{"wrapped amqp closed", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"other error", errors.New("invalid input"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	if client.isCircuitOpen() {
		t.Fatal("circuit breaker should be closed initially")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit breaker should be open after max failures")
	}

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Error("circuit should move to half-open after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Error("state should be StateHalfOpen after timeout")
	}

	client.recordSuccess()
	if atomic.LoadInt32(&client.state) != StateClosed || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Error("success should reset the breaker")
	}
}

func TestClient_PublishRejectedWhenCircuitOpen(t *testing.T) {
	client := &Client{exchangeName: "x", queueName: "q"}
	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()

	err := client.Publish(context.Background(), &ChangeMessage{Kind: store.TransactionCreated, ID: "a"})
	if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Errorf("Publish error = %v, want circuit breaker error", err)
	}
}

func TestClient_PublishRespectsCancelledContext(t *testing.T) {
	client := &Client{exchangeName: "x", queueName: "q"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Publish(ctx, &ChangeMessage{Kind: store.TransactionCreated, ID: "a"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Publish error = %v, want context.Canceled", err)
	}
}

func sampleTx() *core.Transaction {
	return &core.Transaction{
		ID:       "t1",
		Type:     core.Expense,
		Amount:   decimal.RequireFromString("12.50"),
		Date:     "2024-03-05",
		Category: "Food",
	}
}

func TestChangeMessage_JSON(t *testing.T) {
	msg := NewChangeMessage(store.Change{Kind: store.TransactionCreated, ID: "t1", Transaction: sampleTx()})
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Errorf("timestamp should be recent, got %v", msg.Timestamp)
	}

	b, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := ChangeMessageFromJSON(b)
	if err != nil {
		t.Fatalf("ChangeMessageFromJSON: %v", err)
	}
	if got.Kind != store.TransactionCreated || got.ID != "t1" {
		t.Errorf("got %+v", got)
	}
	if got.Transaction == nil || !got.Transaction.Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("transaction = %+v", got.Transaction)
	}
}

func TestChangeMessageFromJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `nope`},
		{"unknown kind", `{"kind":"transaction.updated","id":"a"}`},
		{"missing id", `{"kind":"transaction.deleted"}`},
		{"created without payload", `{"kind":"transaction.created","id":"a"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ChangeMessageFromJSON([]byte(tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

type fakeAck struct {
	acked    int
	nacked   int
	requeued int
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked++; return nil }
func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	if requeue {
		f.requeued++
	}
	return nil
}
func (f *fakeAck) Reject(uint64, bool) error { return nil }

func TestHandleDelivery(t *testing.T) {
	good, _ := NewChangeMessage(store.Change{Kind: store.TransactionDeleted, ID: "t1"}).ToJSON()

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		want       fakeAck
	}{
		{"success acks", good, nil, fakeAck{acked: 1}},
		{"malformed body dropped", []byte(`{`), nil, fakeAck{nacked: 1}},
		{"handler error requeues", good, errors.New("sheets down"), fakeAck{nacked: 1, requeued: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			d := amqp091.Delivery{Acknowledger: ack, Body: tt.body}
			handleDelivery(context.Background(), d, func(context.Context, *ChangeMessage) error {
				return tt.handlerErr
			})
			if *ack != tt.want {
				t.Errorf("ack = %+v, want %+v", *ack, tt.want)
			}
		})
	}
}

type recordingPublisher struct {
	msgs []*ChangeMessage
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, m *ChangeMessage) error {
	r.msgs = append(r.msgs, m)
	return r.err
}

func TestPublisher_OnChange(t *testing.T) {
	out := &recordingPublisher{}
	p := NewPublisher(out, nil)
	p.OnChange(context.Background(), store.Change{Kind: store.BudgetRemoved, ID: "b1"})
	if len(out.msgs) != 1 || out.msgs[0].Kind != store.BudgetRemoved || out.msgs[0].ID != "b1" {
		t.Errorf("published %+v", out.msgs)
	}

	out.err = errors.New("broker down")
	p.OnChange(context.Background(), store.Change{Kind: store.BudgetSet, ID: "b2"})
	if len(out.msgs) != 2 {
		t.Errorf("publish should still be attempted")
	}
}
