package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// OrderCall records a single call to CreateOrder.
type OrderCall struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]interface{}
}

// RefundCall records a single call to Refund.
type RefundCall struct {
	PaymentID string
	Amount    int64
}

// MockGateway is a test double for Gateway.
type MockGateway struct {
	mu          sync.Mutex
	orderCalls  []OrderCall
	refundCalls []RefundCall

	OrderShouldFail  bool
	RefundShouldFail bool
	FailError        string
}

func (m *MockGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderCalls = append(m.orderCalls, OrderCall{Amount: amount, Currency: currency, Receipt: receipt, Notes: notes})
	if m.OrderShouldFail {
		return nil, errors.New(m.FailError)
	}
	return &Order{
		ID:       fmt.Sprintf("order_mock_%d", len(m.orderCalls)),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

func (m *MockGateway) Refund(_ context.Context, paymentID string, amount int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundCalls = append(m.refundCalls, RefundCall{PaymentID: paymentID, Amount: amount})
	if m.RefundShouldFail {
		return "", errors.New(m.FailError)
	}
	return fmt.Sprintf("rfnd_mock_%d", len(m.refundCalls)), nil
}

// OrderCalls returns a copy of recorded order calls.
func (m *MockGateway) OrderCalls() []OrderCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]OrderCall, len(m.orderCalls))
	copy(out, m.orderCalls)
	return out
}

// RefundCalls returns a copy of recorded refund calls.
func (m *MockGateway) RefundCalls() []RefundCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RefundCall, len(m.refundCalls))
	copy(out, m.refundCalls)
	return out
}
