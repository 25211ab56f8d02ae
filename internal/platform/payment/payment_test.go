package payment

import (
	"context"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	const secret = "test-key-secret"

	sig := Sign("order_abc", "pay_xyz", secret)
	if sig == "" {
		t.Fatal("expected non-empty signature")
	}

	if !VerifySignature("order_abc", "pay_xyz", sig, secret) {
		t.Error("expected valid signature to verify")
	}
	if VerifySignature("order_abc", "pay_other", sig, secret) {
		t.Error("signature must not verify for a different payment")
	}
	if VerifySignature("order_other", "pay_xyz", sig, secret) {
		t.Error("signature must not verify for a different order")
	}
	if VerifySignature("order_abc", "pay_xyz", sig, "wrong-secret") {
		t.Error("signature must not verify with a different secret")
	}
	if VerifySignature("order_abc", "pay_xyz", "", secret) {
		t.Error("empty signature must not verify")
	}
}

func TestSign_Deterministic(t *testing.T) {
	a := Sign("order_1", "pay_1", "s")
	b := Sign("order_1", "pay_1", "s")
	if a != b {
		t.Errorf("expected deterministic signatures, got %q and %q", a, b)
	}
	// hex-encoded SHA-256 output
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestMockGateway_CreateOrder(t *testing.T) {
	mock := &MockGateway{}

	order, err := mock.CreateOrder(context.Background(), 50000, "INR", "appointment_1", map[string]interface{}{"doctorId": "d1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID == "" {
		t.Error("expected order id to be assigned")
	}
	if order.Amount != 50000 {
		t.Errorf("expected amount 50000, got %d", order.Amount)
	}

	calls := mock.OrderCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 order call, got %d", len(calls))
	}
	if calls[0].Receipt != "appointment_1" {
		t.Errorf("unexpected receipt %q", calls[0].Receipt)
	}
}

func TestMockGateway_RefundFailure(t *testing.T) {
	mock := &MockGateway{RefundShouldFail: true, FailError: "gateway down"}

	if _, err := mock.Refund(context.Background(), "pay_1", 50000); err == nil {
		t.Fatal("expected refund error")
	}
	if len(mock.RefundCalls()) != 1 {
		t.Error("expected refund call to be recorded")
	}
}
