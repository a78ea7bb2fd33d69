package payment

import (
	"errors"
	"testing"

	domainErrors "github.com/cassiomorais/storefront/internal/domain/errors"
)

func TestMarkCompleted(t *testing.T) {
	p := NewPayment(1, 100_00, "card")
	if p.Status != StatusPending {
		t.Fatalf("expected pending, got %s", p.Status)
	}

	if err := p.MarkCompleted(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", p.Status)
	}
	if p.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestMarkCompleted_Twice(t *testing.T) {
	p := NewPayment(1, 100_00, "card")
	if err := p.MarkCompleted(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := p.MarkCompleted()
	if !errors.Is(err, domainErrors.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestMarkFailed_AfterCompleted(t *testing.T) {
	p := NewPayment(1, 100_00, "pix")
	if err := p.MarkCompleted(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := p.MarkFailed()
	if !errors.Is(err, domainErrors.ErrInvalidStateTransition) {
		t.Errorf("expected ErrInvalidStateTransition, got %v", err)
	}
}
