package order

import "testing"

func TestComputeTotal(t *testing.T) {
	o := &Order{
		Items: []*Item{
			{Quantity: 2, PriceCents: 10_00},
			{Quantity: 1, PriceCents: 5_50},
		},
	}
	if got := o.ComputeTotal(); got != 25_50 {
		t.Errorf("expected total 2550, got %d", got)
	}
}

func TestComputeTotal_Empty(t *testing.T) {
	o := &Order{}
	if got := o.ComputeTotal(); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
