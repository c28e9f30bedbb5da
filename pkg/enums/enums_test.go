package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderStatusNew, OrderStatusConfirmed, true},
		{OrderStatusNew, OrderStatusCancelled, true},
		{OrderStatusNew, OrderStatusShipped, false},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusCompleted, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusNew, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.ok, got)
		}
	}

	if !OrderStatusCompleted.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("completed and cancelled must be terminal")
	}
	if OrderStatusNew.IsTerminal() {
		t.Fatal("new must not be terminal")
	}
}

func TestParseOrderStatus(t *testing.T) {
	if got, err := ParseOrderStatus("shipped"); err != nil || got != OrderStatusShipped {
		t.Fatalf("expected shipped, got %q (%v)", got, err)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestParseQuizDefaults(t *testing.T) {
	if got, err := ParseQuizThickness(""); err != nil || got != QuizThicknessAny {
		t.Fatalf("expected empty thickness to default to any, got %q (%v)", got, err)
	}
	if got, err := ParseQuizFinish(""); err != nil || got != QuizFinishAny {
		t.Fatalf("expected empty finish to default to any, got %q (%v)", got, err)
	}
	if _, err := ParseQuizUsage(""); err == nil {
		t.Fatal("usage is mandatory")
	}
	if _, err := ParseQuizMoisture("soaked"); err == nil {
		t.Fatal("expected unknown moisture to fail")
	}
	if _, err := ParseDeliveryMethod("drone"); err == nil {
		t.Fatal("expected unknown delivery method to fail")
	}
}
