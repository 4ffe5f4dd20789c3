package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/order"
	"github.com/tableside-pos/api/internal/ws"
)

func TestRecord_EqualSplitClosesOrder(t *testing.T) {
	h := newHarness(t)
	menu := h.menuItem("Menu du jour", "10.00", enum.DestinationKitchen)
	tableID, orderID, _ := h.openWith(t, menu, 3)

	wantRemaining := []string{"20", "10", "0"}
	for i, want := range wantRemaining {
		parts := int32(3 - i)
		q, err := h.payments.Quote(context.Background(), orderID, order.SplitRequest{Mode: enum.SplitModeEqual, Parts: parts})
		if err != nil {
			t.Fatalf("quote %d: %v", i, err)
		}
		if !q.Amount.Equal(dec("10")) {
			t.Fatalf("quote %d: expected 10.00, got %s", i, q.Amount)
		}

		res, err := h.payments.Record(context.Background(), orderID, PaymentRequest{
			Amount: q.Amount,
			Method: enum.PaymentMethodCash,
			Mode:   enum.SplitModeEqual,
			Parts:  parts,
			By:     h.staff,
		})
		if err != nil {
			t.Fatalf("payment %d: %v", i, err)
		}
		if !res.Remaining.Equal(dec(want)) {
			t.Errorf("payment %d: expected remaining %s, got %s", i, want, res.Remaining)
		}
		if res.Closed != (i == 2) {
			t.Errorf("payment %d: unexpected closed=%v", i, res.Closed)
		}
	}

	st := h.db.snapshot()
	if st.orders[orderID].Status != enum.OrderStatusClosed || !st.orders[orderID].ClosedAt.Valid {
		t.Errorf("expected closed order, got %+v", st.orders[orderID])
	}
	if st.tables[tableID].Status != enum.TableStatusAvailable {
		t.Error("expected table freed")
	}
	if len(st.sales) != 1 || st.sales[0].PaymentMethod.String != enum.PaymentMethodCash {
		t.Fatalf("expected one cash sale, got %+v", st.sales)
	}
	if len(st.payments) != 3 {
		t.Errorf("expected 3 payments, got %d", len(st.payments))
	}

	events := h.bus.all()
	if last := events[len(events)-1]; last.Type != ws.EventOrderClosed {
		t.Errorf("expected order.closed, got %s", last.Type)
	}

	if _, err := h.payments.Record(context.Background(), orderID, PaymentRequest{Amount: dec("1"), Method: enum.PaymentMethodCash}); !errors.Is(err, order.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on closed order, got: %v", err)
	}
}

func TestRecord_EqualSplitRemainderGoesToLastPayer(t *testing.T) {
	h := newHarness(t)
	menu := h.menuItem("Tasting", "100.00", enum.DestinationKitchen)
	_, orderID, _ := h.openWith(t, menu, 1)

	var amounts []string
	for i := 0; i < 3; i++ {
		res, err := h.payments.Record(context.Background(), orderID, PaymentRequest{
			Method: enum.PaymentMethodCard,
			Mode:   enum.SplitModeEqual,
			Parts:  int32(3 - i),
		})
		if err != nil {
			t.Fatalf("payment %d: %v", i, err)
		}
		amounts = append(amounts, res.Payment.Amount.StringFixed(2))
	}
	want := []string{"33.33", "33.33", "33.34"}
	for i := range want {
		if amounts[i] != want[i] {
			t.Errorf("payment %d: expected %s, got %s", i, want[i], amounts[i])
		}
	}
}

func TestRecord_CustomAboveBalanceClosesOrder(t *testing.T) {
	h := newHarness(t)
	menu := h.menuItem("Menu", "10.00", enum.DestinationKitchen)
	tableID, orderID, _ := h.openWith(t, menu, 3)

	res, err := h.payments.Record(context.Background(), orderID, PaymentRequest{
		Amount: dec("35"),
		Method: enum.PaymentMethodCash,
		Mode:   enum.SplitModeCustom,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Closed || !res.Remaining.IsZero() {
		t.Errorf("expected closed order with nothing due, got closed=%v remaining=%s", res.Closed, res.Remaining)
	}
	if !res.PaidTotal.Equal(dec("35")) {
		t.Errorf("expected 35 paid, got %s", res.PaidTotal)
	}

	st := h.db.snapshot()
	if len(st.payments) != 1 {
		t.Errorf("expected 1 payment, got %d", len(st.payments))
	}
	if st.tables[tableID].Status != enum.TableStatusAvailable {
		t.Error("expected table freed")
	}
}

func TestQuote_EqualSplitDividesCurrentBalance(t *testing.T) {
	h := newHarness(t)
	menu := h.menuItem("Menu", "10.00", enum.DestinationKitchen)
	_, orderID, _ := h.openWith(t, menu, 3)

	if _, err := h.payments.Record(context.Background(), orderID, PaymentRequest{
		Method: enum.PaymentMethodCard,
		Mode:   enum.SplitModeEqual,
		Parts:  3,
	}); err != nil {
		t.Fatalf("first share: %v", err)
	}

	q, err := h.payments.Quote(context.Background(), orderID, order.SplitRequest{Mode: enum.SplitModeEqual, Parts: 3})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.Amount.StringFixed(2) != "6.66" {
		t.Errorf("expected 6.66, got %s", q.Amount.StringFixed(2))
	}
}

func TestRecord_TipOnlyWithCash(t *testing.T) {
	h := newHarness(t)
	menu := h.menuItem("Menu", "10.00", enum.DestinationKitchen)
	_, orderID, _ := h.openWith(t, menu, 1)

	_, err := h.payments.Record(context.Background(), orderID, PaymentRequest{Amount: dec("5"), Method: enum.PaymentMethodCard, Tip: dec("1")})
	if !errors.Is(err, order.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got: %v", err)
	}

	res, err := h.payments.Record(context.Background(), orderID, PaymentRequest{Amount: dec("5"), Method: enum.PaymentMethodCash, Tip: dec("2")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.PaidTotal.Equal(dec("5")) {
		t.Errorf("tips must not count toward paid total, got %s", res.PaidTotal)
	}

	bal, err := h.payments.Balance(context.Background(), orderID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal.TipTotal.Equal(dec("2")) || !bal.Remaining.Equal(dec("5")) {
		t.Errorf("unexpected balance: %+v", bal)
	}
}

func TestRecord_ItemsModeTracksPaidQuantity(t *testing.T) {
	h := newHarness(t)
	pizza := h.menuItem("Pizza", "9.00", enum.DestinationKitchen)
	_, orderID, itemID := h.openWith(t, pizza, 3)

	res, err := h.payments.Record(context.Background(), orderID, PaymentRequest{
		Method:         enum.PaymentMethodCard,
		Mode:           enum.SplitModeItems,
		ItemQuantities: map[uuid.UUID]int32{itemID: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Payment.Amount.Equal(dec("18")) || len(res.Payment.Items) != 1 {
		t.Errorf("unexpected payment: %+v", res.Payment)
	}
	if got := findItem(t, res.Order, itemID).PaidQuantity; got != 2 {
		t.Errorf("expected paid quantity 2, got %d", got)
	}

	_, err = h.payments.Quote(context.Background(), orderID, order.SplitRequest{
		Mode:           enum.SplitModeItems,
		ItemQuantities: map[uuid.UUID]int32{itemID: 2},
	})
	if !errors.Is(err, order.ErrOverPayment) {
		t.Fatalf("expected ErrOverPayment, got: %v", err)
	}

	payments, err := h.payments.List(context.Background(), orderID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(payments) != 1 || payments[0].Items[0].Quantity != 2 {
		t.Errorf("unexpected payments: %+v", payments)
	}
}

func TestQuote_NotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.payments.Quote(context.Background(), uuid.New(), order.SplitRequest{Mode: enum.SplitModeFull})
	if !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}
