package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/order"
)

// PaymentRequest is the validated input for recording a payment. A zero
// Amount with a full, equal or items Mode charges the amount the split
// calculator computes under the order lock.
type PaymentRequest struct {
	Amount         decimal.Decimal
	Method         string
	Tip            decimal.Decimal
	Mode           string
	Parts          int32
	ItemQuantities map[uuid.UUID]int32
	By             uuid.UUID
}

// PaymentResult is the ledger state after a payment.
type PaymentResult struct {
	Order     OrderSnapshot   `json:"order"`
	Payment   PaymentView     `json:"payment"`
	PaidTotal decimal.Decimal `json:"paid_total"`
	Remaining decimal.Decimal `json:"remaining"`
	Closed    bool            `json:"closed"`
}

// Quote is the amount due for one payment under a split mode.
type Quote struct {
	Mode      string            `json:"mode"`
	Amount    decimal.Decimal   `json:"amount"`
	Remaining decimal.Decimal   `json:"remaining"`
	Items     []PaymentItemView `json:"items,omitempty"`
}

// Balance summarizes what an order owes.
type Balance struct {
	OrderID             uuid.UUID       `json:"order_id"`
	Status              string          `json:"status"`
	Revision            int64           `json:"revision"`
	Total               decimal.Decimal `json:"total"`
	ComplimentaryAmount decimal.Decimal `json:"complimentary_amount"`
	ComplimentaryCount  int             `json:"complimentary_count"`
	PaidTotal           decimal.Decimal `json:"paid_total"`
	TipTotal            decimal.Decimal `json:"tip_total"`
	Remaining           decimal.Decimal `json:"remaining"`
}

// PaymentService handles the settlement side of an order.
type PaymentService struct {
	coord *Coordinator
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(coord *Coordinator) *PaymentService {
	return &PaymentService{coord: coord}
}

// Quote computes the amount due without recording anything.
func (s *PaymentService) Quote(ctx context.Context, orderID uuid.UUID, req order.SplitRequest) (*Quote, error) {
	o, err := s.coord.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	due, err := o.AmountDue(req)
	if err != nil {
		return nil, err
	}
	q := &Quote{Mode: req.Mode, Amount: due.Amount, Remaining: due.Remaining}
	for _, pi := range due.Items {
		q.Items = append(q.Items, PaymentItemView{OrderItemID: pi.OrderItemID, Quantity: pi.Quantity, Amount: pi.Amount})
	}
	return q, nil
}

// Record appends a payment to the ledger. When it covers the remaining
// balance the order is closed, the table freed and the daily sale written,
// all in the same transaction.
func (s *PaymentService) Record(ctx context.Context, orderID uuid.UUID, req PaymentRequest) (*PaymentResult, error) {
	var st order.Settlement
	o, err := s.coord.mutate(ctx, orderID, func(ctx context.Context, t *txn) error {
		in := order.PaymentInput{
			Amount:         req.Amount,
			Method:         req.Method,
			Tip:            req.Tip,
			Mode:           req.Mode,
			Parts:          req.Parts,
			ItemQuantities: req.ItemQuantities,
			RecordedBy:     req.By,
		}
		if req.Amount.IsZero() && req.Mode != "" && req.Mode != enum.SplitModeCustom {
			due, err := t.order.AmountDue(order.SplitRequest{
				Mode:           req.Mode,
				Parts:          req.Parts,
				ItemQuantities: req.ItemQuantities,
			})
			if err != nil {
				return err
			}
			in.Amount = due.Amount
		}

		settlement, err := t.order.RecordPayment(in, t.now)
		if err != nil {
			return err
		}
		st = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &PaymentResult{
		Order:     Snapshot(o),
		Payment:   paymentView(st.Payment),
		PaidTotal: st.PaidTotal,
		Remaining: st.Remaining,
		Closed:    st.Closed,
	}, nil
}

// List returns the payments of an order in recording order.
func (s *PaymentService) List(ctx context.Context, orderID uuid.UUID) ([]PaymentView, error) {
	o, err := s.coord.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	views := make([]PaymentView, 0, len(o.Payments))
	for _, p := range o.Payments {
		views = append(views, paymentView(p))
	}
	return views, nil
}

// Balance reports totals, payments and what is left to pay.
func (s *PaymentService) Balance(ctx context.Context, orderID uuid.UUID) (*Balance, error) {
	o, err := s.coord.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	compAmount, compCount := o.ComplimentaryTotal()
	tips := decimal.Zero
	for _, p := range o.Payments {
		tips = tips.Add(p.Tip)
	}
	return &Balance{
		OrderID:             o.ID,
		Status:              o.Status,
		Revision:            o.Revision,
		Total:               o.Total(),
		ComplimentaryAmount: compAmount,
		ComplimentaryCount:  compCount,
		PaidTotal:           o.PaidTotal(),
		TipTotal:            tips,
		Remaining:           o.RemainingDue(),
	}, nil
}
