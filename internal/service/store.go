package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/order"
)

// loadOrder assembles the domain order from its rows.
func loadOrder(ctx context.Context, st Store, row database.Order) (*order.Order, error) {
	o := &order.Order{
		ID:       row.ID,
		TableID:  row.TableID,
		ServerID: row.ServerID,
		Covers:   row.Covers,
		Status:   row.Status,
		Revision: row.Revision,
		OpenedAt: row.OpenedAt.Time,
		ClosedAt: database.TimePtr(row.ClosedAt),
	}

	items, err := st.ListOrderItemsByOrder(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	for _, r := range items {
		o.Items = append(o.Items, itemFromRow(r))
	}

	sups, err := st.ListSupplementsByOrder(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("list supplements: %w", err)
	}
	for _, r := range sups {
		o.Supplements = append(o.Supplements, order.Supplement{
			ID:                  r.ID,
			OrderID:             r.OrderID,
			Name:                r.Name,
			Amount:              database.NumericToDecimal(r.Amount),
			Notes:               r.Notes.String,
			Complimentary:       r.IsComplimentary,
			ComplimentaryReason: r.ComplimentaryReason.String,
			CreatedBy:           r.CreatedBy,
			CreatedAt:           r.CreatedAt.Time,
			SentAt:              database.TimePtr(r.SentAt),
		})
	}

	payments, err := st.ListPaymentsByOrder(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	paymentItems, err := st.ListPaymentItemsByOrder(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("list payment items: %w", err)
	}
	byPayment := make(map[uuid.UUID][]order.PaymentItem)
	for _, pi := range paymentItems {
		byPayment[pi.PaymentID] = append(byPayment[pi.PaymentID], order.PaymentItem{
			OrderItemID: pi.OrderItemID,
			Quantity:    pi.Quantity,
			Amount:      database.NumericToDecimal(pi.Amount),
		})
	}
	for _, p := range payments {
		o.Payments = append(o.Payments, order.Payment{
			ID:         p.ID,
			OrderID:    p.OrderID,
			Amount:     database.NumericToDecimal(p.Amount),
			Method:     p.Method,
			Tip:        database.NumericToDecimal(p.Tip),
			SplitMode:  p.SplitMode,
			SplitParts: p.SplitParts,
			RecordedBy: p.RecordedBy,
			CreatedAt:  p.CreatedAt.Time,
			Items:      byPayment[p.ID],
		})
	}
	return o, nil
}

func itemFromRow(r database.ListOrderItemsByOrderRow) order.Item {
	it := order.Item{
		ID:                  r.ID,
		OrderID:             r.OrderID,
		Name:                r.MenuItemName.String,
		Routing:             r.Routing.String,
		UnitPrice:           database.NumericToDecimal(r.UnitPrice),
		Quantity:            r.Quantity,
		Status:              r.Status,
		Notes:               r.Notes.String,
		Complimentary:       r.IsComplimentary,
		ComplimentaryReason: r.ComplimentaryReason.String,
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt.Time,
		FiredAt:             database.TimePtr(r.FiredAt),
		PrintFailedAt:       database.TimePtr(r.PrintFailedAt),
	}
	if r.MenuItemID.Valid {
		it.MenuItemID = uuid.NullUUID{UUID: r.MenuItemID.Bytes, Valid: true}
	}
	return it
}

// persist writes the order's pending changes and bumps its revision.
func persist(ctx context.Context, st Store, o *order.Order, wasOpen bool) error {
	ch := o.Changes()

	for _, id := range ch.DeletedItems {
		if err := st.DeleteOrderItem(ctx, id); err != nil {
			return fmt.Errorf("delete order item: %w", err)
		}
	}
	for _, it := range ch.InsertedItems {
		menuItemID := pgtype.UUID{}
		if it.MenuItemID.Valid {
			menuItemID = database.UUID(it.MenuItemID.UUID)
		}
		_, err := st.CreateOrderItem(ctx, database.CreateOrderItemParams{
			ID:                  it.ID,
			OrderID:             o.ID,
			MenuItemID:          menuItemID,
			UnitPrice:           database.DecimalToNumeric(it.UnitPrice),
			Quantity:            it.Quantity,
			Status:              it.Status,
			Notes:               database.Text(it.Notes),
			IsComplimentary:     it.Complimentary,
			ComplimentaryReason: database.Text(it.ComplimentaryReason),
			CreatedBy:           it.CreatedBy,
			CreatedAt:           pgtype.Timestamptz{Time: it.CreatedAt, Valid: true},
			FiredAt:             database.Timestamptz(it.FiredAt),
		})
		if err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}
	for _, it := range ch.UpdatedItems {
		_, err := st.UpdateOrderItem(ctx, database.UpdateOrderItemParams{
			ID:                  it.ID,
			Quantity:            it.Quantity,
			Status:              it.Status,
			Notes:               database.Text(it.Notes),
			IsComplimentary:     it.Complimentary,
			ComplimentaryReason: database.Text(it.ComplimentaryReason),
			FiredAt:             database.Timestamptz(it.FiredAt),
			PrintFailedAt:       database.Timestamptz(it.PrintFailedAt),
		})
		if err != nil {
			return fmt.Errorf("update order item: %w", err)
		}
	}

	for _, s := range ch.InsertedSupplements {
		_, err := st.CreateSupplement(ctx, database.CreateSupplementParams{
			ID:                  s.ID,
			OrderID:             o.ID,
			Name:                s.Name,
			Amount:              database.DecimalToNumeric(s.Amount),
			Notes:               database.Text(s.Notes),
			IsComplimentary:     s.Complimentary,
			ComplimentaryReason: database.Text(s.ComplimentaryReason),
			CreatedBy:           s.CreatedBy,
			CreatedAt:           pgtype.Timestamptz{Time: s.CreatedAt, Valid: true},
			SentAt:              database.Timestamptz(s.SentAt),
		})
		if err != nil {
			return fmt.Errorf("create supplement: %w", err)
		}
	}
	for _, s := range ch.UpdatedSupplements {
		_, err := st.UpdateSupplement(ctx, database.UpdateSupplementParams{
			ID:                  s.ID,
			IsComplimentary:     s.Complimentary,
			ComplimentaryReason: database.Text(s.ComplimentaryReason),
			SentAt:              database.Timestamptz(s.SentAt),
		})
		if err != nil {
			return fmt.Errorf("update supplement: %w", err)
		}
	}

	settlingMethod := ""
	for _, p := range ch.InsertedPayments {
		_, err := st.CreatePayment(ctx, database.CreatePaymentParams{
			ID:         p.ID,
			OrderID:    o.ID,
			Amount:     database.DecimalToNumeric(p.Amount),
			Method:     p.Method,
			Tip:        database.DecimalToNumeric(p.Tip),
			SplitMode:  p.SplitMode,
			SplitParts: p.SplitParts,
			RecordedBy: p.RecordedBy,
			CreatedAt:  pgtype.Timestamptz{Time: p.CreatedAt, Valid: true},
		})
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		for _, pi := range p.Items {
			_, err := st.CreatePaymentItem(ctx, database.CreatePaymentItemParams{
				PaymentID:   p.ID,
				OrderItemID: pi.OrderItemID,
				Quantity:    pi.Quantity,
				Amount:      database.DecimalToNumeric(pi.Amount),
			})
			if err != nil {
				return fmt.Errorf("create payment item: %w", err)
			}
		}
		settlingMethod = p.Method
	}

	if wasOpen && !o.IsOpen() {
		if err := settle(ctx, st, o, settlingMethod); err != nil {
			return err
		}
	}

	row, err := st.UpdateOrder(ctx, database.UpdateOrderParams{
		ID:       o.ID,
		TableID:  o.TableID,
		Covers:   o.Covers,
		Status:   o.Status,
		Revision: o.Revision + 1,
		ClosedAt: database.Timestamptz(o.ClosedAt),
	})
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	o.Revision = row.Revision
	o.ResetChanges()
	return nil
}

// settle frees the table and writes the daily sale row of a closing order.
func settle(ctx context.Context, st Store, o *order.Order, method string) error {
	if err := freeTable(ctx, st, o.TableID); err != nil {
		return err
	}
	compAmount, compCount := o.ComplimentaryTotal()
	_, err := st.CreateDailySale(ctx, database.CreateDailySaleParams{
		OrderID:             o.ID,
		TableID:             o.TableID,
		ServerID:            o.ServerID,
		SaleDate:            pgtype.Date{Time: o.OpenedAt, Valid: true},
		TotalAmount:         database.DecimalToNumeric(o.Total()),
		ComplimentaryAmount: database.DecimalToNumeric(compAmount),
		ComplimentaryCount:  int32(compCount),
		PaymentMethod:       database.Text(method),
	})
	if err != nil {
		return fmt.Errorf("create daily sale: %w", err)
	}
	return nil
}

func freeTable(ctx context.Context, st Store, tableID uuid.UUID) error {
	err := st.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:     tableID,
		Status: enum.TableStatusAvailable,
	})
	if err != nil {
		return fmt.Errorf("free table: %w", err)
	}
	return nil
}

func occupyTable(ctx context.Context, st Store, tableID, by uuid.UUID) error {
	err := st.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:       tableID,
		Status:   enum.TableStatusOccupied,
		OpenedBy: database.UUID(by),
	})
	if err != nil {
		return fmt.Errorf("occupy table: %w", err)
	}
	return nil
}
