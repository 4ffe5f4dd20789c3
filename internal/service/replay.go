package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/order"
)

// ErrInvalidMutation is returned for a mutation that can never be applied:
// unknown kind, undecodable payload or missing target.
var ErrInvalidMutation = errors.New("invalid mutation")

// ReplayResult is the outcome of one offline mutation.
type ReplayResult struct {
	LocalID   uuid.UUID      `json:"local_id"`
	Outcome   string         `json:"outcome"`
	Duplicate bool           `json:"duplicate"`
	OrderID   *uuid.UUID     `json:"order_id,omitempty"`
	ItemID    *uuid.UUID     `json:"item_id,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	Order     *OrderSnapshot `json:"order,omitempty"`
}

// ReplayService applies mutations queued by terminals while offline. Each
// local id is applied at most once: the applied_mutations row is written in
// the same transaction as the change it records.
type ReplayService struct {
	coord    *Coordinator
	orders   *OrderService
	payments *PaymentService
}

// NewReplayService creates a new ReplayService.
func NewReplayService(coord *Coordinator, orders *OrderService, payments *PaymentService) *ReplayService {
	return &ReplayService{coord: coord, orders: orders, payments: payments}
}

// Apply replays one mutation. Replaying an id that was already handled
// returns the stored outcome and changes nothing. A mutation that conflicts
// with the current order state is recorded as a conflict and reported with
// ErrReplayConflict; transport or database failures are returned as is so
// the terminal retries.
func (s *ReplayService) Apply(ctx context.Context, m order.Mutation, by uuid.UUID) (*ReplayResult, error) {
	if m.LocalID == uuid.Nil {
		return nil, fmt.Errorf("local_id is required: %w", ErrInvalidMutation)
	}
	if m.RecordedBy == uuid.Nil {
		m.RecordedBy = by
	}

	prior, err := s.lookup(ctx, m.LocalID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return s.replayed(prior)
	}

	res, err := s.apply(withReplay(ctx, m), m)
	if err == nil {
		res.LocalID = m.LocalID
		res.Outcome = enum.MutationOutcomeApplied
		return res, nil
	}

	if isUniqueViolation(err, "applied_mutations_pkey") {
		// Another delivery of the same id won the race.
		prior, lookupErr := s.lookup(ctx, m.LocalID)
		if lookupErr != nil || prior == nil {
			return nil, err
		}
		return s.replayed(prior)
	}
	if !isConflict(err) {
		return nil, err
	}

	res = &ReplayResult{LocalID: m.LocalID, Outcome: enum.MutationOutcomeConflict, Detail: err.Error()}
	if m.OrderID != uuid.Nil {
		id := m.OrderID
		res.OrderID = &id
	}
	if recErr := s.recordConflict(ctx, m, err); recErr != nil {
		return nil, recErr
	}
	return res, fmt.Errorf("%s: %w", err.Error(), order.ErrReplayConflict)
}

func (s *ReplayService) replayed(prior *database.AppliedMutation) (*ReplayResult, error) {
	res := &ReplayResult{
		LocalID:   prior.LocalID,
		Outcome:   prior.Outcome,
		Duplicate: true,
		Detail:    prior.Detail.String,
	}
	if prior.OrderID.Valid {
		id := uuid.UUID(prior.OrderID.Bytes)
		res.OrderID = &id
	}
	if prior.ItemID.Valid {
		id := uuid.UUID(prior.ItemID.Bytes)
		res.ItemID = &id
	}
	if prior.Outcome == enum.MutationOutcomeConflict {
		return res, fmt.Errorf("%s: %w", res.Detail, order.ErrReplayConflict)
	}
	return res, nil
}

func (s *ReplayService) apply(ctx context.Context, m order.Mutation) (*ReplayResult, error) {
	if m.Kind == enum.MutationAddItem {
		return s.addItem(ctx, m)
	}

	orderID, err := s.resolveOrder(ctx, m)
	if err != nil {
		return nil, err
	}

	switch m.Kind {
	case enum.MutationAdjustQuantity:
		var p order.AdjustQuantityPayload
		if err := decode(m, &p); err != nil {
			return nil, err
		}
		itemID, err := s.resolveItem(ctx, m)
		if err != nil {
			return nil, err
		}
		return fromItem(s.orders.AdjustQuantity(ctx, orderID, itemID, p.Delta))

	case enum.MutationAdvance:
		itemID, err := s.resolveItem(ctx, m)
		if err != nil {
			return nil, err
		}
		return fromItem(s.orders.Advance(ctx, orderID, itemID))

	case enum.MutationSetNotes:
		var p order.SetNotesPayload
		if err := decode(m, &p); err != nil {
			return nil, err
		}
		itemID, err := s.resolveItem(ctx, m)
		if err != nil {
			return nil, err
		}
		return fromItem(s.orders.SetNotes(ctx, orderID, itemID, p.Notes))

	case enum.MutationOffer:
		var p order.OfferPayload
		if err := decode(m, &p); err != nil {
			return nil, err
		}
		itemID, err := s.resolveItem(ctx, m)
		if err != nil {
			return nil, err
		}
		return fromItem(s.orders.Offer(ctx, orderID, itemID, p.Quantity, p.Reason))

	case enum.MutationCancelOffer:
		var p order.CancelOfferPayload
		if err := decode(m, &p); err != nil {
			return nil, err
		}
		itemID, err := s.resolveItem(ctx, m)
		if err != nil {
			return nil, err
		}
		compID, err := s.resolveOffer(ctx, p)
		if err != nil {
			return nil, err
		}
		return fromItem(s.orders.CancelOffer(ctx, orderID, itemID, compID))

	case enum.MutationFire:
		res, err := s.orders.Fire(ctx, orderID, nil)
		if err != nil {
			return nil, err
		}
		return fromSnapshot(&res.Order), nil

	case enum.MutationAddSupplement:
		var p order.SupplementPayload
		if err := decode(m, &p); err != nil {
			return nil, err
		}
		snap, err := s.orders.AddSupplement(ctx, orderID, order.NewSupplement{
			Name:                p.Name,
			Amount:              p.Amount,
			Notes:               p.Notes,
			Complimentary:       p.Complimentary,
			ComplimentaryReason: p.ComplimentaryReason,
			CreatedBy:           m.RecordedBy,
		})
		if err != nil {
			return nil, err
		}
		return fromSnapshot(snap), nil

	case enum.MutationRecordPayment:
		var p order.PaymentPayload
		if err := decode(m, &p); err != nil {
			return nil, err
		}
		res, err := s.payments.Record(ctx, orderID, PaymentRequest{
			Amount:         p.Amount,
			Method:         p.Method,
			Tip:            p.Tip,
			Mode:           p.Mode,
			Parts:          p.Parts,
			ItemQuantities: p.ItemQuantities,
			By:             m.RecordedBy,
		})
		if err != nil {
			return nil, err
		}
		return fromSnapshot(&res.Order), nil
	}
	return nil, fmt.Errorf("unknown kind %q: %w", m.Kind, ErrInvalidMutation)
}

func (s *ReplayService) addItem(ctx context.Context, m order.Mutation) (*ReplayResult, error) {
	var p order.AddItemPayload
	if err := decode(m, &p); err != nil {
		return nil, err
	}
	if p.Quantity == 0 {
		p.Quantity = 1
	}
	req := AddItemRequest{
		MenuItemID: p.MenuItemID,
		Quantity:   p.Quantity,
		Notes:      p.Notes,
		Status:     p.Status,
		By:         m.RecordedBy,
	}
	switch {
	case m.OrderID != uuid.Nil:
		return fromItem(s.orders.AddItem(ctx, m.OrderID, req))
	case m.TableID != uuid.Nil:
		return fromItem(s.orders.AddToTable(ctx, m.TableID, req))
	}
	return nil, fmt.Errorf("add_item needs order_id or table_id: %w", ErrInvalidMutation)
}

// resolveOrder finds the order a mutation targets: its order id, or the
// open order of its table for orders created while offline.
func (s *ReplayService) resolveOrder(ctx context.Context, m order.Mutation) (uuid.UUID, error) {
	if m.OrderID != uuid.Nil {
		return m.OrderID, nil
	}
	if m.TableID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("order_id or table_id is required: %w", ErrInvalidMutation)
	}
	o, err := s.coord.LoadByTable(ctx, m.TableID)
	if err != nil {
		return uuid.Nil, err
	}
	return o.ID, nil
}

// resolveItem maps the target line to a server id. Lines created offline are
// found through the add_item mutation that created them.
func (s *ReplayService) resolveItem(ctx context.Context, m order.Mutation) (uuid.UUID, error) {
	if m.ItemID != uuid.Nil {
		return m.ItemID, nil
	}
	if m.ClientItemID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("item_id or client_item_id is required: %w", ErrInvalidMutation)
	}
	var itemID uuid.UUID
	err := s.coord.read(ctx, func(ctx context.Context, st Store) error {
		id, err := st.ResolveClientItem(ctx, database.UUID(m.ClientItemID))
		if err != nil {
			if isNoRows(err) {
				return fmt.Errorf("client item %s: %w", m.ClientItemID, order.ErrNotFound)
			}
			return fmt.Errorf("resolve client item: %w", err)
		}
		itemID = id.Bytes
		return nil
	})
	return itemID, err
}

// resolveOffer maps the complimentary line of a cancel_offer, addressed by
// server id or by the local id of the offer that created it.
func (s *ReplayService) resolveOffer(ctx context.Context, p order.CancelOfferPayload) (uuid.UUID, error) {
	if p.ComplimentaryID != uuid.Nil {
		return p.ComplimentaryID, nil
	}
	if p.ComplimentaryClientID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("complimentary line is required: %w", ErrInvalidMutation)
	}
	offer, err := s.lookup(ctx, p.ComplimentaryClientID)
	if err != nil {
		return uuid.Nil, err
	}
	if offer == nil || offer.Outcome != enum.MutationOutcomeApplied || !offer.ItemID.Valid {
		return uuid.Nil, fmt.Errorf("offer %s: %w", p.ComplimentaryClientID, order.ErrNotFound)
	}
	return offer.ItemID.Bytes, nil
}

func (s *ReplayService) lookup(ctx context.Context, localID uuid.UUID) (*database.AppliedMutation, error) {
	var prior *database.AppliedMutation
	err := s.coord.read(ctx, func(ctx context.Context, st Store) error {
		row, err := st.GetAppliedMutation(ctx, localID)
		if err != nil {
			if isNoRows(err) {
				return nil
			}
			return fmt.Errorf("get applied mutation: %w", err)
		}
		prior = &row
		return nil
	})
	return prior, err
}

func (s *ReplayService) recordConflict(ctx context.Context, m order.Mutation, cause error) error {
	tx, err := s.coord.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = s.coord.newStore(tx).CreateAppliedMutation(ctx, database.CreateAppliedMutationParams{
		LocalID: m.LocalID,
		Kind:    m.Kind,
		OrderID: database.UUID(m.OrderID),
		ItemID:  database.UUID(m.ItemID),
		Outcome: enum.MutationOutcomeConflict,
		Detail:  database.Text(cause.Error()),
	})
	if err != nil {
		if isUniqueViolation(err, "applied_mutations_pkey") {
			return nil
		}
		return fmt.Errorf("record conflict: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- Helpers ---

func isConflict(err error) bool {
	for _, target := range []error{
		order.ErrNotFound,
		order.ErrInvalidTransition,
		order.ErrInvalidQuantity,
		order.ErrOverPayment,
		order.ErrInvalidAmount,
		order.ErrNothingToSend,
		ErrInvalidMutation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func decode(m order.Mutation, v any) error {
	if err := m.DecodePayload(v); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", m.Kind, err, ErrInvalidMutation)
	}
	return nil
}

func fromItem(res *ItemResult, err error) (*ReplayResult, error) {
	if err != nil {
		return nil, err
	}
	out := fromSnapshot(&res.Order)
	out.ItemID = res.ItemID
	return out, nil
}

func fromSnapshot(snap *OrderSnapshot) *ReplayResult {
	id := snap.ID
	return &ReplayResult{OrderID: &id, Order: snap}
}
