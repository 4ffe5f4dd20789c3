package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mutation is a change recorded by a terminal while offline and replayed
// against the server later. LocalID makes replay idempotent.
//
// For add_item, ClientItemID names the line being created. For every other
// kind it addresses the target line when the server id is not known yet.
// RecordedBy is the staff member who made the change on the terminal.
type Mutation struct {
	LocalID      uuid.UUID       `json:"local_id"`
	Kind         string          `json:"kind"`
	TableID      uuid.UUID       `json:"table_id"`
	OrderID      uuid.UUID       `json:"order_id"`
	ItemID       uuid.UUID       `json:"item_id"`
	ClientItemID uuid.UUID       `json:"client_item_id"`
	RecordedBy   uuid.UUID       `json:"recorded_by"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AddItemPayload accompanies add_item.
type AddItemPayload struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
	Notes      string    `json:"notes"`
	Status     string    `json:"status,omitempty"`
}

// AdjustQuantityPayload accompanies adjust_quantity.
type AdjustQuantityPayload struct {
	Delta int32 `json:"delta"`
}

// SetNotesPayload accompanies set_notes.
type SetNotesPayload struct {
	Notes string `json:"notes"`
}

// OfferPayload accompanies offer.
type OfferPayload struct {
	Quantity int32  `json:"quantity"`
	Reason   string `json:"reason"`
}

// CancelOfferPayload accompanies cancel_offer. The complimentary line is
// addressed either by server id or by the local id of the offer mutation
// that created it.
type CancelOfferPayload struct {
	ComplimentaryID       uuid.UUID `json:"complimentary_id"`
	ComplimentaryClientID uuid.UUID `json:"complimentary_client_id"`
}

// SupplementPayload accompanies add_supplement.
type SupplementPayload struct {
	Name                string          `json:"name"`
	Amount              decimal.Decimal `json:"amount"`
	Notes               string          `json:"notes"`
	Complimentary       bool            `json:"complimentary"`
	ComplimentaryReason string          `json:"complimentary_reason"`
}

// PaymentPayload accompanies record_payment.
type PaymentPayload struct {
	Amount         decimal.Decimal     `json:"amount"`
	Method         string              `json:"method"`
	Tip            decimal.Decimal     `json:"tip"`
	Mode           string              `json:"mode"`
	Parts          int32               `json:"parts"`
	ItemQuantities map[uuid.UUID]int32 `json:"item_quantities,omitempty"`
}

// NewMutation builds a mutation with a fresh local id and an encoded payload.
func NewMutation(kind string, payload any) (Mutation, error) {
	m := Mutation{LocalID: uuid.New(), Kind: kind, CreatedAt: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Mutation{}, err
		}
		m.Payload = raw
	}
	return m, nil
}

// DecodePayload unmarshals the payload into v.
func (m Mutation) DecodePayload(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
