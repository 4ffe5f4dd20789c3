package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusOpen   = "open"
	OrderStatusClosed = "closed"
)

// Item lifecycle. pending, to_follow_1 and to_follow_2 rotate until the
// line is fired; fired and completed are terminal for editing.
const (
	ItemStatusPending   = "pending"
	ItemStatusToFollow1 = "to_follow_1"
	ItemStatusToFollow2 = "to_follow_2"
	ItemStatusFired     = "fired"
	ItemStatusCompleted = "completed"
)

const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
)

// Offline queue entry states (client-local).
const (
	EntryStateQueued       = "queued"
	EntryStateInflight     = "inflight"
	EntryStateAcknowledged = "acknowledged"
	EntryStateFailed       = "failed"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleServer  = "server"
	UserRoleManager = "manager"
)

const (
	PaymentMethodCash  = "cash"
	PaymentMethodCard  = "card"
	PaymentMethodOther = "other"
)

const (
	SplitModeFull   = "full"
	SplitModeEqual  = "equal"
	SplitModeItems  = "items"
	SplitModeCustom = "custom"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	DestinationKitchen = "kitchen"
	DestinationBar     = "bar"
)

// Replay outcomes stored in applied_mutations.
const (
	MutationOutcomeApplied  = "applied"
	MutationOutcomeConflict = "conflict"
)

// Offline mutation kinds.
const (
	MutationAddItem        = "add_item"
	MutationAdjustQuantity = "adjust_quantity"
	MutationAdvance        = "advance"
	MutationSetNotes       = "set_notes"
	MutationFire           = "fire"
	MutationOffer          = "offer"
	MutationCancelOffer    = "cancel_offer"
	MutationAddSupplement  = "add_supplement"
	MutationRecordPayment  = "record_payment"
)

// DefaultComplimentaryReason is used when a line is offered without a reason.
const DefaultComplimentaryReason = "Offered at bill"
