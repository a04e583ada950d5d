package purchase

import (
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
)

// PurchaseConfirmedEvent is emitted after a sale has been dispensed.
type PurchaseConfirmedEvent struct {
	SessionID      string
	TransactionID  int64
	ProductID      int64
	Paid           int64
	Change         int64
	RemainingStock int
	Till           []till.Stock
	OccurredAt     time.Time
}

func (PurchaseConfirmedEvent) EventName() string { return "purchase.confirmed" }

func NewPurchaseConfirmedEvent(sessionID string, r *Receipt, paid int64) PurchaseConfirmedEvent {
	return PurchaseConfirmedEvent{
		SessionID:      sessionID,
		TransactionID:  r.Transaction.ID,
		ProductID:      r.Product.ID,
		Paid:           paid,
		Change:         r.Transaction.ChangeAmount,
		RemainingStock: r.RemainingStock,
		Till:           till.Clone(r.Till),
		OccurredAt:     time.Now().UTC(),
	}
}

// ChangeShortageEvent is emitted when a confirm fails because the till cannot pay the change.
type ChangeShortageEvent struct {
	SessionID  string
	ProductID  int64
	Change     int64
	OccurredAt time.Time
}

func (ChangeShortageEvent) EventName() string { return "purchase.change_shortage" }

func NewChangeShortageEvent(sale Sale) ChangeShortageEvent {
	return ChangeShortageEvent{
		SessionID:  sale.SessionID,
		ProductID:  sale.ProductID,
		Change:     sale.Change(),
		OccurredAt: time.Now().UTC(),
	}
}
