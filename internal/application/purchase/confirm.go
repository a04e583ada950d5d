package purchase

import (
	"context"
	"errors"
	"time"

	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	domproduct "github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	dompurchase "github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	domsession "github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const useCaseConfirmPurchase = "purchase.confirm"

type ConfirmPurchaseInput struct {
	SessionID string
}

type ConfirmPurchaseResult struct {
	SessionID      string
	TransactionID  int64
	Product        domproduct.Summary
	Paid           int64
	Price          int64
	Change         int64
	ChangeDetail   []till.ChangeItem
	RemainingStock int
}

// ConfirmPurchaseUseCase dispenses the selected product and pays out change.
type ConfirmPurchaseUseCase struct {
	inventory dompurchase.Inventory
	sessions  domsession.Registry
	publisher domoutbox.Publisher
	in        instruments
}

func NewConfirmPurchaseUseCase(
	inventory dompurchase.Inventory,
	sessions domsession.Registry,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *ConfirmPurchaseUseCase {
	return &ConfirmPurchaseUseCase{
		inventory: inventory,
		sessions:  sessions,
		publisher: publisher,
		in:        newInstruments(tel),
	}
}

// Execute checks, in order: session exists, not yet confirmed, product in
// stock, enough money inserted, and change available. A failed attempt leaves
// the session open and the inventory untouched.
func (uc *ConfirmPurchaseUseCase) Execute(ctx context.Context, cmd ConfirmPurchaseInput) (_ *ConfirmPurchaseResult, err error) {
	logger := logctx.FromOr(ctx, uc.in.log).With(
		observability.F("use_case", useCaseConfirmPurchase),
		observability.F("session_id", cmd.SessionID),
	)
	ctx, span := uc.in.tracer.Start(ctx, spanPrefix+"ConfirmPurchase",
		attribute.String("use_case", useCaseConfirmPurchase),
		attribute.String("session.id", cmd.SessionID),
	)
	start := time.Now()
	var (
		sale       dompurchase.Sale
		receipt    *dompurchase.Receipt
		publishErr error
	)

	defer func() {
		fields := []observability.Field{}
		if sale.ProductID != 0 {
			fields = append(fields,
				observability.F("product_id", sale.ProductID),
				observability.F("paid", sale.Paid),
				observability.F("price", sale.Price),
			)
		}
		if receipt != nil {
			fields = append(fields,
				observability.F("transaction_id", receipt.Transaction.ID),
				observability.F("change", receipt.Transaction.ChangeAmount),
				observability.F("remaining_stock", receipt.RemainingStock),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		uc.in.finish(ctx, span, logger, useCaseConfirmPurchase, start, err, fields...)
	}()

	s, err := uc.sessions.Mutate(ctx, cmd.SessionID, func(s *domsession.Session) error {
		if s.Confirmed {
			return domsession.ErrAlreadyConfirmed
		}

		p, err := uc.inventory.GetProduct(ctx, s.ProductID)
		switch {
		case errors.Is(err, domproduct.ErrNotFound):
			return domproduct.ErrOutOfStock
		case err != nil:
			return wrapRepositoryError(err)
		case !p.InStock():
			return domproduct.ErrOutOfStock
		}

		if err := s.CheckPayable(); err != nil {
			return err
		}

		sale = dompurchase.Sale{
			SessionID: s.ID,
			ProductID: s.ProductID,
			Paid:      s.Paid,
			Price:     s.Price,
		}
		r, err := uc.inventory.Dispense(ctx, sale)
		if err != nil {
			return wrapRepositoryError(err)
		}
		receipt = r
		return s.Confirm()
	})
	if err != nil {
		if errors.Is(err, till.ErrInsufficientChange) {
			publishErr = uc.in.publish(ctx, uc.publisher, dompurchase.NewChangeShortageEvent(sale))
		}
		return nil, err
	}

	span.AddEvent("purchase.confirmed",
		trace.WithAttributes(
			attribute.Int64("transaction.id", receipt.Transaction.ID),
			attribute.Int64("purchase.change", receipt.Transaction.ChangeAmount),
		),
	)
	publishErr = uc.in.publish(ctx, uc.publisher, dompurchase.NewPurchaseConfirmedEvent(s.ID, receipt, s.Paid))

	return &ConfirmPurchaseResult{
		SessionID:      s.ID,
		TransactionID:  receipt.Transaction.ID,
		Product:        receipt.Product,
		Paid:           s.Paid,
		Price:          s.Price,
		Change:         receipt.Transaction.ChangeAmount,
		ChangeDetail:   receipt.Change,
		RemainingStock: receipt.RemainingStock,
	}, nil
}
