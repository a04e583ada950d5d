package purchase

import (
	"context"
	"time"

	dompurchase "github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	domsession "github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseInsertMoney = "purchase.insert_money"

type InsertMoneyInput struct {
	SessionID string
	Denom     till.Denomination
}

type InsertMoneyResult struct {
	Inserted int64
	Price    int64
	Status   domsession.PaymentStatus
	State    domsession.State
}

// InsertMoneyUseCase credits one coin or banknote to a session and to the till.
type InsertMoneyUseCase struct {
	inventory dompurchase.Inventory
	sessions  domsession.Registry
	in        instruments
}

func NewInsertMoneyUseCase(inventory dompurchase.Inventory, sessions domsession.Registry, tel observability.Observability) *InsertMoneyUseCase {
	return &InsertMoneyUseCase{
		inventory: inventory,
		sessions:  sessions,
		in:        newInstruments(tel),
	}
}

func (uc *InsertMoneyUseCase) Execute(ctx context.Context, cmd InsertMoneyInput) (_ *InsertMoneyResult, err error) {
	logger := logctx.FromOr(ctx, uc.in.log).With(
		observability.F("use_case", useCaseInsertMoney),
		observability.F("session_id", cmd.SessionID),
		observability.F("denom", int64(cmd.Denom)),
	)
	ctx, span := uc.in.tracer.Start(ctx, spanPrefix+"InsertMoney",
		attribute.String("use_case", useCaseInsertMoney),
		attribute.String("session.id", cmd.SessionID),
		attribute.Int64("money.denom", int64(cmd.Denom)),
	)
	start := time.Now()
	var inserted int64

	defer func() {
		uc.in.finish(ctx, span, logger, useCaseInsertMoney, start, err,
			observability.F("inserted_amount", inserted),
		)
	}()

	// Till deposit and paid increment happen together under the session lock.
	s, err := uc.sessions.Mutate(ctx, cmd.SessionID, func(s *domsession.Session) error {
		if s.Confirmed {
			return domsession.ErrAlreadyConfirmed
		}
		if !till.IsAccepted(cmd.Denom) {
			return till.ErrInvalidDenomination
		}
		if _, err := uc.inventory.Deposit(ctx, cmd.Denom); err != nil {
			return wrapRepositoryError(err)
		}
		return s.Insert(cmd.Denom)
	})
	if err != nil {
		return nil, err
	}
	inserted = s.Paid

	span.SetAttributes(
		attribute.Int64("session.paid", s.Paid),
		attribute.String("session.state", string(s.State())),
	)

	return &InsertMoneyResult{
		Inserted: s.Paid,
		Price:    s.Price,
		Status:   s.PaymentStatus(),
		State:    s.State(),
	}, nil
}
