package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	domproduct "github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	dompurchase "github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	domsession "github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const useCaseSelectProduct = "purchase.select"

type SelectProductInput struct {
	ProductID int64
}

type SelectProductResult struct {
	SessionID string
	Product   domproduct.Summary
	Inserted  int64
}

// SelectProductUseCase opens a purchase session for an in-stock product.
type SelectProductUseCase struct {
	inventory dompurchase.Inventory
	sessions  domsession.Registry
	in        instruments
}

func NewSelectProductUseCase(inventory dompurchase.Inventory, sessions domsession.Registry, tel observability.Observability) *SelectProductUseCase {
	return &SelectProductUseCase{
		inventory: inventory,
		sessions:  sessions,
		in:        newInstruments(tel),
	}
}

func (uc *SelectProductUseCase) Execute(ctx context.Context, cmd SelectProductInput) (_ *SelectProductResult, err error) {
	logger := logctx.FromOr(ctx, uc.in.log).With(
		observability.F("use_case", useCaseSelectProduct),
		observability.F("product_id", cmd.ProductID),
	)
	ctx, span := uc.in.tracer.Start(ctx, spanPrefix+"SelectProduct",
		attribute.String("use_case", useCaseSelectProduct),
		attribute.Int64("product.id", cmd.ProductID),
	)
	start := time.Now()
	var sessionID string

	defer func() {
		fields := []observability.Field{}
		if sessionID != "" {
			fields = append(fields, observability.F("session_id", sessionID))
		}
		uc.in.finish(ctx, span, logger, useCaseSelectProduct, start, err, fields...)
	}()

	p, err := uc.inventory.GetProduct(ctx, cmd.ProductID)
	switch {
	case errors.Is(err, domproduct.ErrNotFound):
		return nil, fmt.Errorf("%w: product %d does not exist", domproduct.ErrUnavailable, cmd.ProductID)
	case err != nil:
		return nil, wrapRepositoryError(err)
	case !p.InStock():
		return nil, fmt.Errorf("%w: product %d is sold out", domproduct.ErrUnavailable, cmd.ProductID)
	}

	s, err := uc.sessions.Create(ctx, p.ID, p.Price)
	if err != nil {
		return nil, fmt.Errorf("purchase: create session: %w", err)
	}
	sessionID = s.ID

	span.AddEvent("session.created",
		trace.WithAttributes(
			attribute.String("session.id", s.ID),
			attribute.Int64("session.price", s.Price),
		),
	)

	return &SelectProductResult{
		SessionID: s.ID,
		Product:   p.Summary(),
		Inserted:  s.Paid,
	}, nil
}
