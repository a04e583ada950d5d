package monitor

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	dompurchase "github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	workerService = "stock_monitor"
	spanPrefix    = "Worker."

	AlertProductStock   = "product_stock"
	AlertChangeStock    = "change_stock"
	AlertChangeShortage = "change_shortage"
)

// Thresholds are inclusive: a count at or below the value raises an alert.
type Thresholds struct {
	ProductStock int
	ChangeStock  int
}

// Worker watches completed and failed purchases and warns the operator when
// a slot or a change tube is running low.
type Worker struct {
	subscriber domoutbox.Subscriber
	tracer     observability.Tracer
	thresholds Thresholds

	log          observability.Logger
	alerts       observability.Counter   // stock_alerts_total{kind}
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func New(subscriber domoutbox.Subscriber, tel observability.Observability, thresholds Thresholds) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Worker{
		subscriber:   subscriber,
		tracer:       tel.Tracer(),
		thresholds:   thresholds,
		log:          tel.Logger().With(observability.F("service", workerService)),
		alerts:       m.Counter(observability.MStockAlerts),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(dompurchase.PurchaseConfirmedEvent{}.EventName(), w.handlePurchaseConfirmed)
	w.subscriber.Subscribe(dompurchase.ChangeShortageEvent{}.EventName(), w.handleChangeShortage)
}

func (w *Worker) handlePurchaseConfirmed(ctx context.Context, e domoutbox.Event) error {
	const useCase = "monitor.purchase_confirmed"
	evt, ok := e.(dompurchase.PurchaseConfirmedEvent)
	if !ok {
		w.count(useCase, "ignored")
		return nil
	}

	ctx, span := w.tracer.Start(ctx, spanPrefix+"PurchaseConfirmed",
		attribute.String("use_case", useCase),
		attribute.Int64("product.id", evt.ProductID),
	)
	start := time.Now()
	_, logger := logctx.Enrich(ctx, w.log,
		observability.F("use_case", useCase),
		observability.F("product_id", evt.ProductID),
	)
	raised := 0

	defer func() {
		w.observe(useCase, "success", time.Since(start).Seconds())
		span.SetAttributes(attribute.Int("alerts", raised))
		span.SetStatus(codes.Ok, "OK")
		span.End()
	}()

	if evt.RemainingStock <= w.thresholds.ProductStock {
		raised++
		w.alerts.Add(1, observability.L("kind", AlertProductStock))
		logger.Warn("low_product_stock",
			observability.F("remaining_stock", evt.RemainingStock),
			observability.F("threshold", w.thresholds.ProductStock),
		)
	}
	for _, s := range evt.Till {
		if s.Quantity > w.thresholds.ChangeStock {
			continue
		}
		raised++
		w.alerts.Add(1, observability.L("kind", AlertChangeStock))
		logger.Warn("low_change_stock",
			observability.F("denom", int64(s.Denom)),
			observability.F("quantity", s.Quantity),
			observability.F("threshold", w.thresholds.ChangeStock),
		)
	}
	return nil
}

func (w *Worker) handleChangeShortage(ctx context.Context, e domoutbox.Event) error {
	const useCase = "monitor.change_shortage"
	evt, ok := e.(dompurchase.ChangeShortageEvent)
	if !ok {
		w.count(useCase, "ignored")
		return nil
	}

	start := time.Now()
	w.alerts.Add(1, observability.L("kind", AlertChangeShortage))
	logctx.FromOr(ctx, w.log).Warn("change_shortage",
		observability.F("use_case", useCase),
		observability.F("session_id", evt.SessionID),
		observability.F("product_id", evt.ProductID),
		observability.F("change", evt.Change),
	)
	w.observe(useCase, "success", time.Since(start).Seconds())
	return nil
}

func (w *Worker) count(useCase, outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}

func (w *Worker) observe(useCase string, outcome string, latencySeconds float64) {
	w.count(useCase, outcome)
	w.durHistogram.Observe(latencySeconds,
		observability.L("use_case", useCase),
	)
}
