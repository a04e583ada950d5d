package outbox

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	componentOutbox = "outbox"
	handlerPeer     = "subscriber"
	handlerTimeout  = 30 * time.Second
	queueSize       = 1024
	fanoutCap       = 8
)

var ErrClosed = errors.New("outbox: bus closed")

// Bus is an in-memory event bus. Events are queued on Publish and fanned out to
// subscribers by a single dispatch goroutine. It is not durable.
type Bus struct {
	subMu sync.RWMutex
	subs  map[string][]domoutbox.Handler

	// mu guards closed; Publish holds it shared while sending so Stop never closes a queue mid-send.
	mu     sync.RWMutex
	closed bool

	queue     chan domoutbox.Event
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once

	concurrency int
	log         observability.Logger
	tracer      observability.Tracer
	extCounter  observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extDuration observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewBus(logger observability.Logger, tel observability.Observability) *Bus {
	if tel == nil {
		tel = observability.Nop()
	}
	if logger == nil {
		logger = tel.Logger()
	}
	m := tel.Metrics()
	return &Bus{
		subs:        make(map[string][]domoutbox.Handler),
		queue:       make(chan domoutbox.Event, queueSize),
		done:        make(chan struct{}),
		concurrency: fanoutCap,
		log:         logger.With(observability.F("component", componentOutbox)),
		tracer:      tel.Tracer(),
		extCounter:  m.Counter(observability.MExternalRequests),
		extDuration: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.dispatchLoop(context.WithoutCancel(ctx))
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop refuses new events and waits for queued ones to be delivered, or for ctx to expire.
func (b *Bus) Stop(ctx context.Context) error {
	var err error
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.queue)
		b.mu.Unlock()

		started := true
		b.startOnce.Do(func() { started = false })
		if started {
			select {
			case <-b.done:
			case <-ctx.Done():
				err = ctx.Err()
			}
		}
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped", observability.F("drained", err == nil))
	})
	return err
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	select {
	case b.queue <- e:
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted", observability.F("error", ctx.Err()))
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for e := range b.queue {
		b.fanout(ctx, e)
	}
}

func (b *Bus) fanout(ctx context.Context, e domoutbox.Event) {
	name := e.EventName()

	b.subMu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.subMu.RUnlock()

	logger := b.log.With(observability.F("event", name))
	if len(handlers) == 0 {
		logger.Debug("event_dropped_no_subscriber")
		return
	}

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup
	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			b.deliver(logctx.With(ctx, logger), logger, name, h, e)
		}()
	}
	wg.Wait()

	logger.Debug("event_fanned_out", observability.F("handlers", len(handlers)))
}

func (b *Bus) deliver(ctx context.Context, logger observability.Logger, name string, h domoutbox.Handler, e domoutbox.Event) {
	ctx, span := b.tracer.Start(ctx, "Outbox."+name, attribute.String("event", name))
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	start := time.Now()
	outcome := "success"

	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			logger.Error("event_handler_panic",
				observability.F("panic", fmt.Sprint(r)),
				observability.F("stack", string(debug.Stack())),
			)
		}
		cancel()
		b.extCounter.Add(1,
			observability.L("peer", handlerPeer),
			observability.L("endpoint", name),
			observability.L("outcome", outcome),
		)
		b.extDuration.Observe(time.Since(start).Seconds(),
			observability.L("peer", handlerPeer),
			observability.L("endpoint", name),
		)
		if outcome == "success" {
			span.SetStatus(codes.Ok, "OK")
		} else {
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
	}()

	if err := h(ctx, e); err != nil {
		outcome = "error"
		span.RecordError(err)
		logger.Warn("event_handler_error", observability.F("error", err))
	}
}
