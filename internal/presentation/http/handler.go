package httppresentation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/application"
	appcatalog "github.com/Zhima-Mochi/vending-machine/internal/application/catalog"
	apppurchase "github.com/Zhima-Mochi/vending-machine/internal/application/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type (
	SelectProduct   = application.UseCase[apppurchase.SelectProductInput, *apppurchase.SelectProductResult]
	InsertMoney     = application.UseCase[apppurchase.InsertMoneyInput, *apppurchase.InsertMoneyResult]
	ConfirmPurchase = application.UseCase[apppurchase.ConfirmPurchaseInput, *apppurchase.ConfirmPurchaseResult]
)

// UseCases groups the purchase flow the handler drives.
type UseCases struct {
	Select  SelectProduct
	Insert  InsertMoney
	Confirm ConfirmPurchase
}

type Handler struct {
	useCases UseCases
	catalog  *appcatalog.Service
	origins  map[string]struct{}

	log          observability.Logger
	reqCounter   observability.Counter   // http_requests_total{method,route,status}
	durHistogram observability.Histogram // http_request_duration_seconds{method,route,status}
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerTenantID       = "X-Tenant-ID"
	tracerName           = "vending.http"
)

func NewHandler(useCases UseCases, catalog *appcatalog.Service, allowedOrigins []string, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	m := tel.Metrics()
	return &Handler{
		useCases:     useCases,
		catalog:      catalog,
		origins:      origins,
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		reqCounter:   m.Counter(observability.MHTTPRequests),
		durHistogram: m.Histogram(observability.MHTTPRequestDuration),
	}
}

// methods maps an HTTP method to the handler serving it on one route.
type methods map[string]http.HandlerFunc

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Trace → ObservabilityMiddleware (request logger) → HTTP metrics → Access log → Handler
	h.muxHandle(mux, "/select-product", methods{http.MethodPost: h.handleSelectProduct})
	h.muxHandle(mux, "/insert-money", methods{http.MethodPost: h.handleInsertMoney})
	h.muxHandle(mux, "/confirm", methods{http.MethodPost: h.handleConfirm})
	h.muxHandle(mux, "/money-stock", methods{http.MethodGet: h.handleMoneyStock})
	h.muxHandle(mux, "/products", methods{
		http.MethodGet:  h.handleListProducts,
		http.MethodPost: h.handleCreateProduct,
	})
	h.muxHandle(mux, "/products/all", methods{http.MethodGet: h.handleListAllProducts})
	h.muxHandle(mux, "/products/{id}", methods{
		http.MethodGet:    h.handleGetProduct,
		http.MethodPut:    h.handleUpdateProduct,
		http.MethodDelete: h.handleDeleteProduct,
	})
	h.muxHandle(mux, "/transactions", methods{http.MethodGet: h.handleTransactions})
	h.muxHandle(mux, "/health", methods{http.MethodGet: h.handleHealth})

	return h.withCORS(mux)
}

func (h *Handler) muxHandle(mux *http.ServeMux, route string, byMethod methods) {
	allowed := make([]string, 0, len(byMethod))
	for m := range byMethod {
		allowed = append(allowed, m)
	}
	slices.Sort(allowed)
	allow := strings.Join(allowed, ", ")

	mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		handler, ok := byMethod[r.Method]
		if !ok {
			w.Header().Set("Allow", allow)
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		// Store stable route template for low-cardinality labels
		ctx := contextWithRoute(r.Context(), r.Method+" "+route)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				logctx.FromOr(ctx, h.log),
				func(r *http.Request) string {
					return r.Header.Get(headerRequestID)
				},
				func(r *http.Request) string {
					return r.Header.Get(headerTenantID)
				},
			)(
				h.withHTTPMetrics(
					h.withAccessLog(handler),
				),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer(tracerName)
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using injected vectors.
// DO NOT new metrics inside the middleware.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routeFromContext(r.Context())),
			observability.L("status", strconv.Itoa(lrw.status)),
		}
		h.reqCounter.Add(1, labels...)
		h.durHistogram.Observe(time.Since(start).Seconds(), labels...)
	})
}

// withCORS answers preflight requests and tags responses for allowed origins.
func (h *Handler) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := h.origins[origin]; !ok || origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Origin", origin)
		hdr.Set("Access-Control-Allow-Credentials", "true")
		hdr.Add("Vary", "Origin")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			hdr.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
				hdr.Set("Access-Control-Allow-Headers", req)
			}
			hdr.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeJSON ignores keys dst does not declare, so clients may send extra fields.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// wholeNumber accepts 10, 10.0 and "10" for integer request fields and
// rejects anything with a fractional part.
type wholeNumber int64

func (n *wholeNumber) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" {
		return nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*n = wholeNumber(v)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return fmt.Errorf("%s is not a whole number", data)
	}
	*n = wholeNumber(f)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
