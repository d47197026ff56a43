package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"fygaro-bridge/internal/logger"
	"fygaro-bridge/internal/metrics"
	"fygaro-bridge/internal/order"
	"fygaro-bridge/internal/payment"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Orders is the slice of the Order Service the shopper-facing routes use.
type Orders interface {
	CreateOrder(ctx context.Context, items []order.LineItem, customerRef string) (*order.Order, error)
	StatusPageURL(ctx context.Context, reference string) (string, error)
}

type LinkSigner interface {
	PaymentURL(req payment.PaymentRequest) (string, error)
}

type Handler struct {
	orders      Orders
	signer      LinkSigner
	fallbackURL string
	timeout     time.Duration
}

func NewHandler(orders Orders, signer LinkSigner, fallbackURL string, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Handler{
		orders:      orders,
		signer:      signer,
		fallbackURL: fallbackURL,
		timeout:     timeout,
	}
}

// Pay serves GET /pay: create a pending order, sign a pay link for its
// total and redirect the shopper to the hosted checkout.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	req, err := ParsePayRequest(r.URL.Query())
	if err != nil {
		log.Info("Rejected pay request", zap.Error(err))
		h.fail(w, "invalid_request", "invalid request", http.StatusBadRequest)
		return
	}
	log = log.With(zap.String("shape", req.Shape.String()), zap.Int("items", len(req.Items)))

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.orders.CreateOrder(ctx, req.Items, req.CustomerRef)
	if err != nil {
		if errors.Is(err, order.ErrInvalidLineItem) || errors.Is(err, order.ErrInvalidCustomer) {
			log.Info("Order Service rejected line items", zap.Error(err))
			h.fail(w, "invalid_request", "invalid request", http.StatusBadRequest)
			return
		}
		log.Error("Failed to create order", zap.Error(err))
		h.fail(w, "upstream_error", "unable to start payment", http.StatusBadGateway)
		return
	}
	log = log.With(zap.String("reference", o.Reference), zap.String("order_name", o.Name))

	pr, err := payment.NewPaymentRequest(o.TotalAmount, o.Currency, o.Reference)
	if err != nil {
		log.Error("Order Service returned an unpayable order",
			zap.String("amount", o.TotalAmount),
			zap.String("currency", o.Currency),
			zap.Error(err),
		)
		h.fail(w, "upstream_error", "unable to start payment", http.StatusBadGateway)
		return
	}

	link, err := h.signer.PaymentURL(pr)
	if err != nil {
		log.Error("Failed to sign payment link", zap.Error(err))
		h.fail(w, "signer_error", "unable to start payment", http.StatusInternalServerError)
		return
	}

	log.Info("Redirecting to hosted checkout", zap.String("amount", pr.Amount()), zap.String("currency", pr.Currency()))
	metrics.PayLinkResult("issued")
	http.Redirect(w, r, link, http.StatusFound)
}

// Confirm serves GET /confirm, the gateway's return URL. It never shows an
// error page: anything unresolved goes to the store's order history.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("customReference")
	log := logger.FromCtx(r.Context()).With(zap.String("reference", ref))

	if ref == "" {
		log.Info("Confirm called without reference")
		http.Redirect(w, r, h.fallbackURL, http.StatusFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	statusURL, err := h.orders.StatusPageURL(ctx, ref)
	if err != nil {
		log.Warn("Could not resolve order status page", zap.Error(err))
		http.Redirect(w, r, h.fallbackURL, http.StatusFound)
		return
	}
	if u, err := url.Parse(statusURL); err != nil || u.Scheme != "https" || u.Host == "" {
		log.Warn("Order status page is not an absolute https URL", zap.String("url", statusURL))
		http.Redirect(w, r, h.fallbackURL, http.StatusFound)
		return
	}

	http.Redirect(w, r, statusURL, http.StatusFound)
}

func (h *Handler) fail(w http.ResponseWriter, result, msg string, code int) {
	metrics.PayLinkResult(result)
	http.Error(w, msg, code)
}
