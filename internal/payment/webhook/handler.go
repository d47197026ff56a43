package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fygaro-bridge/internal/deliveries"
	"fygaro-bridge/internal/logger"
	"fygaro-bridge/internal/metrics"
	"fygaro-bridge/internal/order"

	"go.uber.org/zap"
)

const (
	maxBodyBytes    = 1 << 20
	rejectedBody    = "invalid webhook"
	unavailableBody = "temporarily unavailable"
	defaultTimeout  = 15 * time.Second
)

// OrderUpdater is the part of the Order Service a confirmed payment touches.
type OrderUpdater interface {
	RecordTransaction(ctx context.Context, reference string, kind order.TransactionKind, status order.TransactionStatus, amount string) error
	SetFinancialStatus(ctx context.Context, reference string, status order.FinancialStatus) error
}

type Handler struct {
	verifier   *Verifier
	orders     OrderUpdater
	deliveries deliveries.Repository
	timeout    time.Duration
}

func NewWebhookHandler(verifier *Verifier, orders OrderUpdater, repo deliveries.Repository, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Handler{
		verifier:   verifier,
		orders:     orders,
		deliveries: repo,
		timeout:    timeout,
	}
}

// PaymentWebhookHandler serves POST /webhook. Every rejection gets the
// same 400 body; the reason only goes to the log.
func (h *Handler) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	// Read the exact bytes; the digest is over the raw body, never a re-encoding.
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Warn("Failed to read webhook body", zap.Error(err))
		h.reject(w, "unreadable_body")
		return
	}

	res := h.verifier.Verify(Envelope{
		SignatureHeader: r.Header.Get(SignatureHeader),
		KeyID:           r.Header.Get(KeyIDHeader),
		RawBody:         body,
	})
	if !res.Valid {
		log.Warn("Webhook verification failed", zap.String("reason", string(res.Reason)))
		h.reject(w, string(res.Reason))
		return
	}

	n, err := DecodeNotification(res.Body)
	if err != nil {
		log.Warn("Verified webhook has invalid payload", zap.Error(err))
		h.reject(w, "invalid_payload")
		return
	}

	log = log.With(zap.String("reference", n.CustomReference), zap.Int64("signed_at", res.Timestamp))

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key := deliveries.Key(n.CustomReference, res.Timestamp)
	claim, err := h.deliveries.Claim(ctx, key, n.CustomReference)
	if err != nil {
		log.Error("Failed to claim webhook delivery", zap.Error(err))
		metrics.WebhookResult("ledger_error")
		http.Error(w, unavailableBody, http.StatusInternalServerError)
		return
	}
	switch claim {
	case deliveries.AlreadyProcessed:
		log.Info("Duplicate webhook delivery ignored")
		metrics.WebhookResult("duplicate")
		writeOK(w)
		return
	case deliveries.InFlight:
		// Not applied yet; the gateway redelivers and the lease eventually
		// lets a later delivery take over.
		log.Warn("Webhook delivery still in flight")
		metrics.WebhookResult("in_flight")
		http.Error(w, unavailableBody, http.StatusInternalServerError)
		return
	}

	txErr := h.orders.RecordTransaction(ctx, n.CustomReference, order.TransactionSale, order.TransactionSuccess, n.Amount.String())
	if txErr != nil {
		log.Error("Failed to record sale transaction", zap.Error(txErr))
	}
	statusErr := h.orders.SetFinancialStatus(ctx, n.CustomReference, order.FinancialStatusPaid)
	if statusErr != nil {
		log.Error("Failed to mark order paid", zap.Error(statusErr))
	}

	switch {
	case order.IsPermanent(txErr) && order.IsPermanent(statusErr):
		// A redelivery would fail the same way.
		note := fmt.Sprintf("unresolvable reference: %v", statusErr)
		log.Error("Payment for unresolvable order, needs reconciliation", zap.String("note", note))
		h.markProcessed(ctx, log, key, note)
		metrics.WebhookResult("unresolvable")
	case txErr != nil && statusErr != nil:
		// Nothing was applied: forget the claim and let the gateway redeliver.
		if err := h.deliveries.Release(context.WithoutCancel(ctx), key); err != nil {
			log.Error("Failed to release webhook delivery", zap.Error(err))
		}
		metrics.WebhookResult("upstream_failed")
		http.Error(w, unavailableBody, http.StatusInternalServerError)
		return
	case txErr != nil || statusErr != nil:
		// Partial success is not rolled back; a retry would repeat the half
		// that worked. Flag it for reconciliation instead.
		note := partialNote(txErr, statusErr)
		log.Error("Order partially updated, needs reconciliation", zap.String("note", note))
		h.markProcessed(ctx, log, key, note)
		metrics.WebhookResult("partial")
	default:
		log.Info("Order marked paid", zap.String("amount", n.Amount.String()))
		h.markProcessed(ctx, log, key, "")
		metrics.WebhookResult("applied")
	}

	writeOK(w)
}

func (h *Handler) markProcessed(ctx context.Context, log *zap.Logger, key, note string) {
	if err := h.deliveries.MarkProcessed(context.WithoutCancel(ctx), key, note); err != nil && !errors.Is(err, deliveries.ErrUnknownDelivery) {
		log.Error("Failed to mark webhook delivery processed", zap.Error(err))
	}
}

func (h *Handler) reject(w http.ResponseWriter, reason string) {
	metrics.WebhookResult(reason)
	http.Error(w, rejectedBody, http.StatusBadRequest)
}

func partialNote(txErr, statusErr error) string {
	if txErr != nil {
		return fmt.Sprintf("record_transaction failed: %v", txErr)
	}
	return fmt.Sprintf("set_financial_status failed: %v", statusErr)
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
