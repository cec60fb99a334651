package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/dukerupert/kidbank/internal/ledger"
	"github.com/dukerupert/kidbank/internal/model"
)

// EventVerifier checks a Stripe webhook signature.
type EventVerifier interface {
	ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// FundingSettler resolves pending funding by reference.
type FundingSettler interface {
	SettleFunding(ctx context.Context, reference string) (*model.Transaction, error)
	CancelFunding(ctx context.Context, reference string) (*model.Transaction, error)
}

type WebhookHandler struct {
	verifier EventVerifier
	funding  FundingSettler
	logger   *slog.Logger
}

func NewWebhookHandler(v EventVerifier, f FundingSettler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: v, funding: f, logger: logger}
}

// HandleStripe settles or cancels the pending funding named by a checkout
// session. Unknown references are acknowledged so Stripe stops retrying;
// infrastructure failures answer 500 so it retries.
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := h.verifier.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature rejected", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		err = h.withSession(event, func(sess stripe.CheckoutSession) error {
			if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
				h.logger.Info("checkout awaiting payment", "session_id", sess.ID, "payment_status", sess.PaymentStatus)
				return nil
			}
			_, err := h.funding.SettleFunding(r.Context(), sess.ID)
			return err
		})
	case stripe.EventTypeCheckoutSessionExpired, stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		err = h.withSession(event, func(sess stripe.CheckoutSession) error {
			_, err := h.funding.CancelFunding(r.Context(), sess.ID)
			return err
		})
	}

	switch ledger.KindOf(err) {
	case "":
		if err != nil {
			h.logger.Error("webhook: settle funding", "event", event.Type, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	default:
		h.logger.Warn("webhook: funding not applied", "event", event.Type, "error", err)
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) withSession(event stripe.Event, fn func(stripe.CheckoutSession) error) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("webhook: unmarshal checkout session", "error", err)
		return nil
	}
	if sess.ID == "" {
		h.logger.Warn("webhook: checkout session missing id")
		return nil
	}
	return fn(sess)
}
