// Package payment funds shared wallets through Stripe Checkout. A checkout
// session ID becomes the funding reference on the ledger, and the webhook
// settles or cancels it.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v82"
	checksession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/dukerupert/kidbank/internal/model"
)

var (
	ErrNotConfigured = errors.New("stripe is not configured")
	ErrInvalidAmount = errors.New("invalid checkout amount")
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyUSD)
	}
	stripe.Key = cfg.SecretKey
	return &Client{cfg: cfg}
}

func (c *Client) Configured() bool {
	return c.cfg.SecretKey != "" && c.cfg.WebhookSecret != ""
}

// Checkout is a created checkout session.
type Checkout struct {
	SessionID string
	URL       string
}

// CreateFundingCheckout opens a one-off payment for amount on behalf of a
// parent.
func (c *Client) CreateFundingCheckout(ctx context.Context, parentID int64, amount decimal.Decimal) (*Checkout, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if !amount.IsPositive() || amount.GreaterThan(model.MaxAmount) || !amount.Equal(amount.Round(2)) {
		return nil, ErrInvalidAmount
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(strconv.FormatInt(parentID, 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(c.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Family wallet top-up"),
					},
					UnitAmount: stripe.Int64(amount.Shift(2).IntPart()),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("parent_id", strconv.FormatInt(parentID, 10))

	sess, err := checksession.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &Checkout{SessionID: sess.ID, URL: sess.URL}, nil
}

// ConstructWebhookEvent verifies the signature and returns the parsed event.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, c.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}
