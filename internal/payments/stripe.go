package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/config"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNoSubscription   = errors.New("subscription has no items")
)

// Gateway wraps the Stripe API client with the few calls the directory needs.
type Gateway struct {
	api *client.API
	cfg config.StripeConfig
}

// NewGateway builds a gateway. backends may be nil; tests point it at a fake server.
func NewGateway(cfg config.StripeConfig, backends *stripe.Backends) *Gateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)
	return &Gateway{api: api, cfg: cfg}
}

func toSubscription(s *stripe.Subscription) (*models.Subscription, error) {
	if s.Items == nil || len(s.Items.Data) == 0 || s.Items.Data[0].Price == nil {
		return nil, ErrNoSubscription
	}
	item := s.Items.Data[0]

	out := &models.Subscription{
		ID:      s.ID,
		ItemID:  item.ID,
		PriceID: item.Price.ID,
		Status:  string(s.Status),
		Tier:    s.Metadata["tier"],
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	return out, nil
}

func (g *Gateway) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	s, err := g.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return toSubscription(s)
}

// ChangePrice swaps the subscription item to priceID and stamps metadata.tier.
func (g *Gateway) ChangePrice(ctx context.Context, sub *models.Subscription, priceID, tier string) error {
	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{{
			ID:    stripe.String(sub.ItemID),
			Price: stripe.String(priceID),
		}},
		ProrationBehavior: stripe.String("create_prorations"),
	}
	params.Context = ctx
	params.AddMetadata("tier", tier)

	if _, err := g.api.Subscriptions.Update(sub.ID, params); err != nil {
		return fmt.Errorf("update subscription price: %w", err)
	}
	return nil
}

// SetTierMetadata rewrites metadata.tier without touching the price.
func (g *Gateway) SetTierMetadata(ctx context.Context, subscriptionID, tier string) error {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddMetadata("tier", tier)

	if _, err := g.api.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("update subscription metadata: %w", err)
	}
	return nil
}

// CreateCheckoutSession starts a subscription checkout and returns its URL.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, userID, email, tier string) (string, error) {
	price := g.cfg.PriceForTier(tier)
	if price == "" {
		return "", fmt.Errorf("no price configured for tier %q", tier)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(price),
			Quantity: stripe.Int64(1),
		}},
		ClientReferenceID: stripe.String(userID),
		SuccessURL:        stripe.String(g.cfg.SuccessURL),
		CancelURL:         stripe.String(g.cfg.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"tier": tier, "user_id": userID},
		},
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.Context = ctx
	params.AddMetadata("tier", tier)

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

// ParseWebhook verifies the signature header and reduces the event to a
// PaymentEvent. Unhandled event types come back with only ID and Type set.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*models.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &models.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case models.EventCheckoutCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.UserID = s.ClientReferenceID
		out.Tier = s.Metadata["tier"]
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}
		if s.Subscription != nil {
			out.SubscriptionID = s.Subscription.ID
		}
		if s.CustomerDetails != nil {
			out.CustomerEmail = s.CustomerDetails.Email
		}

	case models.EventSubscriptionUpdated, models.EventSubscriptionDeleted:
		var s stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		out.SubscriptionID = s.ID
		out.Status = string(s.Status)
		out.Tier = s.Metadata["tier"]
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}
		if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
			out.PriceID = s.Items.Data[0].Price.ID
		}

	case models.EventPaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		out.CustomerEmail = inv.CustomerEmail
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
	}

	return out, nil
}
