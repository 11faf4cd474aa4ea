package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/models"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/payments"
)

// PaymentGateway is the payment processor as the subscription flow sees it.
type PaymentGateway interface {
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	ChangePrice(ctx context.Context, sub *models.Subscription, priceID, tier string) error
	SetTierMetadata(ctx context.Context, subscriptionID, tier string) error
	CreateCheckoutSession(ctx context.Context, userID, email, tier string) (string, error)
	ParseWebhook(payload []byte, signature string) (*models.PaymentEvent, error)
}

// PriceBook maps tiers to processor prices and back.
type PriceBook interface {
	PriceForTier(tier string) string
	TierForPrice(priceID string) string
}

type SubscriberStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)
	ApplyTier(ctx context.Context, change models.TierChange) error
	ClearSubscription(ctx context.Context, userID string) error
}

// Subscription statuses that keep the paid tier
var activeSubscriptionStatuses = map[string]bool{
	"active":   true,
	"trialing": true,
	"past_due": true,
}

// SubscriptionService reconciles local tiers with the payment processor.
type SubscriptionService struct {
	users    SubscriberStore
	gateway  PaymentGateway
	prices   PriceBook
	notifier Notifier
	logger   *slog.Logger
}

func NewSubscriptionService(users SubscriberStore, gateway PaymentGateway, prices PriceBook, notifier Notifier, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{users: users, gateway: gateway, prices: prices, notifier: notifier, logger: logger}
}

func validatePaidTier(tier string) error {
	if !models.IsPaidTier(tier) {
		return models.NewValidationError("tier", "tier must be premium or featured")
	}
	return nil
}

// CreateCheckoutSession starts a subscription checkout and returns its URL.
func (s *SubscriptionService) CreateCheckoutSession(ctx context.Context, userID, tier string) (string, error) {
	if err := validatePaidTier(tier); err != nil {
		return "", err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", lookupError(ctx, s.logger, "user", userID, err)
	}
	if user.SubscriptionTier == tier {
		return "", models.ErrSameTier
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, user.ID, user.Email, tier)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create checkout session",
			slog.String("user_id", userID), slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", models.ErrDownstream, err)
	}
	return url, nil
}

// UpgradeSubscription changes the processor price, then re-reads the
// subscription and commits the local tier only when the processor reports
// the expected price. On a mismatch the processor's tier metadata is put
// back in line with the price it actually holds and nothing is written locally.
func (s *SubscriptionService) UpgradeSubscription(ctx context.Context, userID, tier string) error {
	if err := validatePaidTier(tier); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return lookupError(ctx, s.logger, "user", userID, err)
	}
	if user.SubscriptionTier == tier {
		return models.ErrSameTier
	}
	if user.StripeSubscriptionID == nil || *user.StripeSubscriptionID == "" {
		return models.ErrNoSubscription
	}

	expected := s.prices.PriceForTier(tier)
	if expected == "" {
		s.logger.ErrorContext(ctx, "no price configured for tier", slog.String("tier", tier))
		return models.ErrInternalServer
	}

	subID := *user.StripeSubscriptionID
	sub, err := s.gateway.GetSubscription(ctx, subID)
	if err != nil {
		return s.downstream(ctx, "fetch subscription", userID, err)
	}

	if err := s.gateway.ChangePrice(ctx, sub, expected, tier); err != nil {
		return s.downstream(ctx, "change price", userID, err)
	}

	verified, err := s.gateway.GetSubscription(ctx, subID)
	if err != nil {
		return s.downstream(ctx, "verify subscription", userID, err)
	}

	if verified.PriceID != expected {
		actual := s.prices.TierForPrice(verified.PriceID)
		s.logger.ErrorContext(ctx, "processor price mismatch after upgrade",
			slog.String("user_id", userID),
			slog.String("requested_tier", tier),
			slog.String("actual_tier", actual))

		if err := s.gateway.SetTierMetadata(ctx, subID, actual); err != nil {
			s.logger.ErrorContext(ctx, "failed to roll back tier metadata",
				slog.String("subscription_id", subID), slog.Any("error", err))
		}
		return fmt.Errorf("%w: %w", models.ErrDownstream, models.ErrTierMismatch)
	}

	if err := s.users.ApplyTier(ctx, models.TierChange{UserID: userID, Tier: tier}); err != nil {
		s.logger.ErrorContext(ctx, "failed to apply tier after verified upgrade",
			slog.String("user_id", userID), slog.String("tier", tier), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.InfoContext(ctx, "subscription upgraded", slog.String("user_id", userID), slog.String("tier", tier))
	return nil
}

func (s *SubscriptionService) downstream(ctx context.Context, step, userID string, err error) error {
	s.logger.ErrorContext(ctx, "payment processor call failed",
		slog.String("step", step), slog.String("user_id", userID), slog.Any("error", err))
	return fmt.Errorf("%w: %s: %v", models.ErrDownstream, step, err)
}

// HandleWebhook verifies and applies a processor event. Events for
// unknown customers are acknowledged so the processor stops retrying.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			return models.ErrUnauthorized
		}
		s.logger.WarnContext(ctx, "unparseable webhook", slog.Any("error", err))
		return models.ErrBadRequest
	}

	log := s.logger.With(slog.String("event_id", ev.ID), slog.String("event_type", ev.Type))

	switch ev.Type {
	case models.EventCheckoutCompleted:
		return s.onCheckoutCompleted(ctx, log, ev)
	case models.EventSubscriptionUpdated:
		return s.onSubscriptionUpdated(ctx, log, ev)
	case models.EventSubscriptionDeleted:
		return s.onSubscriptionDeleted(ctx, log, ev)
	case models.EventPaymentFailed:
		s.onPaymentFailed(ctx, log, ev)
		return nil
	default:
		log.DebugContext(ctx, "ignoring webhook event")
		return nil
	}
}

func (s *SubscriptionService) onCheckoutCompleted(ctx context.Context, log *slog.Logger, ev *models.PaymentEvent) error {
	if ev.UserID == "" {
		log.WarnContext(ctx, "checkout without client reference")
		return nil
	}

	tier := ev.Tier
	if ev.PriceID != "" {
		tier = s.prices.TierForPrice(ev.PriceID)
	}
	if !models.IsPaidTier(tier) {
		log.WarnContext(ctx, "checkout with unknown tier", slog.String("tier", tier))
		return nil
	}

	change := models.TierChange{UserID: ev.UserID, Tier: tier}
	if ev.CustomerID != "" {
		change.CustomerID = &ev.CustomerID
	}
	if ev.SubscriptionID != "" {
		change.SubscriptionID = &ev.SubscriptionID
	}

	if err := s.users.ApplyTier(ctx, change); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.WarnContext(ctx, "checkout for unknown user", slog.String("user_id", ev.UserID))
			return nil
		}
		log.ErrorContext(ctx, "failed to apply checkout tier", slog.Any("error", err))
		return models.ErrInternalServer
	}

	log.InfoContext(ctx, "checkout applied", slog.String("user_id", ev.UserID), slog.String("tier", tier))
	return nil
}

func (s *SubscriptionService) onSubscriptionUpdated(ctx context.Context, log *slog.Logger, ev *models.PaymentEvent) error {
	user, ok, err := s.userForCustomer(ctx, log, ev.CustomerID)
	if !ok {
		return err
	}

	tier := models.TierFree
	if activeSubscriptionStatuses[ev.Status] {
		tier = s.prices.TierForPrice(ev.PriceID)
		if !models.IsPaidTier(tier) {
			// An unknown price keeps the current tier.
			log.WarnContext(ctx, "active subscription with unmapped price, tier unchanged",
				slog.String("user_id", user.ID), slog.String("price_id", ev.PriceID),
				slog.String("tier", user.SubscriptionTier))
			return nil
		}
	}

	change := models.TierChange{UserID: user.ID, Tier: tier}
	if ev.SubscriptionID != "" {
		change.SubscriptionID = &ev.SubscriptionID
	}
	if err := s.users.ApplyTier(ctx, change); err != nil {
		log.ErrorContext(ctx, "failed to apply subscription update", slog.Any("error", err))
		return models.ErrInternalServer
	}

	log.InfoContext(ctx, "subscription updated",
		slog.String("user_id", user.ID), slog.String("status", ev.Status), slog.String("tier", tier))
	return nil
}

func (s *SubscriptionService) onSubscriptionDeleted(ctx context.Context, log *slog.Logger, ev *models.PaymentEvent) error {
	user, ok, err := s.userForCustomer(ctx, log, ev.CustomerID)
	if !ok {
		return err
	}

	if err := s.users.ApplyTier(ctx, models.TierChange{UserID: user.ID, Tier: models.TierFree}); err != nil {
		log.ErrorContext(ctx, "failed to downgrade after cancellation", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if err := s.users.ClearSubscription(ctx, user.ID); err != nil {
		log.ErrorContext(ctx, "failed to clear subscription id", slog.Any("error", err))
		return models.ErrInternalServer
	}

	log.InfoContext(ctx, "subscription cancelled", slog.String("user_id", user.ID))
	return nil
}

func (s *SubscriptionService) onPaymentFailed(ctx context.Context, log *slog.Logger, ev *models.PaymentEvent) {
	name, email := "", ev.CustomerEmail
	if user, ok, _ := s.userForCustomer(ctx, log, ev.CustomerID); ok {
		name, email = user.FullName, user.Email
	}
	sendBestEffort(ctx, log, s.notifier, email, EmailPaymentFailed, EmailData{Name: name})
}

// userForCustomer resolves a processor customer. ok is false when the event
// should be acknowledged without action (err nil) or retried (err set).
func (s *SubscriptionService) userForCustomer(ctx context.Context, log *slog.Logger, customerID string) (*models.User, bool, error) {
	if customerID == "" {
		log.WarnContext(ctx, "event without customer")
		return nil, false, nil
	}

	user, err := s.users.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.WarnContext(ctx, "event for unknown customer", slog.String("customer_id", customerID))
			return nil, false, nil
		}
		log.ErrorContext(ctx, "failed to look up customer", slog.Any("error", err))
		return nil, false, models.ErrInternalServer
	}
	return user, true, nil
}
