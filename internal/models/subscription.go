package models

// Subscription tiers, ordered by directory placement
const (
	TierFree     = "free"
	TierPremium  = "premium"
	TierFeatured = "featured"
)

// Tiers lists every valid tier.
var Tiers = []string{TierFree, TierPremium, TierFeatured}

// IsPaidTier reports whether tier is one a checkout or upgrade can target.
func IsPaidTier(tier string) bool {
	return tier == TierPremium || tier == TierFeatured
}

// Subscription is the processor's view of a customer subscription.
type Subscription struct {
	ID         string
	CustomerID string
	ItemID     string
	PriceID    string
	Status     string
	Tier       string // metadata.tier
}

// TierChange is a local write of a user's tier, mirrored onto their profile.
type TierChange struct {
	UserID         string
	Tier           string
	CustomerID     *string
	SubscriptionID *string
}

// Webhook event types handled by the subscription service
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentFailed       = "invoice.payment_failed"
)

// PaymentEvent is a verified processor webhook reduced to the fields we act on.
type PaymentEvent struct {
	ID             string
	Type           string
	UserID         string // checkout client_reference_id
	CustomerID     string
	SubscriptionID string
	PriceID        string
	Status         string
	Tier           string // metadata.tier
	CustomerEmail  string
}
