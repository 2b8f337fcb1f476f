package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/product"
	stripesub "github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/gorm"

	"github.com/clubdev/clubdev/config"
	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/utils"
)

// SubscriptionController handles Stripe checkout and the webhook that keeps
// local subscription state in sync.
type SubscriptionController struct {
	db *gorm.DB
}

// NewSubscriptionController creates a new controller instance and sets the
// Stripe API key from configuration.
func NewSubscriptionController(db *gorm.DB) *SubscriptionController {
	stripe.Key = config.Get().StripeSecretKey
	return &SubscriptionController{db: db}
}

// CreateCheckoutSession starts a Stripe Checkout session for the requested
// tier and returns its URL.
func (s *SubscriptionController) CreateCheckoutSession(ctx *gin.Context) {
	var req struct {
		Tier string `json:"tier" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40130, "invalid request payload")
		return
	}

	cfg := config.Get()
	var priceID string
	switch strings.ToUpper(req.Tier) {
	case models.TierPro:
		priceID = cfg.StripePricePro
	case models.TierEnterprise:
		priceID = cfg.StripePriceEnterprise
	default:
		utils.Error(ctx, http.StatusBadRequest, 40131, "unknown tier")
		return
	}
	if priceID == "" {
		utils.Error(ctx, http.StatusServiceUnavailable, 50320, "billing is not configured")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50321, "failed to load user")
		return
	}

	if user.StripeCustomerID == "" {
		cust, err := customer.New(&stripe.CustomerParams{
			Email: stripe.String(user.Email),
			Name:  stripe.String(user.Username),
		})
		if err != nil {
			utils.Sugar.Errorf("stripe customer create failed for user %d: %v", userID, err)
			utils.Error(ctx, http.StatusBadGateway, 50322, "failed to create billing customer")
			return
		}
		user.StripeCustomerID = cust.ID
		if err := s.db.Save(&user).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50323, "failed to save user")
			return
		}
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(user.StripeCustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(cfg.BaseURL + "/subscription/success"),
		CancelURL:  stripe.String(cfg.BaseURL + "/subscription/cancel"),
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		utils.Sugar.Errorf("stripe checkout session failed for user %d: %v", userID, err)
		utils.Error(ctx, http.StatusBadGateway, 50324, "failed to create checkout session")
		return
	}

	utils.Success(ctx, gin.H{"url": sess.URL})
}

// GetMySubscription returns the caller's current tier and status.
func (s *SubscriptionController) GetMySubscription(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50325, "failed to load user")
		return
	}
	utils.Success(ctx, gin.H{
		"tier":     user.SubscriptionTier,
		"status":   user.SubscriptionStatus,
		"end_date": user.SubscriptionEndDate,
	})
}

// Downgrade cancels the caller's active Stripe subscription and resets the
// local state to the free tier. Succeeds even when no subscription exists.
func (s *SubscriptionController) Downgrade(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50326, "failed to load user")
		return
	}

	if user.StripeCustomerID != "" {
		iter := stripesub.List(&stripe.SubscriptionListParams{
			Customer: stripe.String(user.StripeCustomerID),
			Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
		})
		for iter.Next() {
			if _, err := stripesub.Cancel(iter.Subscription().ID, nil); err != nil {
				utils.Sugar.Errorf("stripe cancel failed for user %d: %v", userID, err)
				utils.Error(ctx, http.StatusBadGateway, 50327, "failed to cancel subscription")
				return
			}
		}
		if err := iter.Err(); err != nil {
			utils.Sugar.Errorf("stripe subscription list failed for user %d: %v", userID, err)
			utils.Error(ctx, http.StatusBadGateway, 50328, "failed to list subscriptions")
			return
		}
	}

	user.SubscriptionTier = models.TierFree
	user.SubscriptionStatus = models.SubscriptionInactive
	user.SubscriptionEndDate = nil
	if err := s.db.Save(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50329, "failed to save user")
		return
	}
	utils.Success(ctx, gin.H{
		"tier":   user.SubscriptionTier,
		"status": user.SubscriptionStatus,
	})
}

// Webhook receives Stripe events. The signature is verified before any
// state is touched.
func (s *SubscriptionController) Webhook(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, 1<<16))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40132, "failed to read payload")
		return
	}

	event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), config.Get().StripeWebhookSecret)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40133, "invalid webhook signature")
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40134, "malformed event payload")
			return
		}
		s.handleCheckoutCompleted(&sess)
	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40134, "malformed event payload")
			return
		}
		s.handleSubscriptionUpdated(&sub)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40134, "malformed event payload")
			return
		}
		s.handleSubscriptionDeleted(&sub)
	default:
		utils.Sugar.Debugf("ignoring stripe event %s", event.Type)
	}

	utils.Success(ctx, gin.H{"received": true})
}

func (s *SubscriptionController) userByCustomer(customerID string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("stripe_customer_id = ?", customerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SubscriptionController) handleCheckoutCompleted(sess *stripe.CheckoutSession) {
	if sess.Customer == nil {
		return
	}
	user, err := s.userByCustomer(sess.Customer.ID)
	if err != nil {
		utils.Sugar.Warnf("checkout completed for unknown customer %s", sess.Customer.ID)
		return
	}
	user.SubscriptionStatus = models.SubscriptionActive
	if err := s.db.Save(user).Error; err != nil {
		utils.Sugar.Errorf("failed to activate subscription for user %d: %v", user.ID, err)
	}
}

func (s *SubscriptionController) handleSubscriptionUpdated(sub *stripe.Subscription) {
	if sub.Customer == nil {
		return
	}
	user, err := s.userByCustomer(sub.Customer.ID)
	if err != nil {
		utils.Sugar.Warnf("subscription update for unknown customer %s", sub.Customer.ID)
		return
	}

	tier := tierFromSubscription(sub)
	if tier != "" {
		user.SubscriptionTier = tier
	}
	if sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing {
		user.SubscriptionStatus = models.SubscriptionActive
	} else {
		user.SubscriptionStatus = models.SubscriptionInactive
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0)
		user.SubscriptionEndDate = &end
	}
	if err := s.db.Save(user).Error; err != nil {
		utils.Sugar.Errorf("failed to update subscription for user %d: %v", user.ID, err)
	}
}

func (s *SubscriptionController) handleSubscriptionDeleted(sub *stripe.Subscription) {
	if sub.Customer == nil {
		return
	}
	user, err := s.userByCustomer(sub.Customer.ID)
	if err != nil {
		return
	}
	user.SubscriptionTier = models.TierFree
	user.SubscriptionStatus = models.SubscriptionInactive
	user.SubscriptionEndDate = nil
	if err := s.db.Save(user).Error; err != nil {
		utils.Sugar.Errorf("failed to clear subscription for user %d: %v", user.ID, err)
	}
}

// tierFromSubscription maps the subscribed product's name onto a tier. The
// product name is fetched when the event does not embed it.
func tierFromSubscription(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	price := sub.Items.Data[0].Price
	if price == nil || price.Product == nil {
		return ""
	}
	name := price.Product.Name
	if name == "" {
		prod, err := product.Get(price.Product.ID, nil)
		if err != nil {
			utils.Sugar.Warnf("failed to fetch stripe product %s: %v", price.Product.ID, err)
			return ""
		}
		name = prod.Name
	}
	lowered := strings.ToLower(name)
	switch {
	case strings.Contains(lowered, "enterprise"):
		return models.TierEnterprise
	case strings.Contains(lowered, "pro"):
		return models.TierPro
	default:
		return ""
	}
}
