package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/clubdev/clubdev/models"
)

func TestSubscriptionUpdatedStoresTierAndEndDate(t *testing.T) {
	db := newTestDB(t)
	sc := NewSubscriptionController(db)

	user := seedUser(t, db, "alice")
	db.Model(user).Update("stripe_customer_id", "cus_123")

	periodEnd := time.Now().AddDate(0, 1, 0).Unix()
	sc.handleSubscriptionUpdated(&stripe.Subscription{
		Customer:         &stripe.Customer{ID: "cus_123"},
		Status:           stripe.SubscriptionStatusActive,
		CurrentPeriodEnd: periodEnd,
	})

	var updated models.User
	if err := db.First(&updated, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if updated.SubscriptionStatus != models.SubscriptionActive {
		t.Errorf("status = %q, want ACTIVE", updated.SubscriptionStatus)
	}
	if updated.SubscriptionEndDate == nil {
		t.Fatal("end date not stored")
	}
	if got := updated.SubscriptionEndDate.Unix(); got != periodEnd {
		t.Errorf("end date = %d, want %d", got, periodEnd)
	}
}

func TestSubscriptionDeletedResetsTier(t *testing.T) {
	db := newTestDB(t)
	sc := NewSubscriptionController(db)

	user := seedUser(t, db, "alice")
	end := time.Now().AddDate(0, 1, 0)
	db.Model(user).Updates(map[string]interface{}{
		"stripe_customer_id":    "cus_123",
		"subscription_tier":     models.TierPro,
		"subscription_status":   models.SubscriptionActive,
		"subscription_end_date": end,
	})

	sc.handleSubscriptionDeleted(&stripe.Subscription{
		Customer: &stripe.Customer{ID: "cus_123"},
	})

	var updated models.User
	db.First(&updated, user.ID)
	if updated.SubscriptionTier != models.TierFree || updated.SubscriptionStatus != models.SubscriptionInactive {
		t.Errorf("after delete: tier=%q status=%q", updated.SubscriptionTier, updated.SubscriptionStatus)
	}
	if updated.SubscriptionEndDate != nil {
		t.Error("end date not cleared")
	}
}

func TestDowngradeWithoutBillingCustomer(t *testing.T) {
	db := newTestDB(t)
	sc := NewSubscriptionController(db)

	user := seedUser(t, db, "alice")
	db.Model(user).Updates(map[string]interface{}{
		"subscription_tier":   models.TierPro,
		"subscription_status": models.SubscriptionActive,
	})

	ctx, w := testContext(t, http.MethodPost, nil, user.ID, user.Username)
	sc.Downgrade(ctx)
	wantStatus(t, w, http.StatusOK)

	var updated models.User
	db.First(&updated, user.ID)
	if updated.SubscriptionTier != models.TierFree {
		t.Errorf("tier = %q, want FREE", updated.SubscriptionTier)
	}
	if updated.SubscriptionStatus != models.SubscriptionInactive {
		t.Errorf("status = %q, want INACTIVE", updated.SubscriptionStatus)
	}
}
