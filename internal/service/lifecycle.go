package service

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/member-console/internal/models"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

const day = 24 * time.Hour

// ComputeDaysRemaining returns the whole days left until expiry, rounding any
// partial day up. Expired or zero dates yield 0.
func ComputeDaysRemaining(expiry, now time.Time) int {
	if expiry.IsZero() || !expiry.After(now) {
		return 0
	}
	return int(math.Ceil(float64(expiry.Sub(now)) / float64(day)))
}

// ClassifyUrgency maps remaining days onto a display urgency.
func ClassifyUrgency(days int) models.Urgency {
	switch {
	case days > 30:
		return models.UrgencyHealthy
	case days > 7:
		return models.UrgencyWarning
	default:
		return models.UrgencyCritical
	}
}

func invalidState(format string, args ...interface{}) error {
	return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf(format, args...))
}

// ApplyRegistration registers an unregistered member. The registration date is
// only ever set once and the one-time discount can be consumed at most once.
func ApplyRegistration(status models.MembershipStatus, applyDiscount bool, now time.Time) (models.MembershipStatus, error) {
	if status.IsRegistered {
		return status, invalidState("member is already registered")
	}
	if applyDiscount && status.HasOneTimeRegistrationDiscount {
		return status, invalidState("one-time registration discount already used")
	}
	next := status
	next.IsRegistered = true
	if next.RegistrationDate == nil {
		at := now
		next.RegistrationDate = &at
	}
	if applyDiscount {
		next.HasOneTimeRegistrationDiscount = true
	}
	return next, nil
}

// ApplyActivation starts a fresh premium plan. Active memberships and
// subprofiles are rejected; an unregistered member is registered on the way.
func ApplyActivation(status models.MembershipStatus, isSubprofile bool, now time.Time, plan time.Duration) (models.MembershipStatus, error) {
	if isSubprofile {
		return status, invalidState("premium membership is managed by the primary member")
	}
	if status.State() == models.StatePremiumActive {
		return status, invalidState("premium membership is already active")
	}
	next := status
	if !next.IsRegistered {
		next.IsRegistered = true
	}
	if next.RegistrationDate == nil {
		at := now
		next.RegistrationDate = &at
	}
	start := now
	expiry := now.Add(plan)
	next.PremiumMembership = models.PremiumMembership{
		IsActive:   true,
		StartDate:  &start,
		ExpiryDate: &expiry,
	}
	return next, nil
}

// ApplyRenewal extends an active plan by one period. Remaining time is kept;
// a lapsed plan restarts from now.
func ApplyRenewal(status models.MembershipStatus, now time.Time, plan time.Duration) (models.MembershipStatus, error) {
	if status.State() != models.StatePremiumActive {
		return status, invalidState("only an active premium membership can be renewed")
	}
	base := now
	if current := status.PremiumMembership.ExpiryDate; current != nil && current.After(now) {
		base = *current
	}
	expiry := base.Add(plan)
	next := status
	next.PremiumMembership.ExpiryDate = &expiry
	next.PremiumMembership.RenewalCount++
	return next, nil
}

// NewPackageSubscription builds the grant for a catalog package acquired at now.
func NewPackageSubscription(pkg models.Package, now time.Time) (models.PackageSubscription, error) {
	if pkg.DurationInDays <= 0 {
		return models.PackageSubscription{}, invalidState("package %s has no duration", pkg.Code)
	}
	return models.PackageSubscription{
		TransactionID:   uuid.NewString(),
		PackageID:       pkg.ID,
		PackageName:     pkg.Name,
		PackageCode:     pkg.Code,
		StartDate:       now,
		ExpiryDate:      now.Add(time.Duration(pkg.DurationInDays) * day),
		FinalAmountPaid: pkg.Price,
	}, nil
}

// PartitionExpired splits packages into those still active and history
// entries for those whose expiry has passed. Existing history is kept first.
func PartitionExpired(record models.SubscriptionRecord, now time.Time) ([]models.PackageSubscription, []models.SubscriptionHistoryEntry) {
	active := make([]models.PackageSubscription, 0, len(record.Packages))
	history := append([]models.SubscriptionHistoryEntry{}, record.History...)
	seen := make(map[string]struct{}, len(history))
	for _, h := range history {
		if h.TransactionID != "" {
			seen[h.TransactionID] = struct{}{}
		}
	}
	for _, pkg := range record.Packages {
		if pkg.ExpiryDate.After(now) {
			active = append(active, pkg)
			continue
		}
		if _, dup := seen[pkg.TransactionID]; dup && pkg.TransactionID != "" {
			continue
		}
		history = append(history, models.SubscriptionHistoryEntry{PackageSubscription: pkg, Title: pkg.PackageName})
	}
	return active, history
}
