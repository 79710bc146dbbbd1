package service

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/noah-isme/member-console/internal/models"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
)

var day0 = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func activeStatus(expiry time.Time, renewals int) models.MembershipStatus {
	return models.MembershipStatus{
		IsRegistered: true,
		PremiumMembership: models.PremiumMembership{
			IsActive:     true,
			StartDate:    timePtr(expiry.Add(-30 * day)),
			ExpiryDate:   timePtr(expiry),
			RenewalCount: renewals,
		},
	}
}

func TestApplyRenewalExtendsFromCurrentExpiry(t *testing.T) {
	status := activeStatus(day0.Add(10*day), 2)

	next, err := ApplyRenewal(status, day0, 30*day)
	require.NoError(t, err)
	assert.Equal(t, day0.Add(40*day), *next.PremiumMembership.ExpiryDate)
	assert.Equal(t, 3, next.PremiumMembership.RenewalCount)
	assert.Equal(t, day0.Add(10*day), *status.PremiumMembership.ExpiryDate, "input must not be mutated")
}

func TestApplyRenewalLapsedRestartsFromNow(t *testing.T) {
	status := activeStatus(day0.Add(-5*day), 0)

	next, err := ApplyRenewal(status, day0, 30*day)
	require.NoError(t, err)
	assert.Equal(t, day0.Add(30*day), *next.PremiumMembership.ExpiryDate)
	assert.Equal(t, 1, next.PremiumMembership.RenewalCount)
}

func TestApplyRenewalRequiresActive(t *testing.T) {
	_, err := ApplyRenewal(models.MembershipStatus{IsRegistered: true}, day0, 30*day)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
}

func TestApplyActivationFromUnregistered(t *testing.T) {
	next, err := ApplyActivation(models.MembershipStatus{}, false, day0, 30*day)
	require.NoError(t, err)

	pm := next.PremiumMembership
	assert.True(t, pm.IsActive)
	assert.Equal(t, day0, *pm.StartDate)
	assert.Equal(t, day0.Add(30*day), *pm.ExpiryDate)
	assert.Equal(t, 0, pm.RenewalCount)
	assert.True(t, next.IsRegistered)
	assert.Equal(t, day0, *next.RegistrationDate)
}

func TestApplyActivationKeepsRegistrationDate(t *testing.T) {
	registered := day0.Add(-100 * day)
	status := models.MembershipStatus{IsRegistered: true, RegistrationDate: &registered}
	status.PremiumMembership.RenewalCount = 4

	next, err := ApplyActivation(status, false, day0, 30*day)
	require.NoError(t, err)
	assert.Equal(t, registered, *next.RegistrationDate)
	assert.Equal(t, 0, next.PremiumMembership.RenewalCount)
}

func TestApplyActivationRejectsActiveAndSubprofiles(t *testing.T) {
	_, err := ApplyActivation(activeStatus(day0.Add(day), 0), false, day0, 30*day)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))

	_, err = ApplyActivation(models.MembershipStatus{IsRegistered: true}, true, day0, 30*day)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
}

func TestApplyRegistration(t *testing.T) {
	next, err := ApplyRegistration(models.MembershipStatus{}, true, day0)
	require.NoError(t, err)
	assert.True(t, next.IsRegistered)
	assert.True(t, next.HasOneTimeRegistrationDiscount)
	assert.Equal(t, day0, *next.RegistrationDate)

	_, err = ApplyRegistration(next, false, day0)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))

	_, err = ApplyRegistration(models.MembershipStatus{HasOneTimeRegistrationDiscount: true}, true, day0)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
}

func TestComputeDaysRemaining(t *testing.T) {
	assert.Equal(t, 0, ComputeDaysRemaining(day0, day0))
	assert.Equal(t, 0, ComputeDaysRemaining(day0.Add(-time.Hour), day0))
	assert.Equal(t, 0, ComputeDaysRemaining(time.Time{}, day0))
	assert.Equal(t, 1, ComputeDaysRemaining(day0.Add(time.Minute), day0))
	assert.Equal(t, 10, ComputeDaysRemaining(day0.Add(10*day), day0))
}

func TestComputeDaysRemainingCountsPartialDaysFromNow(t *testing.T) {
	morning := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, ComputeDaysRemaining(time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), morning))
	assert.Equal(t, 2, ComputeDaysRemaining(time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC), morning))
}

func TestComputeDaysRemainingThirtySixHoursIsTwoAtAnyTimeOfDay(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		minutes := rapid.IntRange(0, 24*60-1).Draw(t, "minuteOfDay")
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
		if got := ComputeDaysRemaining(now.Add(36*time.Hour), now); got != 2 {
			t.Fatalf("got %d at %s", got, now.Format(time.Kitchen))
		}
	})
}

func TestClassifyUrgency(t *testing.T) {
	assert.Equal(t, models.UrgencyHealthy, ClassifyUrgency(31))
	assert.Equal(t, models.UrgencyWarning, ClassifyUrgency(30))
	assert.Equal(t, models.UrgencyWarning, ClassifyUrgency(8))
	assert.Equal(t, models.UrgencyCritical, ClassifyUrgency(7))
	assert.Equal(t, models.UrgencyCritical, ClassifyUrgency(0))
}

func TestNewPackageSubscription(t *testing.T) {
	pkg := models.Package{ID: "p-1", Name: "Dental", Code: "DEN", Price: decimal.RequireFromString("49.90"), DurationInDays: 90}
	sub, err := NewPackageSubscription(pkg, day0)
	require.NoError(t, err)
	assert.NotEmpty(t, sub.TransactionID)
	assert.Equal(t, day0.Add(90*day), sub.ExpiryDate)
	assert.True(t, sub.ExpiryDate.After(sub.StartDate))
	assert.True(t, sub.FinalAmountPaid.Equal(decimal.RequireFromString("49.9")))

	_, err = NewPackageSubscription(models.Package{ID: "p-2"}, day0)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
}

func TestPartitionExpired(t *testing.T) {
	record := models.SubscriptionRecord{
		Packages: []models.PackageSubscription{
			{TransactionID: "t-1", PackageName: "Old", ExpiryDate: day0.Add(-day)},
			{TransactionID: "t-2", PackageName: "Live", ExpiryDate: day0.Add(day)},
			{TransactionID: "t-3", PackageName: "Logged", ExpiryDate: day0.Add(-2 * day)},
		},
		History: []models.SubscriptionHistoryEntry{
			{PackageSubscription: models.PackageSubscription{TransactionID: "t-3"}, Title: "Logged"},
		},
	}

	active, history := PartitionExpired(record, day0)
	require.Len(t, active, 1)
	assert.Equal(t, "t-2", active[0].TransactionID)
	require.Len(t, history, 2)
	assert.Equal(t, "t-3", history[0].TransactionID)
	assert.Equal(t, "t-1", history[1].TransactionID)
	assert.Equal(t, "Old", history[1].Title)
}
