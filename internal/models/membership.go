package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LifecycleState is the derived membership state of a member.
type LifecycleState string

const (
	StateUnregistered    LifecycleState = "UNREGISTERED"
	StatePremiumInactive LifecycleState = "PREMIUM_INACTIVE"
	StatePremiumActive   LifecycleState = "PREMIUM_ACTIVE"
)

// Urgency classifies remaining time for display styling.
type Urgency string

const (
	UrgencyHealthy  Urgency = "HEALTHY"
	UrgencyWarning  Urgency = "WARNING"
	UrgencyCritical Urgency = "CRITICAL"
)

// PremiumMembership is the time-bounded premium tier.
type PremiumMembership struct {
	IsActive     bool       `json:"isActive"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
	RenewalCount int        `json:"renewalCount"`
}

// MembershipStatus captures registration and premium state.
type MembershipStatus struct {
	IsRegistered                   bool              `json:"isRegistered"`
	RegistrationDate               *time.Time        `json:"registrationDate,omitempty"`
	HasOneTimeRegistrationDiscount bool              `json:"hasOneTimeRegistrationDiscount"`
	PremiumMembership              PremiumMembership `json:"premiumMembership"`
}

// State derives the lifecycle state.
func (s MembershipStatus) State() LifecycleState {
	switch {
	case s.PremiumMembership.IsActive:
		return StatePremiumActive
	case !s.IsRegistered:
		return StateUnregistered
	default:
		return StatePremiumInactive
	}
}

// PackageSubscription is an active package grant.
type PackageSubscription struct {
	TransactionID   string          `json:"transactionId"`
	PackageID       string          `json:"packageId"`
	PackageName     string          `json:"packageName"`
	PackageCode     string          `json:"packageCode"`
	StartDate       time.Time       `json:"startDate"`
	ExpiryDate      time.Time       `json:"expiryDate"`
	FinalAmountPaid decimal.Decimal `json:"finalAmountPaid"`
}

// SubscriptionHistoryEntry is an immutable record of an expired or superseded grant.
type SubscriptionHistoryEntry struct {
	PackageSubscription
	Title string `json:"title"`
}

// SubscriptionRecord is the authoritative subscription state of one member.
type SubscriptionRecord struct {
	MemberID         string                     `json:"memberId"`
	IsSubprofile     bool                       `json:"isSubprofile"`
	MembershipStatus MembershipStatus           `json:"membershipStatus"`
	Packages         []PackageSubscription      `json:"packages"`
	History          []SubscriptionHistoryEntry `json:"history"`
}

// Clone returns a deep copy safe to mutate.
func (r SubscriptionRecord) Clone() SubscriptionRecord {
	out := r
	out.MembershipStatus = r.MembershipStatus.clone()
	out.Packages = append([]PackageSubscription(nil), r.Packages...)
	out.History = append([]SubscriptionHistoryEntry(nil), r.History...)
	return out
}

func (s MembershipStatus) clone() MembershipStatus {
	out := s
	out.RegistrationDate = copyTime(s.RegistrationDate)
	out.PremiumMembership.StartDate = copyTime(s.PremiumMembership.StartDate)
	out.PremiumMembership.ExpiryDate = copyTime(s.PremiumMembership.ExpiryDate)
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Package is a purchasable catalog entry.
type Package struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	DurationInDays int             `json:"durationInDays"`
	Active         bool            `json:"active"`
}
