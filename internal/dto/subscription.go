package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/member-console/internal/models"
)

// PackageSubscriptionPayload is a package grant as returned by the service.
type PackageSubscriptionPayload struct {
	TransactionID   string           `json:"transactionId"`
	PackageID       string           `json:"packageId"`
	PackageName     string           `json:"packageName"`
	PackageCode     string           `json:"packageCode"`
	StartDate       *time.Time       `json:"startDate"`
	ExpiryDate      *time.Time       `json:"expiryDate"`
	FinalAmountPaid *decimal.Decimal `json:"finalAmountPaid"`
	Title           string           `json:"title"`
}

// SubscriptionPayload is the data block of the subscription endpoints.
type SubscriptionPayload struct {
	IsSubprofile     *bool                        `json:"isSubprofile"`
	MembershipStatus *MembershipStatusPayload     `json:"membershipStatus"`
	Packages         []PackageSubscriptionPayload `json:"packages"`
	History          []PackageSubscriptionPayload `json:"history"`
}

// MembershipStatusData is the data block of the membership mutation endpoints.
type MembershipStatusData struct {
	MembershipStatus *MembershipStatusPayload `json:"membershipStatus"`
}

// PackagePayload is a catalog entry.
type PackagePayload struct {
	ID             string           `json:"id"`
	MongoID        string           `json:"_id"`
	Name           string           `json:"name"`
	Code           string           `json:"code"`
	Description    string           `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	DurationInDays int              `json:"durationInDays"`
	IsActive       *bool            `json:"isActive"`
}

// Normalize converts the payload into a catalog package. Packages without an
// explicit flag are considered active.
func (p PackagePayload) Normalize() models.Package {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return models.Package{
		ID:             firstNonEmpty(p.ID, p.MongoID),
		Name:           p.Name,
		Code:           p.Code,
		Description:    p.Description,
		Price:          derefDecimal(p.Price),
		DurationInDays: p.DurationInDays,
		Active:         active,
	}
}

func (p PackageSubscriptionPayload) normalize() models.PackageSubscription {
	sub := models.PackageSubscription{
		TransactionID:   p.TransactionID,
		PackageID:       p.PackageID,
		PackageName:     p.PackageName,
		PackageCode:     p.PackageCode,
		FinalAmountPaid: derefDecimal(p.FinalAmountPaid),
	}
	if p.StartDate != nil {
		sub.StartDate = *p.StartDate
	}
	if p.ExpiryDate != nil {
		sub.ExpiryDate = *p.ExpiryDate
	}
	return sub
}

// Normalize converts the payload into a subscription record for memberID.
func (p SubscriptionPayload) Normalize(memberID string) models.SubscriptionRecord {
	record := models.SubscriptionRecord{
		MemberID:     memberID,
		IsSubprofile: derefBool(p.IsSubprofile),
		Packages:     make([]models.PackageSubscription, 0, len(p.Packages)),
		History:      make([]models.SubscriptionHistoryEntry, 0, len(p.History)),
	}
	if p.MembershipStatus != nil {
		record.MembershipStatus = p.MembershipStatus.Normalize()
	}
	for _, pkg := range p.Packages {
		record.Packages = append(record.Packages, pkg.normalize())
	}
	for _, h := range p.History {
		record.History = append(record.History, models.SubscriptionHistoryEntry{
			PackageSubscription: h.normalize(),
			Title:               firstNonEmpty(h.Title, h.PackageName),
		})
	}
	return record
}

// HasPackages reports whether the service echoed the package list.
func (p SubscriptionPayload) HasPackages() bool {
	return p.Packages != nil
}

// PremiumView decorates the premium block with display countdown data.
type PremiumView struct {
	models.PremiumMembership
	DaysRemaining int            `json:"daysRemaining"`
	Urgency       models.Urgency `json:"urgency,omitempty"`
}

// PackageView decorates an active package with display countdown data.
type PackageView struct {
	models.PackageSubscription
	DaysRemaining int            `json:"daysRemaining"`
	Urgency       models.Urgency `json:"urgency"`
}

// SubscriptionDetails is the projection served to the member details view.
type SubscriptionDetails struct {
	MemberID                       string                            `json:"memberId"`
	State                          models.LifecycleState             `json:"state"`
	IsRegistered                   bool                              `json:"isRegistered"`
	RegistrationDate               *time.Time                        `json:"registrationDate,omitempty"`
	HasOneTimeRegistrationDiscount bool                              `json:"hasOneTimeRegistrationDiscount"`
	Premium                        PremiumView                       `json:"premiumMembership"`
	Packages                       []PackageView                     `json:"packages"`
	History                        []models.SubscriptionHistoryEntry `json:"history"`
	GeneratedAt                    time.Time                         `json:"generatedAt"`
}
