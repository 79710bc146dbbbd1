package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/member-console/internal/models"
)

// Remote response status discriminators.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the response wrapper used by every member service endpoint.
type Envelope struct {
	Status     string            `json:"status"`
	Message    string            `json:"message,omitempty"`
	Data       json.RawMessage   `json:"data,omitempty"`
	Pagination *RemotePagination `json:"pagination,omitempty"`
}

// RemotePagination is the pagination block returned by list endpoints.
type RemotePagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Limit int `json:"limit"`
}

// TeamAssignmentPayload is a navigator or doctor as returned by the service.
type TeamAssignmentPayload struct {
	ID           string     `json:"id"`
	MongoID      string     `json:"_id"`
	Name         string     `json:"name"`
	FullName     string     `json:"fullName"`
	AssignedDate *time.Time `json:"assignedDate"`
}

// HealthcareTeamPayload is the optional team block.
type HealthcareTeamPayload struct {
	Navigator *TeamAssignmentPayload `json:"navigator"`
	Doctor    *TeamAssignmentPayload `json:"doctor"`
}

// PremiumMembershipPayload mirrors the premium block with every field optional.
type PremiumMembershipPayload struct {
	IsActive     *bool      `json:"isActive"`
	StartDate    *time.Time `json:"startDate"`
	ExpiryDate   *time.Time `json:"expiryDate"`
	RenewalCount *int       `json:"renewalCount"`
}

// MembershipStatusPayload mirrors the membership status block.
type MembershipStatusPayload struct {
	IsRegistered                   *bool                     `json:"isRegistered"`
	RegistrationDate               *time.Time                `json:"registrationDate"`
	HasOneTimeRegistrationDiscount *bool                     `json:"hasOneTimeRegistrationDiscount"`
	PremiumMembership              *PremiumMembershipPayload `json:"premiumMembership"`
}

// MemberPayload is the loosely shaped member record of the list endpoint.
type MemberPayload struct {
	ID               string                   `json:"id"`
	MongoID          string                   `json:"_id"`
	MemberID         string                   `json:"memberId"`
	FirstName        string                   `json:"firstName"`
	LastName         string                   `json:"lastName"`
	Name             string                   `json:"name"`
	Email            *string                  `json:"email"`
	Phone            *string                  `json:"phone"`
	PhoneNumber      *string                  `json:"phoneNumber"`
	IsStudent        *bool                    `json:"isStudent"`
	Grade            *string                  `json:"grade"`
	Section          *string                  `json:"section"`
	MemberType       *string                  `json:"memberType"`
	IsSubprofile     *bool                    `json:"isSubprofile"`
	PrimaryMemberID  *string                  `json:"primaryMemberId"`
	SubprofileIDs    []string                 `json:"subprofileIds"`
	HealthcareTeam   *HealthcareTeamPayload   `json:"healthcareTeam"`
	MembershipStatus *MembershipStatusPayload `json:"membershipStatus"`
	CreatedAt        *time.Time               `json:"createdAt"`
}

// Normalize converts the payload into the closed member model.
func (p MemberPayload) Normalize() models.Member {
	m := models.Member{
		ID:            firstNonEmpty(p.ID, p.MongoID),
		MemberID:      p.MemberID,
		FirstName:     strings.TrimSpace(p.FirstName),
		LastName:      strings.TrimSpace(p.LastName),
		Email:         deref(p.Email),
		Phone:         firstNonEmpty(deref(p.Phone), deref(p.PhoneNumber)),
		IsStudent:     derefBool(p.IsStudent),
		Grade:         deref(p.Grade),
		Section:       deref(p.Section),
		MemberType:    deref(p.MemberType),
		IsSubprofile:  derefBool(p.IsSubprofile),
		SubprofileIDs: append([]string(nil), p.SubprofileIDs...),
	}
	if m.FirstName == "" && m.LastName == "" && p.Name != "" {
		parts := strings.SplitN(strings.TrimSpace(p.Name), " ", 2)
		m.FirstName = parts[0]
		if len(parts) > 1 {
			m.LastName = strings.TrimSpace(parts[1])
		}
	}
	if m.IsSubprofile && p.PrimaryMemberID != nil && *p.PrimaryMemberID != "" {
		id := *p.PrimaryMemberID
		m.PrimaryMemberID = &id
	}
	if p.HealthcareTeam != nil {
		m.HealthcareTeam = models.HealthcareTeam{
			Navigator: p.HealthcareTeam.Navigator.normalize(),
			Doctor:    p.HealthcareTeam.Doctor.normalize(),
		}
	}
	if p.MembershipStatus != nil {
		m.MembershipStatus = p.MembershipStatus.Normalize()
	}
	if p.CreatedAt != nil {
		m.CreatedAt = *p.CreatedAt
	}
	return m
}

func (p *TeamAssignmentPayload) normalize() *models.TeamAssignment {
	if p == nil {
		return nil
	}
	id := firstNonEmpty(p.ID, p.MongoID)
	if id == "" {
		return nil
	}
	a := &models.TeamAssignment{ID: id, Name: firstNonEmpty(p.Name, p.FullName)}
	if p.AssignedDate != nil {
		a.AssignedDate = *p.AssignedDate
	}
	return a
}

// Normalize converts the status payload into the model, defaulting absent fields.
func (p MembershipStatusPayload) Normalize() models.MembershipStatus {
	s := models.MembershipStatus{
		IsRegistered:                   derefBool(p.IsRegistered),
		RegistrationDate:               p.RegistrationDate,
		HasOneTimeRegistrationDiscount: derefBool(p.HasOneTimeRegistrationDiscount),
	}
	if pm := p.PremiumMembership; pm != nil {
		s.PremiumMembership = models.PremiumMembership{
			IsActive:   derefBool(pm.IsActive),
			StartDate:  pm.StartDate,
			ExpiryDate: pm.ExpiryDate,
		}
		if pm.RenewalCount != nil && *pm.RenewalCount > 0 {
			s.PremiumMembership.RenewalCount = *pm.RenewalCount
		}
	}
	return s
}

// NormalizeMembers normalises a list, dropping records without an identifier.
func NormalizeMembers(payloads []MemberPayload) []models.Member {
	out := make([]models.Member, 0, len(payloads))
	for _, p := range payloads {
		m := p.Normalize()
		if m.ID == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func derefBool(b *bool) bool {
	return b != nil && *b
}

func derefDecimal(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
