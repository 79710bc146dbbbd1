package models

import (
	"strings"
	"time"
)

// RoleKind identifies a healthcare team role that can be bulk assigned.
type RoleKind string

const (
	RoleNavigator RoleKind = "navigator"
	RoleDoctor    RoleKind = "doctor"
)

// Valid reports whether the role kind is supported.
func (k RoleKind) Valid() bool {
	return k == RoleNavigator || k == RoleDoctor
}

// TeamAssignment records a navigator or doctor attached to a member.
type TeamAssignment struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	AssignedDate time.Time `json:"assignedDate"`
}

// HealthcareTeam groups optional role assignments.
type HealthcareTeam struct {
	Navigator *TeamAssignment `json:"navigator,omitempty"`
	Doctor    *TeamAssignment `json:"doctor,omitempty"`
}

// Assignment returns the assignment held for the role, nil when unassigned.
func (t HealthcareTeam) Assignment(kind RoleKind) *TeamAssignment {
	var a *TeamAssignment
	switch kind {
	case RoleNavigator:
		a = t.Navigator
	case RoleDoctor:
		a = t.Doctor
	}
	if a == nil || a.ID == "" {
		return nil
	}
	return a
}

// Member is the normalised directory record.
type Member struct {
	ID               string           `json:"id"`
	MemberID         string           `json:"memberId"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	Email            string           `json:"email,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	IsStudent        bool             `json:"isStudent"`
	Grade            string           `json:"grade,omitempty"`
	Section          string           `json:"section,omitempty"`
	MemberType       string           `json:"memberType,omitempty"`
	IsSubprofile     bool             `json:"isSubprofile"`
	PrimaryMemberID  *string          `json:"primaryMemberId,omitempty"`
	SubprofileIDs    []string         `json:"subprofileIds,omitempty"`
	HealthcareTeam   HealthcareTeam   `json:"healthcareTeam"`
	MembershipStatus MembershipStatus `json:"membershipStatus"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// FullName joins first and last name.
func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// MemberProfile is the editable subset of a member sent by the console forms.
type MemberProfile struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	IsStudent bool   `json:"isStudent"`
	Grade     string `json:"grade"`
	Section   string `json:"section"`
}

// ProfileOf extracts the editable profile of a member.
func ProfileOf(m Member) MemberProfile {
	return MemberProfile{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Phone:     m.Phone,
		IsStudent: m.IsStudent,
		Grade:     m.Grade,
		Section:   m.Section,
	}
}

// MemberDraft is the payload used to create a member.
type MemberDraft struct {
	MemberProfile
	PrimaryMemberID *string `json:"primaryMemberId,omitempty"`
}

// PartialUpdate holds only the profile fields that changed, keyed by wire name.
type PartialUpdate map[string]interface{}

// Empty reports whether the update carries no changes.
func (p PartialUpdate) Empty() bool {
	return len(p) == 0
}
