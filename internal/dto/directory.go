package dto

import "github.com/noah-isme/member-console/internal/models"

// OpenViewRequest opens a directory view over a member population.
type OpenViewRequest struct {
	IsStudent   *bool  `json:"isStudent"`
	ExcludeType string `json:"excludeType"`
}

// ToggleSelectionRequest flips one member in the selection.
type ToggleSelectionRequest struct {
	MemberID string `json:"memberId" validate:"required"`
}

// SelectAllRequest selects the given ids; an empty list selects the whole buffer.
type SelectAllRequest struct {
	MemberIDs []string `json:"memberIds"`
}

// BulkAssignRequest assigns a navigator or doctor to the current selection.
type BulkAssignRequest struct {
	Role   models.RoleKind `json:"role" validate:"required,oneof=navigator doctor"`
	RoleID string          `json:"roleId" validate:"required"`
}

// AddPackageRequest subscribes a member to a catalog package.
type AddPackageRequest struct {
	PackageID string `json:"packageId" validate:"required"`
}

// RegisterRequest registers a member, optionally consuming the one-time discount.
type RegisterRequest struct {
	ApplyDiscount bool `json:"applyDiscount"`
}

// CreateMemberPayload is the body sent to the member creation endpoint.
type CreateMemberPayload struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName,omitempty"`
	Email           string  `json:"email,omitempty"`
	Phone           string  `json:"phone,omitempty"`
	IsStudent       bool    `json:"isStudent"`
	Grade           string  `json:"grade,omitempty"`
	Section         string  `json:"section,omitempty"`
	PrimaryMemberID *string `json:"primaryMemberId,omitempty"`
}

// NewCreateMemberPayload maps a draft onto the wire payload.
func NewCreateMemberPayload(d models.MemberDraft) CreateMemberPayload {
	return CreateMemberPayload{
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Email:           d.Email,
		Phone:           d.Phone,
		IsStudent:       d.IsStudent,
		Grade:           d.Grade,
		Section:         d.Section,
		PrimaryMemberID: d.PrimaryMemberID,
	}
}

// AssignRolePayload is the body of the bulk assignment endpoints.
type AssignRolePayload struct {
	MemberIDs   []string `json:"memberIds"`
	NavigatorID string   `json:"navigatorId,omitempty"`
	DoctorID    string   `json:"doctorId,omitempty"`
}

// NewAssignRolePayload builds the body for the role kind.
func NewAssignRolePayload(kind models.RoleKind, memberIDs []string, roleID string) AssignRolePayload {
	p := AssignRolePayload{MemberIDs: append([]string(nil), memberIDs...)}
	switch kind {
	case models.RoleNavigator:
		p.NavigatorID = roleID
	case models.RoleDoctor:
		p.DoctorID = roleID
	}
	return p
}
