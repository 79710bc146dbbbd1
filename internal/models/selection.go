package models

// AssignmentStatus aggregates role assignment across a selection.
type AssignmentStatus struct {
	AllAssigned   bool `json:"allAssigned"`
	AllUnassigned bool `json:"allUnassigned"`
	Mixed         bool `json:"mixed"`
}

// ActionLabel returns the bulk action button label.
func (s AssignmentStatus) ActionLabel() string {
	switch {
	case s.Mixed:
		return "Assign & Change"
	case s.AllAssigned:
		return "Change"
	default:
		return "Assign"
	}
}

// SelectionState is returned by selection endpoints.
type SelectionState struct {
	ViewID string            `json:"viewId"`
	IDs    []string          `json:"ids"`
	Count  int               `json:"count"`
	Role   RoleKind          `json:"role,omitempty"`
	Status *AssignmentStatus `json:"status,omitempty"`
	Label  string            `json:"label,omitempty"`
}

// BulkAssignResult reports a committed bulk assignment.
type BulkAssignResult struct {
	Role      RoleKind `json:"role"`
	RoleID    string   `json:"roleId"`
	MemberIDs []string `json:"memberIds"`
	Refreshed bool     `json:"refreshed"`
}
